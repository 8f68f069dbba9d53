package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ReadSecret читает секрет из файла в стандартном пути Docker Secrets.
// Каталог можно переопределить переменной SECRETS_DIR (удобно для локального запуска).
func ReadSecret(secretName string) (string, error) {
	dir := os.Getenv("SECRETS_DIR")
	if dir == "" {
		dir = "/run/secrets"
	}
	filePath := filepath.Join(dir, secretName)
	secretBytes, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read secret file %s: %w", filePath, err)
	}
	secret := strings.TrimSpace(string(secretBytes))
	if secret == "" {
		return "", fmt.Errorf("secret file %s is empty", filePath)
	}
	return secret, nil
}

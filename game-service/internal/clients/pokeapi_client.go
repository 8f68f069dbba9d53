package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pokedex-server/shared/interfaces"
	"pokedex-server/shared/models"

	"go.uber.org/zap"
)

// Compile-time check to ensure implementation satisfies the interface.
var _ interfaces.CatalogSource = (*PokeAPIClient)(nil)

// PokeAPIClient - HTTP клиент публичного каталога PokeAPI.
// Read-only источник: никакой записи, никакой авторизации.
type PokeAPIClient struct {
	baseURL    string // Например, "https://pokeapi.co/api/v2"
	limit      int    // Сколько покемонов запрашивать списком (151 - первое поколение)
	httpClient *http.Client
	logger     *zap.Logger
}

// NewPokeAPIClient creates a new HTTP client for the public catalog API.
func NewPokeAPIClient(baseURL string, limit int, timeout time.Duration, logger *zap.Logger) *PokeAPIClient {
	baseURL = strings.TrimSuffix(baseURL, "/")
	if limit <= 0 {
		limit = 151
	}
	return &PokeAPIClient{
		baseURL: baseURL,
		limit:   limit,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.Named("PokeAPIClient"),
	}
}

// Wire-формат PokeAPI. Описываем только поля, которые реально потребляем.
type pokeListResponse struct {
	Results []struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	} `json:"results"`
}

type pokeDetailResponse struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Types []struct {
		Type struct {
			Name string `json:"name"`
		} `json:"type"`
	} `json:"types"`
	Abilities []struct {
		Ability struct {
			Name string `json:"name"`
		} `json:"ability"`
	} `json:"abilities"`
	Stats []struct {
		BaseStat int `json:"base_stat"`
		Stat     struct {
			Name string `json:"name"`
		} `json:"stat"`
	} `json:"stats"`
	Sprites struct {
		FrontDefault string `json:"front_default"`
		Other        struct {
			OfficialArtwork struct {
				FrontDefault string `json:"front_default"`
			} `json:"official-artwork"`
		} `json:"other"`
	} `json:"sprites"`
	Species struct {
		URL string `json:"url"`
	} `json:"species"`
	Weight float64 `json:"weight"`
	Height float64 `json:"height"`
}

type pokeSpeciesResponse struct {
	FlavorTextEntries []struct {
		FlavorText string `json:"flavor_text"`
		Language   struct {
			Name string `json:"name"`
		} `json:"language"`
	} `json:"flavor_text_entries"`
	EvolutionChain struct {
		URL string `json:"url"`
	} `json:"evolution_chain"`
}

// ListCatalog возвращает список первых limit покемонов (имя + URL детального ресурса).
func (c *PokeAPIClient) ListCatalog(ctx context.Context) ([]models.CatalogSummary, error) {
	endpointURL := fmt.Sprintf("%s/pokemon?limit=%d&offset=0", c.baseURL, c.limit)
	c.logger.Debug("Fetching catalog list", zap.String("url", endpointURL))

	var payload pokeListResponse
	if err := c.getJSON(ctx, endpointURL, &payload); err != nil {
		return nil, err
	}

	summaries := make([]models.CatalogSummary, 0, len(payload.Results))
	for _, item := range payload.Results {
		id, err := idFromResourceURL(item.URL)
		if err != nil {
			c.logger.Warn("Skipping catalog entry with unparsable URL",
				zap.String("name", item.Name), zap.String("url", item.URL))
			continue
		}
		summaries = append(summaries, models.CatalogSummary{
			ID:          id,
			Name:        item.Name,
			ResourceURL: item.URL,
		})
	}

	c.logger.Info("Catalog list fetched", zap.Int("count", len(summaries)))
	return summaries, nil
}

// FetchDetail возвращает полную карточку покемона.
// Два запроса: основной ресурс и species (flavor text + evolution chain).
// Оба должны завершиться успешно, иначе карточка считается невалидной
// и не подлежит кешированию.
func (c *PokeAPIClient) FetchDetail(ctx context.Context, id int) (*models.CatalogDetail, error) {
	log := c.logger.With(zap.Int("pokemonID", id))

	var primary pokeDetailResponse
	endpointURL := fmt.Sprintf("%s/pokemon/%d", c.baseURL, id)
	if err := c.getJSON(ctx, endpointURL, &primary); err != nil {
		log.Warn("Failed to fetch pokemon detail", zap.Error(err))
		return nil, err
	}

	var species pokeSpeciesResponse
	if err := c.getJSON(ctx, primary.Species.URL, &species); err != nil {
		// Частичный успех - это неуспех: без species карточка неполная
		log.Warn("Failed to fetch species data", zap.Error(err))
		return nil, err
	}

	detail := &models.CatalogDetail{
		ID:                primary.ID,
		Name:              primary.Name,
		Types:             make([]string, 0, len(primary.Types)),
		Abilities:         make([]string, 0, len(primary.Abilities)),
		Stats:             make([]models.StatValue, 0, len(primary.Stats)),
		ImageURL:          primary.Sprites.Other.OfficialArtwork.FrontDefault,
		Weight:            primary.Weight,
		Height:            primary.Height,
		EvolutionChainURL: species.EvolutionChain.URL,
	}
	if detail.ImageURL == "" {
		detail.ImageURL = primary.Sprites.FrontDefault
	}
	for _, t := range primary.Types {
		detail.Types = append(detail.Types, t.Type.Name)
	}
	for _, a := range primary.Abilities {
		detail.Abilities = append(detail.Abilities, a.Ability.Name)
	}
	for _, s := range primary.Stats {
		detail.Stats = append(detail.Stats, models.StatValue{Name: s.Stat.Name, Value: s.BaseStat})
	}
	for _, entry := range species.FlavorTextEntries {
		if entry.Language.Name == "en" {
			detail.FlavorText = normalizeFlavorText(entry.FlavorText)
			break
		}
	}

	log.Debug("Pokemon detail fetched", zap.String("name", detail.Name))
	return detail, nil
}

// getJSON выполняет GET и декодирует ответ.
// Транспортные ошибки и не-2xx статусы транслируются в ошибки таксономии:
// 404 -> models.ErrNotFound, все остальное -> models.ErrNetworkUnavailable.
func (c *PokeAPIClient) getJSON(ctx context.Context, url string, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request for %s: %w", url, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrNetworkUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return models.ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%w: unexpected status %d from %s", models.ErrNetworkUnavailable, resp.StatusCode, url)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("%w: failed to decode response from %s: %v", models.ErrNetworkUnavailable, url, err)
	}
	return nil
}

// idFromResourceURL извлекает числовой идентификатор из URL вида
// "https://pokeapi.co/api/v2/pokemon/25/".
func idFromResourceURL(resourceURL string) (int, error) {
	trimmed := strings.TrimSuffix(resourceURL, "/")
	idx := strings.LastIndex(trimmed, "/")
	if idx < 0 {
		return 0, fmt.Errorf("no path segments in %q", resourceURL)
	}
	id, err := strconv.Atoi(trimmed[idx+1:])
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid identity in %q", resourceURL)
	}
	return id, nil
}

// normalizeFlavorText убирает из текста PokeAPI служебные переносы и page breaks.
func normalizeFlavorText(text string) string {
	replacer := strings.NewReplacer("\n", " ", "\f", " ", "\r", " ")
	return strings.Join(strings.Fields(replacer.Replace(text)), " ")
}

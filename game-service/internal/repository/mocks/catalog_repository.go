package mocks

import (
	"context"

	"pokedex-server/shared/models"

	"github.com/stretchr/testify/mock"
)

// Mock CatalogRepository
type CatalogRepository struct {
	mock.Mock
}

func (m *CatalogRepository) GetSummaryList(ctx context.Context) ([]models.CatalogSummary, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]models.CatalogSummary)
	return list, args.Error(1)
}
func (m *CatalogRepository) GetDetail(ctx context.Context, id int) (*models.CatalogDetail, error) {
	args := m.Called(ctx, id)
	detail, _ := args.Get(0).(*models.CatalogDetail)
	return detail, args.Error(1)
}

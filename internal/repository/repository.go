package repository

import (
	"context"
	"errors"

	"github.com/mr1hm/go-resilience-dashboard/internal/models"
)

var ErrNotFound = errors.New("district not found")

type Filter struct {
	Limit    int
	Offset   int
	MinScore *float64
	Status   *models.StatusBand
}

// DistrictRepository stores district records between loads. Rows come back
// as raw records so the loader enriches them the same way as any other source.
type DistrictRepository interface {
	Upsert(ctx context.Context, records []models.DistrictRecord) (int64, error)
	GetByID(ctx context.Context, id int) (*models.RawDistrict, error)
	ListDistricts(ctx context.Context, opts Filter) ([]models.RawDistrict, error)
	FetchDistricts(ctx context.Context) ([]models.RawDistrict, error)
}

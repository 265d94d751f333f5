package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mr1hm/go-resilience-dashboard/internal/models"
)

func setupTestDB(t *testing.T) *SQLiteDB {
	t.Helper()
	db, err := NewSQLiteDB(":memory:")
	require.NoError(t, err, "failed to create test db")
	t.Cleanup(func() { db.Close() })
	return db
}

func district(id int, name string, score float64, status models.StatusBand) models.DistrictRecord {
	return models.DistrictRecord{
		ID:       id,
		Name:     name,
		Score:    score,
		Status:   status,
		Location: models.LatLng{Lat: 16.4 + float64(id)/100, Lng: 102.8},
		Dimensions: models.Dimensions{
			HazardExposure:   score - 5,
			AdaptiveCapacity: score + 5,
			NaturalResource:  score - 10,
			SocialEconomic:   score,
		},
	}
}

func TestSQLiteDB_UpsertAndGet(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	n, err := db.Upsert(ctx, []models.DistrictRecord{district(1, "อำเภอพล", 72, models.StatusMid)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := db.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ID)
	assert.Equal(t, "อำเภอพล", got.Name)
	require.NotNil(t, got.Score)
	assert.Equal(t, 72.0, *got.Score)
	require.NotNil(t, got.Status)
	assert.Equal(t, models.StatusMid, *got.Status)
	require.NotNil(t, got.Details)
	require.NotNil(t, got.Details.Potential)
	assert.Equal(t, 77.0, *got.Details.Potential)
	require.NotNil(t, got.Lat)
	assert.InDelta(t, 16.41, *got.Lat, 1e-9)
}

func TestSQLiteDB_UpsertReplaces(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	_, err := db.Upsert(ctx, []models.DistrictRecord{district(1, "อำเภอพล", 72, models.StatusMid)})
	require.NoError(t, err)
	_, err = db.Upsert(ctx, []models.DistrictRecord{district(1, "อำเภอพล", 88, models.StatusGood)})
	require.NoError(t, err)

	all, err := db.ListDistricts(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 88.0, *all[0].Score)
	assert.Equal(t, models.StatusGood, *all[0].Status)
}

func TestSQLiteDB_UnlocatedStoresNull(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	r := district(5, "อำเภอชุมแพ", 60, models.StatusMid)
	r.Location = models.LatLng{}
	_, err := db.Upsert(ctx, []models.DistrictRecord{r})
	require.NoError(t, err)

	got, err := db.GetByID(ctx, 5)
	require.NoError(t, err)
	assert.Nil(t, got.Lat)
	assert.Nil(t, got.Lng)
}

func TestSQLiteDB_GetByID_NotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.GetByID(context.Background(), 404)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLiteDB_ListDistricts_Filters(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	_, err := db.Upsert(ctx, []models.DistrictRecord{
		district(3, "c", 50, models.StatusBad),
		district(1, "a", 80, models.StatusGood),
		district(2, "b", 65, models.StatusMid),
	})
	require.NoError(t, err)

	all, err := db.ListDistricts(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, int64(1), all[0].ID, "ordered by id")

	minScore := 60.0
	high, err := db.ListDistricts(ctx, Filter{MinScore: &minScore})
	require.NoError(t, err)
	assert.Len(t, high, 2)

	good := models.StatusGood
	onlyGood, err := db.ListDistricts(ctx, Filter{Status: &good})
	require.NoError(t, err)
	require.Len(t, onlyGood, 1)
	assert.Equal(t, "a", onlyGood[0].Name)

	page, err := db.ListDistricts(ctx, Filter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "b", page[0].Name)
}

func TestSQLiteDB_FetchDistricts_Empty(t *testing.T) {
	db := setupTestDB(t)

	got, err := db.FetchDistricts(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

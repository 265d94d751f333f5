package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mr1hm/go-resilience-dashboard/internal/models"
	"github.com/mr1hm/go-resilience-dashboard/internal/score"
)

func fixtures() []models.DistrictRecord {
	return []models.DistrictRecord{
		{ID: 1, Name: "อำเภอเมืองขอนแก่น", Score: 84},
		{ID: 2, Name: "อำเภอบ้านไผ่", Score: 66},
		{ID: 3, Name: "อำเภอบ้านฝาง", Score: 52},
		{ID: 4, Name: "Ban Phai", Score: 40},
	}
}

func TestFilter_EmptyQueryIsIdentity(t *testing.T) {
	records := fixtures()
	got := Filter(records, "")
	assert.Equal(t, records, got)
	assert.Same(t, &records[0], &got[0])
}

func TestFilter_NoMatch(t *testing.T) {
	got := Filter(fixtures(), "ชุมแพ")
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFilter_Singleton(t *testing.T) {
	got := Filter(fixtures(), "ไผ่")
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].ID)
}

func TestFilter_Substring(t *testing.T) {
	got := Filter(fixtures(), "บ้าน")
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].ID)
	assert.Equal(t, 3, got[1].ID)
}

func TestFilter_CaseSensitive(t *testing.T) {
	assert.Len(t, Filter(fixtures(), "Ban"), 1)
	assert.Empty(t, Filter(fixtures(), "ban"))
}

func TestDimmed(t *testing.T) {
	ids := IDs(Filter(fixtures(), "บ้าน"))

	assert.False(t, Dimmed(true, 1, ids, ""), "nothing dimmed without a query")
	assert.False(t, Dimmed(false, 0, ids, ""))
	assert.False(t, Dimmed(true, 2, ids, "บ้าน"))
	assert.True(t, Dimmed(true, 1, ids, "บ้าน"))
	assert.True(t, Dimmed(false, 0, ids, "บ้าน"))
}

func TestContains(t *testing.T) {
	ids := IDs(fixtures())
	assert.True(t, Contains(true, 4, ids))
	assert.False(t, Contains(true, 99, ids))
	assert.False(t, Contains(false, 4, ids), "unmatched features are never in the set")
}

func TestNewPicklist(t *testing.T) {
	p := NewPicklist(fixtures(), "บ้าน")
	assert.Equal(t, "บ้าน", p.Query)
	assert.Equal(t, 2, p.Showing)
	assert.Equal(t, 4, p.Total)
	require.Len(t, p.Items, 2)
	assert.Equal(t, Item{ID: 2, Name: "อำเภอบ้านไผ่", Score: 66, Color: score.Yellow}, p.Items[0])
	assert.Equal(t, score.Orange, p.Items[1].Color)
}

func TestNewPicklist_Empty(t *testing.T) {
	p := NewPicklist(nil, "")
	assert.NotNil(t, p.Items)
	assert.Zero(t, p.Showing)
	assert.Zero(t, p.Total)
}

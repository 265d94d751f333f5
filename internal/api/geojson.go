package api

import (
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb/geojson"

	"github.com/mr1hm/go-resilience-dashboard/internal/locale"
	"github.com/mr1hm/go-resilience-dashboard/internal/models"
	"github.com/mr1hm/go-resilience-dashboard/internal/score"
)

const geoJSONContentType = "application/geo+json"

func writeGeoJSON(c *gin.Context, fc *geojson.FeatureCollection) {
	body, err := sonic.Marshal(fc)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to encode map"})
		return
	}
	c.Data(http.StatusOK, geoJSONContentType, body)
}

type legendBand struct {
	Min   float64     `json:"min"`
	Color score.Color `json:"color"`
	Label score.Label `json:"label"`
	Text  string      `json:"text"`
}

type statusBand struct {
	Min  float64           `json:"min"`
	Band models.StatusBand `json:"band"`
}

type legend struct {
	Bands       []legendBand `json:"bands"`
	NoData      score.Color  `json:"noData"`
	StatusBands []statusBand `json:"statusBands"`
}

func buildLegend(labels *locale.Labels) legend {
	palette := score.Palette()
	bands := make([]legendBand, len(palette))
	for i, b := range palette {
		bands[i] = legendBand{Min: b.Min, Color: b.Color, Label: b.Label, Text: labels.StatusText(b.Label)}
	}
	return legend{
		Bands:  bands,
		NoData: score.NeutralGray,
		StatusBands: []statusBand{
			{Min: 75, Band: models.StatusGood},
			{Min: 60, Band: models.StatusMid},
			{Min: 0, Band: models.StatusBad},
		},
	}
}

// Package locale holds the display text of the dashboard. The embedded Thai
// file is the default; a YAML file with the same keys may override any subset.
package locale

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/mr1hm/go-resilience-dashboard/internal/score"
)

//go:embed th.yaml
var defaultFile []byte

type Labels struct {
	Status     StatusLabels    `yaml:"status" json:"status"`
	Radar      DimensionLabels `yaml:"radar" json:"radar"`
	Categories DimensionLabels `yaml:"categories" json:"categories"`
	ScoreLabel string          `yaml:"scoreLabel" json:"scoreLabel"`
	NotFound   string          `yaml:"notFound" json:"notFound"`
}

type StatusLabels struct {
	Excellent string `yaml:"excellent" json:"excellent"`
	Good      string `yaml:"good" json:"good"`
	Moderate  string `yaml:"moderate" json:"moderate"`
	Fair      string `yaml:"fair" json:"fair"`
	Poor      string `yaml:"poor" json:"poor"`
}

type DimensionLabels struct {
	HazardExposure   string `yaml:"hazardExposure" json:"hazardExposure"`
	AdaptiveCapacity string `yaml:"adaptiveCapacity" json:"adaptiveCapacity"`
	NaturalResource  string `yaml:"naturalResource" json:"naturalResource"`
	SocialEconomic   string `yaml:"socialEconomic" json:"socialEconomic"`
	PublicPerception string `yaml:"publicPerception,omitempty" json:"publicPerception,omitempty"`
}

// Default returns the embedded labels. It panics if the embedded file is broken,
// which can only happen at build time.
func Default() *Labels {
	var l Labels
	if err := yaml.Unmarshal(defaultFile, &l); err != nil {
		panic(fmt.Sprintf("locale: embedded labels: %v", err))
	}
	return &l
}

// Load reads a label file and fills every key it leaves empty from the defaults.
// An empty path returns the defaults.
func Load(path string) (*Labels, error) {
	def := Default()
	if path == "" {
		return def, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading locale file: %w", err)
	}

	var l Labels
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("error parsing locale file %s: %w", path, err)
	}
	l.fill(def)
	return &l, nil
}

// StatusText returns the display text of a five-band label.
func (l *Labels) StatusText(label score.Label) string {
	switch label {
	case score.LabelExcellent:
		return l.Status.Excellent
	case score.LabelGood:
		return l.Status.Good
	case score.LabelModerate:
		return l.Status.Moderate
	case score.LabelFair:
		return l.Status.Fair
	default:
		return l.Status.Poor
	}
}

// RadarSubjects returns the radar axis labels in series order.
func (l *Labels) RadarSubjects() [5]string {
	return [5]string{
		l.Radar.HazardExposure,
		l.Radar.AdaptiveCapacity,
		l.Radar.NaturalResource,
		l.Radar.SocialEconomic,
		l.Radar.PublicPerception,
	}
}

func (l *Labels) fill(def *Labels) {
	orDefault(&l.Status.Excellent, def.Status.Excellent)
	orDefault(&l.Status.Good, def.Status.Good)
	orDefault(&l.Status.Moderate, def.Status.Moderate)
	orDefault(&l.Status.Fair, def.Status.Fair)
	orDefault(&l.Status.Poor, def.Status.Poor)
	l.Radar.fill(def.Radar)
	l.Categories.fill(def.Categories)
	orDefault(&l.ScoreLabel, def.ScoreLabel)
	orDefault(&l.NotFound, def.NotFound)
}

func (d *DimensionLabels) fill(def DimensionLabels) {
	orDefault(&d.HazardExposure, def.HazardExposure)
	orDefault(&d.AdaptiveCapacity, def.AdaptiveCapacity)
	orDefault(&d.NaturalResource, def.NaturalResource)
	orDefault(&d.SocialEconomic, def.SocialEconomic)
	orDefault(&d.PublicPerception, def.PublicPerception)
}

func orDefault(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}

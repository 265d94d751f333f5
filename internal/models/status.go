package models

type StatusBand string

const (
	StatusGood StatusBand = "good"
	StatusMid  StatusBand = "mid"
	StatusBad  StatusBand = "bad"
)

func (s StatusBand) Valid() bool {
	switch s {
	case StatusGood, StatusMid, StatusBad:
		return true
	default:
		return false
	}
}

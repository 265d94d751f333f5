package mapview

import (
	"fmt"
	"time"

	"github.com/mr1hm/go-resilience-dashboard/internal/models"
	"github.com/mr1hm/go-resilience-dashboard/internal/stream"
)

// MapHandle is a mounted, interactive map. A session holds at most one and
// treats its absence as "not ready yet".
type MapHandle interface {
	FlyTo(target models.LatLng, zoom float64, duration time.Duration)
}

// Navigator moves the client to another view.
type Navigator interface {
	Navigate(path string)
}

// DetailPath is the route of a district's detail view.
func DetailPath(id int) string {
	return fmt.Sprintf("/district/%d", id)
}

// Camera is the payload of a camera event.
type Camera struct {
	Center   models.LatLng `json:"center"`
	Zoom     float64       `json:"zoom"`
	Duration float64       `json:"duration"` // seconds
}

// streamHandle drives the clients connected to a session's event stream.
type streamHandle struct {
	events *stream.Broadcaster
}

func (h streamHandle) FlyTo(target models.LatLng, zoom float64, duration time.Duration) {
	h.events.Broadcast(stream.Event{
		Type: stream.EventCamera,
		Data: Camera{Center: target, Zoom: zoom, Duration: duration.Seconds()},
	})
}

func (h streamHandle) Navigate(path string) {
	h.events.Broadcast(stream.Event{Type: stream.EventNavigate, Data: path})
}

// Package mapview holds the per-client map sessions of the dashboard: load
// state, search and panel state, the optional live map handle, and every piece
// of render state derived from the loaded data.
package mapview

import "errors"

type State string

const (
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateFailed  State = "error"
	StateClosed  State = "closed"
)

var (
	ErrNotFound      = errors.New("district not found")
	ErrNotReady      = errors.New("session is still loading")
	ErrSessionClosed = errors.New("session closed")
	ErrNoSession     = errors.New("no such session")
)

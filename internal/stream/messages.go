package stream

import "github.com/san-kum/ambient/internal/particles"

const (
	TypeFrame   = "frame"
	TypeHello   = "hello"
	TypeError   = "error"
	TypePointer = "pointer"
	TypeEvent   = "event"
)

// Frame is broadcast to every client once per interval.
type Frame struct {
	Type      string               `json:"type"`
	Seq       uint64               `json:"seq"`
	Status    string               `json:"status,omitempty"`
	Bounds    particles.Bounds     `json:"bounds"`
	Particles []particles.Particle `json:"particles"`
}

type Hello struct {
	Type     string           `json:"type"`
	ClientID string           `json:"client_id"`
	Bounds   particles.Bounds `json:"bounds"`
}

type ErrorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// ClientMessage is what browsers send: pointer moves in field coordinates
// and named interaction events.
type ClientMessage struct {
	Type   string  `json:"type"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Active bool    `json:"active"`
	Name   string  `json:"name"`
}

package storage

import (
	"sync"

	"github.com/san-kum/ambient/internal/particles"
)

// Recorder captures a field snapshot every Every steps while subscribed to
// a frame source.
type Recorder struct {
	Every int

	mu     sync.Mutex
	field  *particles.Field
	frames []Frame
}

func NewRecorder(f *particles.Field, every int) *Recorder {
	if every < 1 {
		every = 1
	}
	return &Recorder{Every: every, field: f}
}

// Capture records the current snapshot when the field's step count is a
// multiple of Every. Use it as a frame subscriber after the field steps.
func (r *Recorder) Capture(float64) {
	step := r.field.Steps()
	if step%r.Every != 0 {
		return
	}
	snap := r.field.Particles()
	r.mu.Lock()
	r.frames = append(r.frames, Frame{Step: step, Particles: snap})
	r.mu.Unlock()
}

func (r *Recorder) Frames() []Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Frame(nil), r.frames...)
}

func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/san-kum/ambient/internal/metrics"
	"github.com/san-kum/ambient/internal/particles"
)

const (
	metadataFile = "metadata.json"
	framesFile   = "frames.csv"
)

var (
	ErrUnknownMetric = errors.New("storage: unknown metric")
	ErrBadRecord     = errors.New("storage: malformed frame record")
)

var header = []string{"step", "id", "x", "y", "vx", "vy", "life", "radius", "color"}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

type RunMetadata struct {
	ID        string             `json:"id"`
	Preset    string             `json:"preset,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
	Count     int                `json:"count"`
	Bounds    particles.Bounds   `json:"bounds"`
	Steps     int                `json:"steps"`
	Dt        float64            `json:"dt"`
	Pointer   string             `json:"pointer,omitempty"`
	Options   particles.Options  `json:"options"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Frame is one captured snapshot of the field.
type Frame struct {
	Step      int
	Particles []particles.Particle
}

func NewRunID() string {
	return "field_" + uuid.NewString()[:8]
}

// Save writes meta and frames into a fresh run directory and returns its ID.
// An empty meta.ID gets a generated one.
func (s *Store) Save(meta RunMetadata, frames []Frame) (string, error) {
	if meta.ID == "" {
		meta.ID = NewRunID()
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeFrames(filepath.Join(runDir, framesFile), frames); err != nil {
		return "", err
	}
	return meta.ID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeFrames(path string, frames []Frame) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, fr := range frames {
		step := strconv.Itoa(fr.Step)
		for _, p := range fr.Particles {
			row := []string{
				step,
				strconv.Itoa(p.ID),
				formatFloat(p.X),
				formatFloat(p.Y),
				formatFloat(p.VX),
				formatFloat(p.VY),
				formatFloat(p.Life),
				formatFloat(p.Radius),
				p.Color,
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}
	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("storage: decode %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadFrames reads frames.csv back, grouping rows by step in file order.
func (s *Store) LoadFrames(runID string) ([]Frame, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, framesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []Frame{}, nil
	}

	frames := make([]Frame, 0)
	for i, rec := range records[1:] {
		p, step, err := parseRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrBadRecord, i+2, err)
		}
		if n := len(frames); n == 0 || frames[n-1].Step != step {
			frames = append(frames, Frame{Step: step})
		}
		last := &frames[len(frames)-1]
		last.Particles = append(last.Particles, p)
	}
	return frames, nil
}

func parseRecord(rec []string) (particles.Particle, int, error) {
	var p particles.Particle
	if len(rec) < 7 {
		return p, 0, fmt.Errorf("%d fields", len(rec))
	}
	step, err := strconv.Atoi(rec[0])
	if err != nil {
		return p, 0, err
	}
	if p.ID, err = strconv.Atoi(rec[1]); err != nil {
		return p, 0, err
	}
	vals := make([]float64, 5)
	for j := range vals {
		if vals[j], err = strconv.ParseFloat(rec[j+2], 64); err != nil {
			return p, 0, err
		}
	}
	p.X, p.Y, p.VX, p.VY, p.Life = vals[0], vals[1], vals[2], vals[3], vals[4]
	if len(rec) > 7 {
		if p.Radius, err = strconv.ParseFloat(rec[7], 64); err != nil {
			return p, 0, err
		}
	}
	if len(rec) > 8 {
		p.Color = rec[8]
	}
	return p, step, nil
}

// Series evaluates a named metric on every stored frame.
func (s *Store) Series(runID, metric string) ([]float64, error) {
	if metrics.Lookup(metric) == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, metric)
	}
	frames, err := s.LoadFrames(runID)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(frames))
	for i, fr := range frames {
		out[i], _ = metrics.Snapshot(metric, fr.Particles)
	}
	return out, nil
}

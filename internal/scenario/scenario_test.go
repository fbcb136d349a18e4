package scenario

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/ambient/internal/particles"
	"github.com/san-kum/ambient/internal/storage"
)

func TestPointerPaths(t *testing.T) {
	b := particles.Bounds{Width: 400, Height: 200}

	none, err := LookupPointer("none")
	require.NoError(t, err)
	_, _, active := none(3, 10, b)
	assert.False(t, active)

	center, err := LookupPointer("center")
	require.NoError(t, err)
	x, y, active := center(3, 10, b)
	assert.True(t, active)
	assert.Equal(t, 200.0, x)
	assert.Equal(t, 100.0, y)

	orbit, err := LookupPointer("orbit")
	require.NoError(t, err)
	x, y, _ = orbit(0, 10, b)
	assert.InDelta(t, 250.0, x, 1e-9)
	assert.InDelta(t, 100.0, y, 1e-9)
	x, y, _ = orbit(OrbitPeriod/4, 10, b)
	assert.InDelta(t, 200.0, x, 1e-9)
	assert.InDelta(t, 150.0, y, 1e-9)

	sweep, err := LookupPointer("sweep")
	require.NoError(t, err)
	x, _, _ = sweep(0, 11, b)
	assert.Equal(t, 0.0, x)
	x, _, _ = sweep(10, 11, b)
	assert.Equal(t, 400.0, x)
}

func TestUnknownPointer(t *testing.T) {
	_, err := LookupPointer("spiral")
	assert.ErrorIs(t, err, ErrUnknownPointer)

	p, err := LookupPointer("")
	require.NoError(t, err)
	_, _, active := p(0, 1, particles.Bounds{Width: 1, Height: 1})
	assert.False(t, active)
}

func TestStepConfig(t *testing.T) {
	s := Step{Preset: "calm", Count: 12, Seed: 3, Params: map[string]float64{"attraction": 0.9}}
	cfg, err := s.Config()
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Field.Count)
	assert.Equal(t, int64(3), cfg.Field.Seed)
	assert.Equal(t, 0.9, cfg.Field.Attraction)

	_, err = Step{Preset: "nope"}.Config()
	assert.ErrorIs(t, err, ErrUnknownPreset)

	_, err = Step{Params: map[string]float64{"gravity": 1}}.Config()
	assert.ErrorIs(t, err, ErrUnknownParam)
}

func TestExecuteCapturesFramesAndMetrics(t *testing.T) {
	field, err := particles.New(20, particles.Bounds{Width: 100, Height: 100}, particles.WithSeed(1))
	require.NoError(t, err)

	res, err := Execute(context.Background(), field, Step{Steps: 30, Every: 10, Pointer: "center"})
	require.NoError(t, err)

	assert.Equal(t, 30, field.Steps())
	require.Len(t, res.Frames, 3)
	assert.Equal(t, 10, res.Frames[0].Step)
	assert.Equal(t, 30, res.Frames[2].Step)
	assert.Len(t, res.Frames[0].Particles, 20)
	assert.Contains(t, res.Metrics, "energy")
	assert.Contains(t, res.Metrics, "spread")

	x, y, active := field.Pointer()
	assert.True(t, active)
	assert.Equal(t, 50.0, x)
	assert.Equal(t, 50.0, y)
}

func TestExecuteHonoursContext(t *testing.T) {
	field, err := particles.New(5, particles.Bounds{Width: 10, Height: 10}, particles.WithSeed(1))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = Execute(ctx, field, Step{Steps: 10})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, field.Steps())
}

func TestExecuteRejectsBadSteps(t *testing.T) {
	field, err := particles.New(1, particles.Bounds{Width: 10, Height: 10})
	require.NoError(t, err)
	_, err = Execute(context.Background(), field, Step{Steps: 0})
	assert.Error(t, err)
}

func TestRunSavesEveryStep(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: demo
steps:
  - preset: calm
    pointer: orbit
    steps: 20
    every: 5
    count: 8
    seed: 2
    save_as: calm_orbit
  - pointer: sweep
    steps: 10
    count: 4
    seed: 3
`), 0644))

	sc, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "demo", sc.Name)
	require.Len(t, sc.Steps, 2)

	st := storage.New(filepath.Join(dir, "runs"))
	require.NoError(t, st.Init())
	results, err := Run(context.Background(), sc, st, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "calm_orbit", results[0].RunID)
	assert.NotEmpty(t, results[1].RunID)

	meta, err := st.Load("calm_orbit")
	require.NoError(t, err)
	assert.Equal(t, 8, meta.Count)
	assert.Equal(t, "orbit", meta.Pointer)
	assert.Equal(t, "calm", meta.Preset)

	frames, err := st.LoadFrames("calm_orbit")
	require.NoError(t, err)
	assert.Len(t, frames, 4)
}

func TestLoadScenarioRejectsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: empty\n"), 0644))
	_, err := LoadScenario(path)
	assert.Error(t, err)
}

func TestRunSweep(t *testing.T) {
	sw := &Sweep{
		Base:   Step{Steps: 5, Count: 6, Seed: 4, Pointer: "center"},
		Param:  "attraction",
		Min:    0,
		Max:    1,
		Points: 3,
	}
	results, err := RunSweep(context.Background(), sw, nil)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, 0.0, results[0].Value)
	assert.Equal(t, 0.5, results[1].Value)
	assert.Equal(t, 1.0, results[2].Value)
	assert.Contains(t, results[2].Metrics, "mean_speed")
	assert.Nil(t, sw.Base.Params)

	_, err = RunSweep(context.Background(), &Sweep{Base: Step{Steps: 1}, Param: "gravity", Points: 1}, nil)
	assert.ErrorIs(t, err, ErrUnknownParam)
}

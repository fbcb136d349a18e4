package scenario

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Sweep runs Base once per value of Param spread evenly over [Min, Max].
type Sweep struct {
	Base   Step
	Param  string
	Min    float64
	Max    float64
	Points int
}

type SweepResult struct {
	Value   float64
	Metrics map[string]float64
}

func RunSweep(ctx context.Context, sw *Sweep, log *zap.Logger) ([]SweepResult, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if sw.Points < 1 {
		return nil, fmt.Errorf("scenario: sweep needs at least one point, got %d", sw.Points)
	}

	stride := 0.0
	if sw.Points > 1 {
		stride = (sw.Max - sw.Min) / float64(sw.Points-1)
	}

	results := make([]SweepResult, 0, sw.Points)
	for i := 0; i < sw.Points; i++ {
		v := sw.Min + float64(i)*stride

		step := sw.Base
		step.Params = make(map[string]float64, len(sw.Base.Params)+1)
		for k, p := range sw.Base.Params {
			step.Params[k] = p
		}
		step.Params[sw.Param] = v

		cfg, err := step.Config()
		if err != nil {
			return results, err
		}
		field, err := cfg.NewField()
		if err != nil {
			return results, err
		}
		res, err := Execute(ctx, field, step)
		field.Dispose()
		if err != nil {
			return results, err
		}

		results = append(results, SweepResult{Value: v, Metrics: res.Metrics})
		log.Debug("sweep point",
			zap.Int("point", i+1),
			zap.String("param", sw.Param),
			zap.Float64("value", v),
		)
	}
	return results, nil
}

package motion

// Props are the parameters handed to a component.
type Props map[string]any

// Element is what a component renders to. Hosts turn it into output.
type Element struct {
	Kind     string
	Props    Props
	Children []string
}

// Component renders props and children into an Element.
type Component func(props Props, children ...string) Element

// Value is a read-only animated scalar.
type Value interface {
	Get() float64
}

type SpringOptions struct {
	Frequency float64 // angular frequency
	Damping   float64 // damping ratio, 1 is critical
}

func DefaultSpringOptions() SpringOptions {
	return SpringOptions{Frequency: 6.0, Damping: 0.5}
}

type Module interface {
	Component(name string) Component
	ScrollProgress() Value
	Spring(source Value, opts SpringOptions) Value
	Transform(source Value, input, output []float64) Value
	Presence(visible bool, children ...Element) []Element
}

// Animator is implemented by runtimes that advance over frames.
type Animator interface {
	Tick()
}

var animationProps = map[string]struct{}{
	"initial":             {},
	"animate":             {},
	"exit":                {},
	"transition":          {},
	"variants":            {},
	"whileHover":          {},
	"whileTap":            {},
	"whileInView":         {},
	"whileFocus":          {},
	"whileDrag":           {},
	"viewport":            {},
	"layout":              {},
	"layoutId":            {},
	"drag":                {},
	"onAnimationStart":    {},
	"onAnimationComplete": {},
}

// IsAnimationProp reports whether key only has meaning to the animation runtime.
func IsAnimationProp(key string) bool {
	_, ok := animationProps[key]
	return ok
}

// StripAnimationProps returns a copy of props without animation-only keys.
// The input is never modified.
func StripAnimationProps(props Props) Props {
	out := make(Props, len(props))
	for k, v := range props {
		if IsAnimationProp(k) {
			continue
		}
		out[k] = v
	}
	return out
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// numericTargets extracts the numeric entries of a nested prop such as
// "animate" or "initial".
func numericTargets(v any) map[string]float64 {
	var src map[string]any
	switch m := v.(type) {
	case Props:
		src = m
	case map[string]any:
		src = m
	case map[string]float64:
		out := make(map[string]float64, len(m))
		for k, f := range m {
			out[k] = f
		}
		return out
	default:
		return nil
	}
	out := make(map[string]float64, len(src))
	for k, raw := range src {
		if f, ok := toFloat(raw); ok {
			out[k] = f
		}
	}
	return out
}

package motion

import "sync"

type noop struct {
	mu         sync.Mutex
	components map[string]Component
}

// Noop returns a Module that renders without motion. Any component name is
// accepted; each is created on first request and reused afterwards.
func Noop() Module {
	return &noop{components: make(map[string]Component)}
}

func (n *noop) Component(name string) Component {
	n.mu.Lock()
	defer n.mu.Unlock()
	if c, ok := n.components[name]; ok {
		return c
	}
	c := passthrough(name)
	n.components[name] = c
	return c
}

func passthrough(name string) Component {
	return func(props Props, children ...string) Element {
		return Element{
			Kind:     name,
			Props:    StripAnimationProps(props),
			Children: append([]string(nil), children...),
		}
	}
}

func (n *noop) ScrollProgress() Value { return Static(0) }

func (n *noop) Spring(source Value, _ SpringOptions) Value {
	if source == nil {
		return Static(0)
	}
	return source
}

// Transform resolves to the resting end of the output range.
func (n *noop) Transform(_ Value, _ []float64, output []float64) Value {
	if len(output) == 0 {
		return Static(0)
	}
	return Static(output[0])
}

func (n *noop) Presence(visible bool, children ...Element) []Element {
	if !visible {
		return nil
	}
	return append([]Element(nil), children...)
}

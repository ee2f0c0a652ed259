package chart

import (
	"sort"
	"sync"
)

// Surface receives drawn figures. Drawing onto a target replaces whatever
// the target held before. Erase clears a target.
type Surface interface {
	Draw(target string, fig Figure) error
	Erase(target string)
}

// Canvas is an in-memory Surface.
type Canvas struct {
	mu      sync.RWMutex
	figures map[string]Figure
	draws   int
}

// NewCanvas creates an empty canvas.
func NewCanvas() *Canvas {
	return &Canvas{figures: make(map[string]Figure)}
}

func (c *Canvas) Draw(target string, fig Figure) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.figures[target] = fig
	c.draws++
	return nil
}

func (c *Canvas) Erase(target string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.figures, target)
}

// Figure returns the figure on target, if any.
func (c *Canvas) Figure(target string) (Figure, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fig, ok := c.figures[target]
	return fig, ok
}

// Figures returns a copy of all drawn figures keyed by target.
func (c *Canvas) Figures() map[string]Figure {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]Figure, len(c.figures))
	for k, v := range c.figures {
		out[k] = v
	}
	return out
}

// Targets lists drawn targets in name order.
func (c *Canvas) Targets() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	targets := make([]string, 0, len(c.figures))
	for k := range c.figures {
		targets = append(targets, k)
	}
	sort.Strings(targets)
	return targets
}

// Draws counts Draw calls since creation.
func (c *Canvas) Draws() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.draws
}

// Plots returns the drawn figures with the price chart ahead of the equity
// chart and any other target after them.
func (c *Canvas) Plots() []Plot {
	targets := orderTargets(c.Targets())
	plots := make([]Plot, 0, len(targets))
	for _, t := range targets {
		fig, _ := c.Figure(t)
		plots = append(plots, Plot{Target: t, Figure: fig})
	}
	return plots
}

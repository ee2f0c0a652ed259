package dashboard

import (
	"html/template"
	"sort"
	"strings"
	"sync"

	"github.com/newthinker/pulse/internal/core"
)

// Region names.
const (
	RegionSignals   = "signals"
	RegionSentiment = "sentiment"

	indicatorPrefix = "indicator:"
	pricePrefix     = "price:"
)

// RegionIndicator names the card of a market overview indicator.
func RegionIndicator(key string) string { return indicatorPrefix + key }

// RegionPrice names the price chart of symbol.
func RegionPrice(symbol string) string { return pricePrefix + symbol }

// Board holds the latest rendered fragment of every page region.
// Writers always replace a region whole; nothing is appended.
type Board struct {
	mu      sync.RWMutex
	regions map[string]template.HTML
}

// NewBoard creates a board with the given regions present.
func NewBoard(names ...string) *Board {
	b := &Board{regions: make(map[string]template.HTML, len(names))}
	for _, n := range names {
		b.regions[n] = ""
	}
	return b
}

// Register makes a region present. Existing content is kept.
func (b *Board) Register(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.regions[name]; !ok {
		b.regions[name] = ""
	}
}

// Remove drops a region; later writes to it are ignored.
func (b *Board) Remove(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.regions, name)
}

// Has reports whether the region is present.
func (b *Board) Has(name string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.regions[name]
	return ok
}

// Replace overwrites a present region. It returns false, changing nothing,
// when the region is absent.
func (b *Board) Replace(name string, html template.HTML) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.regions[name]; !ok {
		return false
	}
	b.regions[name] = html
	return true
}

// Get returns the region's current fragment.
func (b *Board) Get(name string) (template.HTML, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	html, ok := b.regions[name]
	if !ok {
		return "", core.WrapError(core.ErrRegionNotFound, nil)
	}
	return html, nil
}

// Names lists present regions in name order.
func (b *Board) Names() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	names := make([]string, 0, len(b.regions))
	for n := range b.regions {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// PriceSymbols lists the symbols that have a price chart region.
func (b *Board) PriceSymbols() []string {
	var symbols []string
	for _, n := range b.Names() {
		if sym, ok := strings.CutPrefix(n, pricePrefix); ok {
			symbols = append(symbols, sym)
		}
	}
	return symbols
}

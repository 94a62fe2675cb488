// Package platform hosts the exchange stream source implementations and the
// registry that maps a configuration identifier to one of them.
package platform

import (
	"fmt"
	"sort"

	"github.com/alanyoungcy/tradewatch/internal/domain"
	"github.com/alanyoungcy/tradewatch/internal/platform/binance"
	"github.com/alanyoungcy/tradewatch/internal/platform/gateio"
)

// sources is the fixed mapping from exchange identifier to source
// constructor. Resolution happens once at startup; an unknown identifier is
// a configuration error, not something to discover at stream time.
var sources = map[string]func() domain.StreamSource{
	"gateio":  func() domain.StreamSource { return gateio.NewSource() },
	"binance": func() domain.StreamSource { return binance.NewSource() },
}

// Resolve returns the stream source registered under name. It returns
// domain.ErrUnknownSource for identifiers that have no implementation.
func Resolve(name string) (domain.StreamSource, error) {
	ctor, ok := sources[name]
	if !ok {
		return nil, fmt.Errorf("platform: %q (valid: %v): %w", name, Names(), domain.ErrUnknownSource)
	}
	return ctor(), nil
}

// Names returns the registered exchange identifiers in sorted order.
func Names() []string {
	names := make([]string, 0, len(sources))
	for n := range sources {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

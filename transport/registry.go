// Package transport provides backend discovery: given a prioritized list of
// backend names it returns the first one that can be constructed, falling
// back to the always-available net/http backend.
package transport

import (
	"fmt"
	"sort"
	"sync"

	"github.com/gaborage/go-uniclient/client"
	"github.com/gaborage/go-uniclient/transport/fasthttpx"
	"github.com/gaborage/go-uniclient/transport/h2"
	"github.com/gaborage/go-uniclient/transport/nethttp"
)

// DefaultBackend is the guaranteed-always-available fallback.
const DefaultBackend = nethttp.Name

// Factory constructs a transport backend with its default options.
type Factory func() client.Transport

var (
	mu        sync.RWMutex
	factories = map[string]Factory{
		nethttp.Name:   func() client.Transport { return nethttp.New() },
		fasthttpx.Name: func() client.Transport { return fasthttpx.New() },
		h2.Name:        func() client.Transport { return h2.New() },
	}
)

// Register adds or replaces a backend factory under the given name,
// making external backends selectable by name.
func Register(name string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[name] = factory
}

// Names returns the registered backend names, sorted.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New constructs the named backend.
func New(name string) (client.Transport, error) {
	mu.RLock()
	factory, ok := factories[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown transport backend %q", name)
	}
	return factory(), nil
}

// Select returns the first available backend from the prioritized name list.
// The default backend is always appended as the final candidate, so Select
// never fails to produce a transport.
func Select(names ...string) client.Transport {
	for _, name := range names {
		if t, err := New(name); err == nil {
			return t
		}
	}
	t, _ := New(DefaultBackend)
	return t
}

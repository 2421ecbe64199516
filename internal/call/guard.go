package call

import (
	"sync/atomic"

	"github.com/emmaarthur191/coastal-project-sub004/internal/domain"
)

// resources is everything teardown releases. Fields are mutated under
// Manager.mu while the bundle is installed.
type resources struct {
	media   LocalMedia
	entries map[domain.UserID]*entry
}

// teardownGuard owns the resource bundle until teardown swaps it out.
// Only one caller ever receives the bundle.
type teardownGuard struct {
	p atomic.Pointer[resources]
}

func newTeardownGuard() *teardownGuard {
	g := &teardownGuard{}
	g.p.Store(&resources{entries: make(map[domain.UserID]*entry)})
	return g
}

// live returns the installed bundle, or nil once torn down.
func (g *teardownGuard) live() *resources { return g.p.Load() }

// take swaps the bundle out. It returns nil to every caller but the first.
func (g *teardownGuard) take() *resources { return g.p.Swap(nil) }

func (g *teardownGuard) done() bool { return g.p.Load() == nil }

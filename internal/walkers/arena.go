package walkers

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// DefaultMaxIdle is the number of idle walkers kept per walker kind
const DefaultMaxIdle = 32

type walkerKind uint8

const (
	kindScan walkerKind = iota
	kindAssigned
	kindReturn
	kindCount
)

var walkerKindNames = [...]string{
	kindScan:     "scan",
	kindAssigned: "assigned-value",
	kindReturn:   "return-value",
}

func (k walkerKind) String() string { return walkerKindNames[k] }

// Arena holds idle walkers between queries. Borrowing hands out an idle
// instance or constructs one; releasing resets it and keeps it for the next
// query unless MaxIdle instances of that kind are already idle.
//
// An Arena is safe for concurrent use. A borrowed walker is owned by one query
// until it is released. With Debug set, releasing a walker twice or using it
// after release panics; otherwise the misuse is ignored.
type Arena struct {
	MaxIdle int
	Debug   bool

	mu   sync.Mutex
	idle [kindCount][]pooledWalker

	allocations atomic.Int64
	reuses      atomic.Int64
}

// ArenaStats reports how often borrowing constructed a new walker
type ArenaStats struct {
	Allocations int64
	Reuses      int64
	Idle        int
}

// NewArena creates an arena keeping up to maxIdle walkers per kind;
// maxIdle <= 0 uses DefaultMaxIdle
func NewArena(maxIdle int, debug bool) *Arena {
	if maxIdle <= 0 {
		maxIdle = DefaultMaxIdle
	}
	return &Arena{MaxIdle: maxIdle, Debug: debug}
}

// Stats returns a snapshot of the allocation counters
func (a *Arena) Stats() ArenaStats {
	a.mu.Lock()
	idle := 0
	for _, list := range a.idle {
		idle += len(list)
	}
	a.mu.Unlock()
	return ArenaStats{Allocations: a.allocations.Load(), Reuses: a.reuses.Load(), Idle: idle}
}

func (a *Arena) maxIdle() int {
	if a.MaxIdle <= 0 {
		return DefaultMaxIdle
	}
	return a.MaxIdle
}

// pooledWalker is implemented by every walker the arena manages. reset must
// clear every field the walker mutates during a query.
type pooledWalker interface {
	pool() *pooled
	reset()
}

// pooled is the lifecycle state embedded in every walker
type pooled struct {
	arena *Arena
	kind  walkerKind
	live  bool
}

func (p *pooled) pool() *pooled { return p }

// check panics in debug mode when the walker is used after release
func (p *pooled) check() {
	if !p.live && p.arena != nil && p.arena.Debug {
		panic(fmt.Sprintf("walkers: %s walker used after release", p.kind))
	}
}

func borrow[W pooledWalker](a *Arena, kind walkerKind, construct func() W) W {
	var w W
	a.mu.Lock()
	list := a.idle[kind]
	if n := len(list); n > 0 {
		w = list[n-1].(W)
		list[n-1] = nil
		a.idle[kind] = list[:n-1]
		a.mu.Unlock()
		a.reuses.Add(1)
	} else {
		a.mu.Unlock()
		w = construct()
		a.allocations.Add(1)
	}
	p := w.pool()
	p.arena, p.kind, p.live = a, kind, true
	return w
}

func release(w pooledWalker) {
	p := w.pool()
	a := p.arena
	if a == nil {
		return
	}
	if !p.live {
		if a.Debug {
			panic(fmt.Sprintf("walkers: %s walker released twice", p.kind))
		}
		return
	}
	w.reset()
	p.live = false
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.idle[p.kind]) < a.maxIdle() {
		a.idle[p.kind] = append(a.idle[p.kind], w)
	}
}

package backend

import (
	"context"
	"sync"
	"sync/atomic"
)

// Pool holds a service's backend targets and idle sessions ready for reuse,
// and implements connect-with-retry across targets when one refuses a
// connection: a target that fails to connect is marked down and skipped by
// subsequent selections until it is next retried.
type Pool struct {
	mu      sync.Mutex
	targets []*Target
	down    map[string]bool // target name -> temporarily excluded
	next    atomic.Uint64   // round-robin cursor

	idle map[string][]*Session // target name -> idle sessions
}

// NewPool builds a Pool over targets, selected round-robin weighted by
// Target.Weight (Pound's default backend selection policy absent a
// configured hashing key).
func NewPool(targets []*Target) *Pool {
	return &Pool{
		targets: targets,
		down:    make(map[string]bool),
		idle:    make(map[string][]*Session),
	}
}

// Dial returns a live Session to some target in the pool, reusing a pooled
// idle session when one is available and not stale, or connecting a fresh
// one. On a connect failure it marks that target down for this call and
// retries the next candidate, continuing until a target succeeds or every
// target has been tried, matching Pound's get_backend/kill_be retry loop.
func (p *Pool) Dial(ctx context.Context) (*Session, error) {
	tried := make(map[string]bool)

	for {
		t := p.pick(tried)
		if t == nil {
			return nil, ErrAllBackendsDown
		}
		tried[t.Name] = true

		if s := p.takeIdle(t.Name); s != nil {
			if !s.Stale() {
				return s, nil
			}
			s.Close()
		}

		s, err := Connect(ctx, t)
		if err != nil {
			p.markDown(t.Name)
			continue
		}
		return s, nil
	}
}

// Release returns a session to the idle pool for reuse by a later Dial,
// or closes it if the caller determined it can't be reused (connection
// marked for close, backend sent Connection: close, etc).
func (p *Pool) Release(s *Session, reusable bool) {
	if !reusable {
		s.Close()
		return
	}
	p.mu.Lock()
	p.idle[s.target.Name] = append(p.idle[s.target.Name], s)
	p.mu.Unlock()
}

// Reset clears the down-marking so every target becomes eligible again;
// called periodically by the listener so a recovered backend is retried
// rather than excluded forever.
func (p *Pool) Reset() {
	p.mu.Lock()
	p.down = make(map[string]bool)
	p.mu.Unlock()
}

func (p *Pool) pick(tried map[string]bool) *Target {
	p.mu.Lock()
	defer p.mu.Unlock()

	var candidates []*Target
	for _, t := range p.targets {
		if p.down[t.Name] || tried[t.Name] {
			continue
		}
		candidates = append(candidates, t)
	}
	if len(candidates) == 0 {
		return nil
	}

	total := 0
	for _, t := range candidates {
		w := t.Weight
		if w <= 0 {
			w = 1
		}
		total += w
	}
	cursor := int(p.next.Add(1)-1) % total
	for _, t := range candidates {
		w := t.Weight
		if w <= 0 {
			w = 1
		}
		if cursor < w {
			return t
		}
		cursor -= w
	}
	return candidates[0]
}

func (p *Pool) takeIdle(name string) *Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	list := p.idle[name]
	if len(list) == 0 {
		return nil
	}
	s := list[len(list)-1]
	p.idle[name] = list[:len(list)-1]
	return s
}

func (p *Pool) markDown(name string) {
	p.mu.Lock()
	p.down[name] = true
	p.mu.Unlock()
}

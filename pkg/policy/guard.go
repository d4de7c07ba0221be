package policy

import "sync"

type buildSlot struct {
	build   sync.Mutex
	publish sync.Mutex
	gen     uint64
}

// BuildGuard coordinates the loads of one per-course artifact (facts document,
// fallback index). Builds of one course never overlap, and a build started
// before an invalidation is never published after it.
type BuildGuard struct {
	mu    sync.Mutex
	slots map[string]*buildSlot
}

func (g *BuildGuard) slot(slug string) *buildSlot {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.slots == nil {
		g.slots = map[string]*buildSlot{}
	}
	s, ok := g.slots[slug]
	if !ok {
		s = &buildSlot{}
		g.slots[slug] = s
	}
	return s
}

// Lock waits for any build of slug in flight and returns the generation the
// caller builds against. The caller must call unlock when done.
func (g *BuildGuard) Lock(slug string) (gen uint64, unlock func()) {
	s := g.slot(slug)
	s.build.Lock()
	s.publish.Lock()
	gen = s.gen
	s.publish.Unlock()
	return gen, s.build.Unlock
}

// Publish runs store only when no invalidation happened since gen was handed out.
func (g *BuildGuard) Publish(slug string, gen uint64, store func()) bool {
	s := g.slot(slug)
	s.publish.Lock()
	defer s.publish.Unlock()
	if s.gen != gen {
		return false
	}
	store()
	return true
}

// Invalidate bumps the generation of slug and runs drop. It does not wait for
// builds in flight; their results are discarded instead.
func (g *BuildGuard) Invalidate(slug string, drop func()) {
	s := g.slot(slug)
	s.publish.Lock()
	defer s.publish.Unlock()
	s.gen++
	drop()
}

package fallback

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"policylens-be/internal/pkg/logger"
	"policylens-be/pkg/policy"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"
)

var tracer = otel.Tracer("policylens/fallback")

// DocumentLoader reads the raw Markdown policy document of a course.
type DocumentLoader interface {
	LoadDocument(ctx context.Context, course policy.Course) ([]byte, error)
}

// Index is the immutable structural index of one policy document.
type Index struct {
	Course  string
	Source  string
	Version string
	Contact string
	Units   []Unit
	BuiltAt time.Time
}

// Match is an accepted fallback answer.
type Match struct {
	Unit       Unit
	Confidence float64
}

// Answer renders the matched unit as user-facing text.
func (m *Match) Answer() string {
	if m.Unit.Heading != "" {
		return fmt.Sprintf("From the course policy (%s): %s", m.Unit.Heading, m.Unit.Text)
	}
	return "From the course policy: " + m.Unit.Text
}

func (m *Match) Citation() policy.Citation {
	quote := m.Unit.Excerpt
	if quote == "" {
		quote = m.Unit.Text
	}
	return policy.Citation{Text: m.Unit.Text, Quote: quote, Source: m.Unit.Anchor}
}

// Searcher builds indexes lazily, caches them per course and serves searches.
// At most one build per course is in flight, whether lazy or a Refresh;
// concurrent lazy callers share it.
type Searcher struct {
	loader  DocumentLoader
	logger  logger.ILogger
	indexes *cache.Cache
	group   singleflight.Group
	guard   policy.BuildGuard
}

func NewSearcher(loader DocumentLoader, log logger.ILogger) *Searcher {
	return &Searcher{
		loader:  loader,
		logger:  log,
		indexes: cache.New(cache.NoExpiration, 0),
	}
}

// Search returns the best unit for the query and its confidence. The match is
// nil when nothing reaches the fallback floor.
func (s *Searcher) Search(ctx context.Context, intent policy.Intent, slots policy.Slots, course policy.Course) (*Match, float64, error) {
	ctx, span := tracer.Start(ctx, "fallback.search")
	defer span.End()
	span.SetAttributes(attribute.String("course", course.Slug), attribute.String("intent", string(intent)))

	idx, err := s.Index(ctx, course)
	if err != nil {
		return nil, 0, err
	}

	groups := keywordGroups(intent, slots)
	bestIdx, bestConf := -1, 0.0
	for i := range idx.Units {
		conf, hits := score(groups, idx.Units[i].tokens)
		if hits == 0 {
			continue
		}
		// strict comparison keeps the first unit on ties
		if conf > bestConf {
			bestIdx, bestConf = i, conf
		}
	}
	span.SetAttributes(attribute.Float64("confidence", bestConf))

	if bestIdx < 0 || !Accept(bestConf) {
		s.logger.Debug("FALLBACK", "No fallback unit above floor", map[string]interface{}{
			"course":     course.Slug,
			"intent":     intent,
			"confidence": bestConf,
		})
		return nil, bestConf, nil
	}
	return &Match{Unit: idx.Units[bestIdx], Confidence: bestConf}, bestConf, nil
}

// Contact returns the contact address found in the course policy document, or "".
func (s *Searcher) Contact(ctx context.Context, course policy.Course) string {
	idx, err := s.Index(ctx, course)
	if err != nil {
		return ""
	}
	return idx.Contact
}

// Index returns the cached index of course, building it when absent.
func (s *Searcher) Index(ctx context.Context, course policy.Course) (*Index, error) {
	if v, ok := s.indexes.Get(course.Slug); ok {
		return v.(*Index), nil
	}
	v, err, _ := s.group.Do(course.Slug, func() (interface{}, error) {
		gen, unlock := s.guard.Lock(course.Slug)
		defer unlock()
		// a Refresh may have published while this call waited
		if v, ok := s.indexes.Get(course.Slug); ok {
			return v, nil
		}
		data, err := s.loader.LoadDocument(ctx, course)
		if err != nil {
			return nil, err
		}
		idx := s.build(ctx, course, data)
		s.publish(course.Slug, gen, idx)
		return idx, nil
	})
	if err != nil {
		s.logger.Warn("FALLBACK", "Index build failed, fallback unavailable", map[string]interface{}{
			"course": course.Slug,
			"error":  err.Error(),
		})
		return nil, &policy.IndexBuildError{Course: course.Slug, Err: err}
	}
	return v.(*Index), nil
}

// Refresh re-reads the document and rebuilds only when its hash changed.
func (s *Searcher) Refresh(ctx context.Context, course policy.Course) (bool, error) {
	gen, unlock := s.guard.Lock(course.Slug)
	defer unlock()

	data, err := s.loader.LoadDocument(ctx, course)
	if err != nil {
		s.Invalidate(course.Slug)
		return false, &policy.IndexBuildError{Course: course.Slug, Err: err}
	}
	if cur, ok := s.indexes.Get(course.Slug); ok && cur.(*Index).Version == version(data) {
		return false, nil
	}
	s.publish(course.Slug, gen, s.build(ctx, course, data))
	return true, nil
}

// Invalidate drops the cached index; the next search rebuilds it. A build
// already in flight is not cached.
func (s *Searcher) Invalidate(slug string) {
	s.guard.Invalidate(slug, func() { s.indexes.Delete(slug) })
}

func (s *Searcher) publish(slug string, gen uint64, idx *Index) {
	if !s.guard.Publish(slug, gen, func() { s.indexes.Set(slug, idx, cache.NoExpiration) }) {
		s.logger.Debug("FALLBACK", "Discarded index built before invalidation", map[string]interface{}{"course": slug})
	}
}

func (s *Searcher) build(ctx context.Context, course policy.Course, data []byte) *Index {
	_, span := tracer.Start(ctx, "fallback.build")
	defer span.End()

	started := time.Now()
	source := course.DocumentName()
	if source == "" {
		source = course.Slug + "_rules.md"
	}
	idx := &Index{
		Course:  course.Slug,
		Source:  source,
		Version: version(data),
		Contact: ExtractContact(data),
		Units:   Extract(data, source),
		BuiltAt: time.Now(),
	}
	span.SetAttributes(attribute.Int("units", len(idx.Units)))

	s.logger.Info("FALLBACK", "Policy document indexed", map[string]interface{}{
		"course":   course.Slug,
		"units":    len(idx.Units),
		"version":  idx.Version[:12],
		"contact":  idx.Contact != "",
		"duration": time.Since(started).String(),
	})
	return idx
}

// Stats summarizes the units of an index by kind.
func (idx *Index) Stats() map[string]int {
	out := map[string]int{}
	for _, u := range idx.Units {
		out[string(u.Kind)]++
	}
	return out
}

func version(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

package facts

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"policylens-be/internal/pkg/logger"
	"policylens-be/pkg/policy"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// Loader reads the raw facts document of a course.
type Loader interface {
	LoadFacts(ctx context.Context, course policy.Course) ([]byte, error)
}

// Store serves structured lookups over per-course facts documents.
// Documents are loaded on first use and replaced only by Refresh or Invalidate.
type Store struct {
	loader Loader
	logger logger.ILogger
	docs   *cache.Cache
	group  singleflight.Group
	guard  policy.BuildGuard
}

func NewStore(loader Loader, log logger.ILogger) *Store {
	return &Store{
		loader: loader,
		logger: log,
		docs:   cache.New(cache.NoExpiration, 0),
	}
}

// Lookup returns the records for intent matching slots, best match first.
// An empty result means no structured answer; *policy.LookupError means the
// document itself is unavailable.
func (s *Store) Lookup(ctx context.Context, intent policy.Intent, slots policy.Slots, course policy.Course) ([]policy.FactRecord, error) {
	doc, err := s.Document(ctx, course)
	if err != nil {
		return nil, err
	}
	if !intent.IsFactual() {
		return []policy.FactRecord{}, nil
	}
	return Match(doc.Records(intent), slots), nil
}

// Document returns the cached document of course, loading it if needed.
func (s *Store) Document(ctx context.Context, course policy.Course) (*Document, error) {
	if v, ok := s.docs.Get(course.Slug); ok {
		return v.(*Document), nil
	}

	v, err, _ := s.group.Do(course.Slug, func() (interface{}, error) {
		gen, unlock := s.guard.Lock(course.Slug)
		defer unlock()
		if v, ok := s.docs.Get(course.Slug); ok {
			return v, nil
		}
		data, err := s.loader.LoadFacts(ctx, course)
		if err != nil {
			return nil, err
		}
		doc, err := ParseDocument(data)
		if err != nil {
			return nil, err
		}
		s.publish(course, gen, doc)
		return doc, nil
	})
	if err != nil {
		s.logger.Error("FACTS", "Failed to load facts document", map[string]interface{}{
			"course": course.Slug,
			"error":  err.Error(),
		})
		return nil, &policy.LookupError{Course: course.Slug, Err: err}
	}
	return v.(*Document), nil
}

// Refresh re-reads the document and swaps it in when its content changed.
// It waits for any load of the same course in flight.
func (s *Store) Refresh(ctx context.Context, course policy.Course) (bool, error) {
	gen, unlock := s.guard.Lock(course.Slug)
	defer unlock()

	doc, changed, err := s.reread(ctx, course)
	if err != nil {
		s.Invalidate(course.Slug)
		return false, &policy.LookupError{Course: course.Slug, Err: err}
	}
	if changed {
		s.publish(course, gen, doc)
	}
	return changed, nil
}

func (s *Store) reread(ctx context.Context, course policy.Course) (*Document, bool, error) {
	data, err := s.loader.LoadFacts(ctx, course)
	if err != nil {
		return nil, false, err
	}
	sum := sha256.Sum256(data)
	if cur, ok := s.docs.Get(course.Slug); ok && cur.(*Document).Version == hex.EncodeToString(sum[:]) {
		return nil, false, nil
	}
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, false, err
	}
	return doc, true, nil
}

// Invalidate drops the cached document; the next lookup reloads it. A load
// already in flight is not cached.
func (s *Store) Invalidate(slug string) {
	s.guard.Invalidate(slug, func() { s.docs.Delete(slug) })
}

func (s *Store) publish(course policy.Course, gen uint64, doc *Document) {
	if !s.guard.Publish(course.Slug, gen, func() { s.docs.Set(course.Slug, doc, cache.NoExpiration) }) {
		s.logger.Debug("FACTS", "Discarded document loaded before invalidation", map[string]interface{}{"course": course.Slug})
		return
	}
	s.logger.Info("FACTS", "Facts document loaded", map[string]interface{}{
		"course":  course.Slug,
		"version": doc.Version[:12],
		"records": doc.Counts(),
		"dropped": doc.Dropped,
	})
	if doc.Dropped > 0 {
		s.logger.Warn("FACTS", "Dropped records without source", map[string]interface{}{
			"course":  course.Slug,
			"dropped": doc.Dropped,
		})
	}
}

// IsLookupError reports whether err is a facts document failure.
func IsLookupError(err error) bool {
	var le *policy.LookupError
	return errors.As(err, &le)
}

package service

import (
	"context"
	"errors"
	"time"

	"policylens-be/internal/dto"
	"policylens-be/internal/pkg/logger"
	"policylens-be/pkg/calendar"
	"policylens-be/pkg/policy"
	"policylens-be/pkg/policy/course"
	"policylens-be/pkg/policy/facts"
	"policylens-be/pkg/policy/fallback"

	"golang.org/x/sync/errgroup"
)

type CalendarOptions struct {
	Year     int
	Location *time.Location
}

type ICourseService interface {
	List(ctx context.Context) []*dto.CourseResponse
	Calendar(ctx context.Context, selector string) ([]byte, policy.Course, error)
	IndexStats(ctx context.Context, selector string) (*dto.IndexStatsResponse, error)
	Reload(ctx context.Context, selector string) (*dto.ReloadResponse, error)
	ReloadAll(ctx context.Context) ([]*dto.ReloadResponse, error)
	ReloadPath(ctx context.Context, path string) (*dto.ReloadResponse, error)
	Warmup(ctx context.Context) error
}

type courseService struct {
	registry *course.Registry
	store    *facts.Store
	searcher *fallback.Searcher
	calendar CalendarOptions
	logger   logger.ILogger
}

func NewCourseService(registry *course.Registry, store *facts.Store, searcher *fallback.Searcher, cal CalendarOptions, log logger.ILogger) ICourseService {
	if cal.Location == nil {
		cal.Location = time.UTC
	}
	if cal.Year == 0 {
		cal.Year = time.Now().Year()
	}
	return &courseService{
		registry: registry,
		store:    store,
		searcher: searcher,
		calendar: cal,
		logger:   log,
	}
}

func (s *courseService) List(ctx context.Context) []*dto.CourseResponse {
	defaultSlug := s.registry.Default()
	courses := s.registry.List()

	res := make([]*dto.CourseResponse, 0, len(courses))
	for _, c := range courses {
		item := &dto.CourseResponse{
			Slug:        c.Slug,
			Name:        c.Name,
			Default:     c.Slug == defaultSlug,
			HasFacts:    c.FactsPath != "",
			HasDocument: c.DocumentPath != "",
		}
		if doc, err := s.store.Document(ctx, c); err == nil {
			item.Records = doc.Counts()
			item.Version = doc.Version
		}
		res = append(res, item)
	}
	return res
}

// Calendar renders the course's due dates as an iCalendar file.
func (s *courseService) Calendar(ctx context.Context, selector string) ([]byte, policy.Course, error) {
	c, err := s.registry.Resolve(selector)
	if err != nil {
		return nil, policy.Course{}, err
	}

	doc, err := s.store.Document(ctx, c)
	if err != nil {
		return nil, c, err
	}

	records := doc.Records(policy.IntentDueDate)
	entries := make([]calendar.Entry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, calendar.Entry{
			Assessment:  rec.Get(policy.FieldAssessment),
			DueDate:     rec.Get(policy.FieldDueDate),
			WhereFind:   rec.Get(policy.FieldWhereFind),
			WhereSubmit: rec.Get(policy.FieldWhereSubmit),
		})
	}

	ics := calendar.Generate(entries, calendar.Options{
		CourseName: c.Name,
		Year:       s.calendar.Year,
		Location:   s.calendar.Location,
	})
	return ics, c, nil
}

func (s *courseService) IndexStats(ctx context.Context, selector string) (*dto.IndexStatsResponse, error) {
	c, err := s.registry.Resolve(selector)
	if err != nil {
		return nil, err
	}
	idx, err := s.searcher.Index(ctx, c)
	if err != nil {
		return nil, err
	}
	return &dto.IndexStatsResponse{
		Course:  c.Slug,
		Source:  idx.Source,
		Version: idx.Version,
		Contact: idx.Contact,
		Units:   idx.Stats(),
		BuiltAt: idx.BuiltAt,
	}, nil
}

// Reload refreshes the facts document and fallback index of one course.
// Content-identical files leave the caches untouched.
func (s *courseService) Reload(ctx context.Context, selector string) (*dto.ReloadResponse, error) {
	c, err := s.registry.Resolve(selector)
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, c), nil
}

func (s *courseService) reload(ctx context.Context, c policy.Course) *dto.ReloadResponse {
	res := &dto.ReloadResponse{Course: c.Slug}

	if c.FactsPath != "" {
		changed, err := s.store.Refresh(ctx, c)
		res.FactsChanged = changed
		if err != nil {
			res.FactsError = err.Error()
		}
	} else {
		s.store.Invalidate(c.Slug)
	}

	if c.DocumentPath != "" {
		changed, err := s.searcher.Refresh(ctx, c)
		res.IndexChanged = changed
		if err != nil {
			res.IndexError = err.Error()
		}
	} else {
		s.searcher.Invalidate(c.Slug)
	}

	s.logger.Info("COURSE", "Course reloaded", map[string]interface{}{
		"course":        c.Slug,
		"facts_changed": res.FactsChanged,
		"index_changed": res.IndexChanged,
		"facts_error":   res.FactsError,
		"index_error":   res.IndexError,
	})
	return res
}

func (s *courseService) ReloadAll(ctx context.Context) ([]*dto.ReloadResponse, error) {
	if err := s.registry.Rescan(); err != nil {
		return nil, err
	}

	courses := s.registry.List()
	res := make([]*dto.ReloadResponse, len(courses))
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range courses {
		g.Go(func() error {
			res[i] = s.reload(gctx, c)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}

// ReloadPath reloads the course owning a changed file. Unknown paths trigger
// a rescan so newly added courses are picked up.
func (s *courseService) ReloadPath(ctx context.Context, path string) (*dto.ReloadResponse, error) {
	c, ok := s.registry.ByPath(path)
	if !ok {
		if err := s.registry.Rescan(); err != nil {
			return nil, err
		}
		if c, ok = s.registry.ByPath(path); !ok {
			return nil, policy.ErrCourseNotFound
		}
	}
	return s.reload(ctx, c), nil
}

// Warmup loads every course's facts and index so the first query is not slow.
// Per-course failures are logged; they do not stop startup.
func (s *courseService) Warmup(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, c := range s.registry.List() {
		g.Go(func() error {
			if _, err := s.store.Document(gctx, c); err != nil && !errors.Is(err, context.Canceled) {
				s.logger.Warn("COURSE", "Facts warmup failed", map[string]interface{}{"course": c.Slug, "error": err.Error()})
			}
			if c.DocumentPath != "" {
				if _, err := s.searcher.Index(gctx, c); err != nil {
					s.logger.Warn("COURSE", "Index warmup failed", map[string]interface{}{"course": c.Slug, "error": err.Error()})
				}
			}
			return nil
		})
	}
	return g.Wait()
}

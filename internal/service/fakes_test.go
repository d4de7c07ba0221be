package service

import (
	"context"
	"sync"
	"time"

	"policylens-be/internal/dto"
	"policylens-be/internal/entity"
	"policylens-be/internal/repository/contract"
	"policylens-be/internal/repository/specification"
	"policylens-be/internal/repository/unitofwork"
	"policylens-be/pkg/events"
	"policylens-be/pkg/policy"
	"policylens-be/pkg/policy/composer"
)

type fakeResolver struct {
	result *policy.QueryResult
	err    error
	got    composer.Request
}

func (f *fakeResolver) Resolve(ctx context.Context, req composer.Request) (*policy.QueryResult, error) {
	f.got = req
	return f.result, f.err
}

type publishedOutcome struct {
	queryId  string
	question string
	refused  bool
}

type fakeOutcomePublisher struct {
	outcomes []publishedOutcome
	changes  []events.DocumentChanged
}

func (f *fakeOutcomePublisher) PublishQueryOutcome(ctx context.Context, queryId string, question string, result *policy.QueryResult, latency time.Duration) {
	f.outcomes = append(f.outcomes, publishedOutcome{queryId: queryId, question: question, refused: result.Refused})
}

func (f *fakeOutcomePublisher) PublishDocumentChanged(ctx context.Context, dc events.DocumentChanged) {
	f.changes = append(f.changes, dc)
}

type fakeQueryLogRepo struct {
	mu        sync.Mutex
	created   []*entity.QueryLog
	createErr error
	logs      []*entity.QueryLog
	specs     [][]specification.Specification
	counts    []int64
	byIntent  map[string]int64
}

func (f *fakeQueryLogRepo) Create(ctx context.Context, log *entity.QueryLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, log)
	return nil
}

func (f *fakeQueryLogRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.QueryLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.specs = append(f.specs, specs)
	return f.logs, nil
}

func (f *fakeQueryLogRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.specs = append(f.specs, specs)
	if len(f.counts) == 0 {
		return 0, nil
	}
	n := f.counts[0]
	f.counts = f.counts[1:]
	return n, nil
}

func (f *fakeQueryLogRepo) CountByIntent(ctx context.Context, specs ...specification.Specification) (map[string]int64, error) {
	return f.byIntent, nil
}

type fakeUnitOfWork struct {
	repo *fakeQueryLogRepo
}

func (u *fakeUnitOfWork) Begin(ctx context.Context) error { return nil }
func (u *fakeUnitOfWork) Commit() error                  { return nil }
func (u *fakeUnitOfWork) Rollback() error                { return nil }

func (u *fakeUnitOfWork) QueryLogRepository() contract.QueryLogRepository {
	return u.repo
}

type fakeFactory struct {
	repo *fakeQueryLogRepo
}

func (f *fakeFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &fakeUnitOfWork{repo: f.repo}
}

type fakeCourseService struct {
	mu       sync.Mutex
	calls    []string
	err      error
	reloaded []*dto.ReloadResponse
}

func (f *fakeCourseService) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeCourseService) snapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeCourseService) List(ctx context.Context) []*dto.CourseResponse { return nil }

func (f *fakeCourseService) Calendar(ctx context.Context, selector string) ([]byte, policy.Course, error) {
	return nil, policy.Course{}, nil
}

func (f *fakeCourseService) IndexStats(ctx context.Context, selector string) (*dto.IndexStatsResponse, error) {
	return nil, nil
}

func (f *fakeCourseService) Reload(ctx context.Context, selector string) (*dto.ReloadResponse, error) {
	f.record("reload:" + selector)
	if f.err != nil {
		return nil, f.err
	}
	return &dto.ReloadResponse{Course: selector}, nil
}

func (f *fakeCourseService) ReloadAll(ctx context.Context) ([]*dto.ReloadResponse, error) {
	f.record("reload_all")
	if f.err != nil {
		return nil, f.err
	}
	return f.reloaded, nil
}

func (f *fakeCourseService) ReloadPath(ctx context.Context, path string) (*dto.ReloadResponse, error) {
	f.record("reload_path:" + path)
	if f.err != nil {
		return nil, f.err
	}
	return &dto.ReloadResponse{}, nil
}

func (f *fakeCourseService) Warmup(ctx context.Context) error { return nil }

type fakeCluster struct {
	mu        sync.Mutex
	announced []events.DocumentChanged
}

func (f *fakeCluster) AnnounceReload(ctx context.Context, dc events.DocumentChanged) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.announced = append(f.announced, dc)
}

func (f *fakeCluster) snapshot() []events.DocumentChanged {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]events.DocumentChanged(nil), f.announced...)
}

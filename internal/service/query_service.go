package service

import (
	"context"
	"errors"
	"time"

	"policylens-be/internal/dto"
	"policylens-be/internal/entity"
	"policylens-be/internal/pkg/logger"
	"policylens-be/internal/repository/specification"
	"policylens-be/internal/repository/unitofwork"
	"policylens-be/pkg/policy"
	"policylens-be/pkg/policy/composer"
	policyEvents "policylens-be/pkg/policy/events"

	"github.com/google/uuid"
)

var ErrHistoryUnavailable = errors.New("query history requires a database connection")

// Resolver is the part of the composer the query service drives.
type Resolver interface {
	Resolve(ctx context.Context, req composer.Request) (*policy.QueryResult, error)
}

type IQueryService interface {
	Ask(ctx context.Context, req *dto.QueryRequest) (*dto.QueryResponse, error)
	Stream(ctx context.Context, req *dto.QueryRequest) (<-chan policy.StreamEvent, error)
	History(ctx context.Context, req *dto.QueryHistoryRequest) ([]*dto.QueryLogResponse, error)
	Stats(ctx context.Context, course string) (*dto.QueryStatsResponse, error)
}

type queryService struct {
	resolver   Resolver
	publisher  policyEvents.Publisher
	uowFactory unitofwork.RepositoryFactory
	logger     logger.ILogger
}

// NewQueryService accepts a nil uowFactory; queries are then not persisted.
func NewQueryService(resolver Resolver, publisher policyEvents.Publisher, uowFactory unitofwork.RepositoryFactory, log logger.ILogger) IQueryService {
	return &queryService{
		resolver:   resolver,
		publisher:  publisher,
		uowFactory: uowFactory,
		logger:     log,
	}
}

func (s *queryService) Ask(ctx context.Context, req *dto.QueryRequest) (*dto.QueryResponse, error) {
	id, result, err := s.resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	return toQueryResponse(id, result), nil
}

func (s *queryService) Stream(ctx context.Context, req *dto.QueryRequest) (<-chan policy.StreamEvent, error) {
	_, result, err := s.resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	return composer.Emit(ctx, result), nil
}

func (s *queryService) resolve(ctx context.Context, req *dto.QueryRequest) (uuid.UUID, *policy.QueryResult, error) {
	started := time.Now()
	result, err := s.resolver.Resolve(ctx, composer.Request{Question: req.Question, Course: req.Course})
	if err != nil {
		return uuid.Nil, nil, err
	}
	latency := time.Since(started)

	id := uuid.New()
	s.publisher.PublishQueryOutcome(ctx, id.String(), req.Question, result, latency)
	s.record(ctx, id, req.Question, result, latency)
	return id, result, nil
}

// record persists the outcome; failures are logged and never reach the caller.
func (s *queryService) record(ctx context.Context, id uuid.UUID, question string, result *policy.QueryResult, latency time.Duration) {
	if s.uowFactory == nil {
		return
	}

	sources := make([]string, 0, len(result.Citations))
	for _, c := range result.Citations {
		sources = append(sources, c.Source)
	}

	entry := &entity.QueryLog{
		Id:          id,
		Course:      result.Course,
		Question:    question,
		Intent:      string(result.Intent),
		Slots:       map[string]string(result.SlotsUsed),
		Answer:      result.Answer,
		Sources:     sources,
		Refused:     result.Refused,
		RefusalCode: string(result.RefusalCode),
		LatencyMs:   latency.Milliseconds(),
		CreatedAt:   time.Now(),
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.QueryLogRepository().Create(context.WithoutCancel(ctx), entry); err != nil {
		s.logger.Error("QUERY", "Failed to persist query log", map[string]interface{}{
			"query_id": id.String(),
			"error":    err.Error(),
		})
	}
}

func (s *queryService) History(ctx context.Context, req *dto.QueryHistoryRequest) ([]*dto.QueryLogResponse, error) {
	if s.uowFactory == nil {
		return nil, ErrHistoryUnavailable
	}

	page, limit := req.Page, req.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	specs := []specification.Specification{specification.ByCourse{Course: req.Course}}
	if req.Refused != nil {
		specs = append(specs, specification.ByRefused{Refused: *req.Refused})
	}
	specs = append(specs,
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: (page - 1) * limit},
	)

	uow := s.uowFactory.NewUnitOfWork(ctx)
	logs, err := uow.QueryLogRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.QueryLogResponse, 0, len(logs))
	for _, l := range logs {
		res = append(res, &dto.QueryLogResponse{
			Id:          l.Id,
			Course:      l.Course,
			Question:    l.Question,
			Intent:      l.Intent,
			Slots:       l.Slots,
			Refused:     l.Refused,
			RefusalCode: l.RefusalCode,
			Sources:     l.Sources,
			LatencyMs:   l.LatencyMs,
			CreatedAt:   l.CreatedAt,
		})
	}
	return res, nil
}

func (s *queryService) Stats(ctx context.Context, course string) (*dto.QueryStatsResponse, error) {
	if s.uowFactory == nil {
		return nil, ErrHistoryUnavailable
	}

	repo := s.uowFactory.NewUnitOfWork(ctx).QueryLogRepository()
	byCourse := specification.ByCourse{Course: course}

	total, err := repo.Count(ctx, byCourse)
	if err != nil {
		return nil, err
	}
	refused, err := repo.Count(ctx, byCourse, specification.ByRefused{Refused: true})
	if err != nil {
		return nil, err
	}
	byIntent, err := repo.CountByIntent(ctx, byCourse)
	if err != nil {
		return nil, err
	}

	return &dto.QueryStatsResponse{
		Course:   course,
		Total:    total,
		Refused:  refused,
		ByIntent: byIntent,
	}, nil
}

func toQueryResponse(id uuid.UUID, result *policy.QueryResult) *dto.QueryResponse {
	citations := make([]dto.CitationResponse, 0, len(result.Citations))
	for _, c := range result.Citations {
		citations = append(citations, dto.CitationResponse{Text: c.Text, Quote: c.Quote, Source: c.Source})
	}
	slots := map[string]string(result.SlotsUsed)
	if slots == nil {
		slots = map[string]string{}
	}
	return &dto.QueryResponse{
		QueryId:       id,
		Answer:        result.Answer,
		Citations:     citations,
		Intent:        string(result.Intent),
		SlotsUsed:     slots,
		Refused:       result.Refused,
		RefusalReason: result.RefusalReason,
		RefusalCode:   string(result.RefusalCode),
		Course:        result.Course,
	}
}

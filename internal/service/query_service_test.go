package service

import (
	"context"
	"errors"
	"testing"

	"policylens-be/internal/dto"
	"policylens-be/internal/entity"
	"policylens-be/internal/pkg/logger"
	"policylens-be/internal/repository/specification"
	"policylens-be/pkg/policy"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func answeredResult() *policy.QueryResult {
	return &policy.QueryResult{
		Answer:    "Homework 1 is due Jan 12.",
		Citations: []policy.Citation{{Text: "Jan 12", Quote: "HW1 due Jan 12", Source: "syllabus.md#due"}},
		Intent:    policy.IntentDueDate,
		SlotsUsed: policy.Slots{policy.SlotAssessment: "hw1"},
		Course:    "CPSC 110",
	}
}

func TestQueryServiceAsk(t *testing.T) {
	resolver := &fakeResolver{result: answeredResult()}
	pub := &fakeOutcomePublisher{}
	repo := &fakeQueryLogRepo{}
	svc := NewQueryService(resolver, pub, &fakeFactory{repo: repo}, logger.NewNopLogger())

	res, err := svc.Ask(context.Background(), &dto.QueryRequest{Question: "When is hw1 due?", Course: "cpsc110"})
	require.NoError(t, err)

	assert.Equal(t, "cpsc110", resolver.got.Course)
	assert.NotEqual(t, uuid.Nil, res.QueryId)
	assert.Equal(t, "Homework 1 is due Jan 12.", res.Answer)
	assert.Equal(t, []dto.CitationResponse{{Text: "Jan 12", Quote: "HW1 due Jan 12", Source: "syllabus.md#due"}}, res.Citations)
	assert.Equal(t, map[string]string{"assessment": "hw1"}, res.SlotsUsed)
	assert.Equal(t, "due_date", res.Intent)

	require.Len(t, pub.outcomes, 1)
	assert.Equal(t, res.QueryId.String(), pub.outcomes[0].queryId)

	require.Len(t, repo.created, 1)
	logged := repo.created[0]
	assert.Equal(t, res.QueryId, logged.Id)
	assert.Equal(t, []string{"syllabus.md#due"}, logged.Sources)
	assert.False(t, logged.Refused)
}

func TestQueryServiceAskRefusedWithoutDatabase(t *testing.T) {
	resolver := &fakeResolver{result: &policy.QueryResult{
		Answer:      "I couldn't find that in the course materials.",
		Citations:   []policy.Citation{},
		Intent:      policy.IntentOutOfScope,
		Refused:     true,
		RefusalCode: policy.RefusalOutOfScope,
	}}
	pub := &fakeOutcomePublisher{}
	svc := NewQueryService(resolver, pub, nil, logger.NewNopLogger())

	res, err := svc.Ask(context.Background(), &dto.QueryRequest{Question: "weather?"})
	require.NoError(t, err)
	assert.True(t, res.Refused)
	assert.Equal(t, "out_of_scope", res.RefusalCode)
	assert.NotNil(t, res.Citations)
	assert.Empty(t, res.Citations)
	assert.Equal(t, map[string]string{}, res.SlotsUsed)
	require.Len(t, pub.outcomes, 1)
	assert.True(t, pub.outcomes[0].refused)
}

func TestQueryServicePersistFailureIsSwallowed(t *testing.T) {
	repo := &fakeQueryLogRepo{createErr: errors.New("db down")}
	svc := NewQueryService(&fakeResolver{result: answeredResult()}, &fakeOutcomePublisher{}, &fakeFactory{repo: repo}, logger.NewNopLogger())

	res, err := svc.Ask(context.Background(), &dto.QueryRequest{Question: "When is hw1 due?"})
	require.NoError(t, err)
	assert.False(t, res.Refused)
}

func TestQueryServiceAskUnknownCourse(t *testing.T) {
	pub := &fakeOutcomePublisher{}
	svc := NewQueryService(&fakeResolver{err: policy.ErrCourseNotFound}, pub, nil, logger.NewNopLogger())

	_, err := svc.Ask(context.Background(), &dto.QueryRequest{Question: "hi", Course: "math100"})
	assert.ErrorIs(t, err, policy.ErrCourseNotFound)
	assert.Empty(t, pub.outcomes)
}

func TestQueryServiceStream(t *testing.T) {
	svc := NewQueryService(&fakeResolver{result: answeredResult()}, &fakeOutcomePublisher{}, nil, logger.NewNopLogger())

	ch, err := svc.Stream(context.Background(), &dto.QueryRequest{Question: "When is hw1 due?"})
	require.NoError(t, err)

	var types []string
	var answer string
	for ev := range ch {
		types = append(types, ev.Type)
		answer += ev.Content
	}
	assert.Equal(t, "Homework 1 is due Jan 12.", answer)
	assert.Equal(t, policy.EventDone, types[len(types)-1])
	assert.Equal(t, policy.EventCitations, types[len(types)-2])
}

func TestQueryServiceHistory(t *testing.T) {
	refused := true
	repo := &fakeQueryLogRepo{logs: []*entity.QueryLog{{Id: uuid.New(), Course: "CPSC 110", Question: "q", Refused: true}}}
	svc := NewQueryService(&fakeResolver{}, &fakeOutcomePublisher{}, &fakeFactory{repo: repo}, logger.NewNopLogger())

	res, err := svc.History(context.Background(), &dto.QueryHistoryRequest{Course: "cpsc110", Refused: &refused, Page: 3, Limit: 500})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "q", res[0].Question)

	require.Len(t, repo.specs, 1)
	assert.Equal(t, []specification.Specification{
		specification.ByCourse{Course: "cpsc110"},
		specification.ByRefused{Refused: true},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: 20, Offset: 40},
	}, repo.specs[0])
}

func TestQueryServiceStats(t *testing.T) {
	repo := &fakeQueryLogRepo{counts: []int64{10, 3}, byIntent: map[string]int64{"due_date": 7, "out_of_scope": 3}}
	svc := NewQueryService(&fakeResolver{}, &fakeOutcomePublisher{}, &fakeFactory{repo: repo}, logger.NewNopLogger())

	res, err := svc.Stats(context.Background(), "cpsc110")
	require.NoError(t, err)
	assert.Equal(t, &dto.QueryStatsResponse{
		Course:   "cpsc110",
		Total:    10,
		Refused:  3,
		ByIntent: map[string]int64{"due_date": 7, "out_of_scope": 3},
	}, res)
}

func TestQueryServiceHistoryWithoutDatabase(t *testing.T) {
	svc := NewQueryService(&fakeResolver{}, &fakeOutcomePublisher{}, nil, logger.NewNopLogger())

	_, err := svc.History(context.Background(), &dto.QueryHistoryRequest{})
	assert.ErrorIs(t, err, ErrHistoryUnavailable)
	_, err = svc.Stats(context.Background(), "")
	assert.ErrorIs(t, err, ErrHistoryUnavailable)
}

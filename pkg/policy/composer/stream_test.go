package composer

import (
	"context"
	"strings"
	"testing"

	"policylens-be/pkg/policy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestChunks(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"word", []string{"word"}},
		{"a  b\nc", []string{"a  ", "b\n", "c"}},
		{" lead trail ", []string{" lead ", "trail "}},
		{"Deliverable due dates:\nHW1: Jan 12", []string{"Deliverable ", "due ", "dates:\n", "HW1: ", "Jan ", "12"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Chunks(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, strings.Join(got, ""))
		})
	}
}

func collect(ch <-chan policy.StreamEvent) []policy.StreamEvent {
	var out []policy.StreamEvent
	for ev := range ch {
		out = append(out, ev)
	}
	return out
}

func TestStream(t *testing.T) {
	defer goleak.VerifyNone(t)

	hw1 := record(t, policy.KindDueDate, map[string]string{
		policy.FieldAssessment: "Homework 1",
		policy.FieldDueDate:    "Jan 12",
	}, "HW1 is due Jan 12")
	fx := newFixture(
		classified(policy.IntentDueDate, policy.Slots{policy.SlotAssessment: "hw1"}, 0.9),
		&fakeFacts{records: []policy.FactRecord{hw1}},
		&fakeFallback{},
	)
	req := Request{Question: "When is hw1 due?", Course: "cpsc110"}

	want, err := fx.composer.Resolve(context.Background(), req)
	require.NoError(t, err)

	ch, err := fx.composer.Stream(context.Background(), req)
	require.NoError(t, err)
	events := collect(ch)
	require.GreaterOrEqual(t, len(events), 3)

	var answer strings.Builder
	for _, ev := range events[:len(events)-2] {
		assert.Equal(t, policy.EventChunk, ev.Type)
		answer.WriteString(ev.Content)
	}
	assert.Equal(t, want.Answer, answer.String())

	citations := events[len(events)-2]
	assert.Equal(t, policy.EventCitations, citations.Type)
	assert.Equal(t, want.Citations, citations.Citations)

	done := events[len(events)-1]
	assert.Equal(t, policy.EventDone, done.Type)
	assert.Equal(t, policy.IntentDueDate, done.Intent)
	assert.False(t, done.Refused)
}

func TestStreamUnknownCourse(t *testing.T) {
	fx := newFixture(classified(policy.IntentDueDate, nil, 1), &fakeFacts{}, &fakeFallback{})
	ch, err := fx.composer.Stream(context.Background(), Request{Question: "hi", Course: "nope"})
	assert.ErrorIs(t, err, policy.ErrCourseNotFound)
	assert.Nil(t, ch)
}

func TestEmitStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	result := &policy.QueryResult{Answer: strings.Repeat("word ", 100), Citations: []policy.Citation{}}
	ctx, cancel := context.WithCancel(context.Background())

	ch := Emit(ctx, result)
	first := <-ch
	assert.Equal(t, "word ", first.Content)
	cancel()

	remaining := collect(ch)
	assert.Less(t, len(remaining), 101, "emission stops before the full stream")
}

func TestEventsRefused(t *testing.T) {
	result := &policy.QueryResult{
		Answer:    "I couldn't find that.",
		Citations: []policy.Citation{},
		Intent:    policy.IntentOutOfScope,
		Refused:   true,
	}
	events := Events(result)
	require.Len(t, events, 6)

	data, err := events[4].MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"citations","citations":[]}`, string(data))

	data, err = events[5].MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"done","intent":"out_of_scope","slots_used":{},"refused":true}`, string(data))
}

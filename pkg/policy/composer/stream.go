package composer

import (
	"context"
	"unicode"

	"policylens-be/pkg/policy"
)

// Stream resolves the query and pushes its answer as events: word-sized
// chunks, one citations event, one done event. Emission stops when ctx is done.
func (c *Composer) Stream(ctx context.Context, req Request) (<-chan policy.StreamEvent, error) {
	result, err := c.Resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	return Emit(ctx, result), nil
}

// Emit streams the events of an already resolved result. The channel is
// unbuffered and closed once every event is delivered or ctx is done.
func Emit(ctx context.Context, result *policy.QueryResult) <-chan policy.StreamEvent {
	events := Events(result)
	ch := make(chan policy.StreamEvent)
	go func() {
		defer close(ch)
		for _, ev := range events {
			select {
			case <-ctx.Done():
				return
			case ch <- ev:
			}
		}
	}()
	return ch
}

// Events renders a result as its ordered stream events.
func Events(result *policy.QueryResult) []policy.StreamEvent {
	chunks := Chunks(result.Answer)
	events := make([]policy.StreamEvent, 0, len(chunks)+2)
	for _, chunk := range chunks {
		events = append(events, policy.StreamEvent{Type: policy.EventChunk, Content: chunk})
	}
	events = append(events,
		policy.StreamEvent{Type: policy.EventCitations, Citations: result.Citations},
		policy.StreamEvent{
			Type:      policy.EventDone,
			Intent:    result.Intent,
			SlotsUsed: result.SlotsUsed,
			Refused:   result.Refused,
		},
	)
	return events
}

// Chunks splits s into words, each carrying its trailing whitespace.
// Concatenating the chunks yields s exactly.
func Chunks(s string) []string {
	var out []string
	start := 0
	seenWord, inSpace := false, false
	for i, r := range s {
		if unicode.IsSpace(r) {
			inSpace = true
			continue
		}
		if inSpace && seenWord {
			out = append(out, s[start:i])
			start = i
		}
		inSpace = false
		seenWord = true
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}

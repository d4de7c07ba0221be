package classifier

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"policylens-be/internal/pkg/logger"
	"policylens-be/pkg/llm"
	"policylens-be/pkg/llm/ollama"
	"policylens-be/pkg/policy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	response string
	err      error
	block    bool
	history  []llm.Message
	opts     llm.Options
}

func (f *fakeProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	f.history = history
	f.opts = llm.Apply(llm.Options{}, options...)
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.response, f.err
}

func (f *fakeProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return f.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, options...)
}

func classificationKind(t *testing.T, err error) policy.ClassificationErrorKind {
	t.Helper()
	var ce *policy.ClassificationError
	require.ErrorAs(t, err, &ce)
	return ce.Kind
}

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     *policy.Classification
		wantKind policy.ClassificationErrorKind
	}{
		{
			name:     "plain object",
			response: `{"intent": "due_date", "slots": {"assessment": "hw1", "topic": null}, "confidence": 0.92}`,
			want: &policy.Classification{
				Intent:     policy.IntentDueDate,
				Slots:      policy.Slots{policy.SlotAssessment: "hw1"},
				Confidence: 0.92,
			},
		},
		{
			name:     "wrapped in a code fence",
			response: "```json\n{\"intent\": \"Instructor_Info\", \"slots\": {\"section\": 201}, \"confidence\": 1}\n```",
			want: &policy.Classification{
				Intent:     policy.IntentInstructorInfo,
				Slots:      policy.Slots{policy.SlotSection: "201"},
				Confidence: 1,
			},
		},
		{
			name:     "number beyond float64 integer range keeps exponent",
			response: `{"intent": "instructor_info", "slots": {"section": 1e20}, "confidence": 0.9}`,
			want: &policy.Classification{
				Intent:     policy.IntentInstructorInfo,
				Slots:      policy.Slots{policy.SlotSection: "1e20"},
				Confidence: 0.9,
			},
		},
		{
			name:     "unknown and blank slots dropped",
			response: `{"intent": "links", "slots": {"link_type": "  ", "color": "red", "LINK_TYPE": "canvas"}, "confidence": 0.7}`,
			want: &policy.Classification{
				Intent:     policy.IntentLinks,
				Slots:      policy.Slots{policy.SlotLinkType: "canvas"},
				Confidence: 0.7,
			},
		},
		{name: "no json", response: "I think it is about due dates", wantKind: policy.KindMalformed},
		{name: "broken json", response: `{"intent": "due_date",}`, wantKind: policy.KindMalformed},
		{name: "missing intent", response: `{"slots": {}, "confidence": 0.9}`, wantKind: policy.KindMissingField},
		{name: "missing confidence", response: `{"intent": "bye", "slots": {}}`, wantKind: policy.KindMissingField},
		{name: "unknown intent", response: `{"intent": "weather", "confidence": 0.9}`, wantKind: policy.KindUnknownIntent},
		{name: "confidence above one", response: `{"intent": "help", "confidence": 1.5}`, wantKind: policy.KindConfidenceRange},
		{name: "negative confidence", response: `{"intent": "help", "confidence": -0.1}`, wantKind: policy.KindConfidenceRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.response)
			if tt.wantKind != "" {
				assert.Equal(t, tt.wantKind, classificationKind(t, err))
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassify(t *testing.T) {
	provider := &fakeProvider{response: `{"intent": "ta_list", "slots": {}, "confidence": 0.8}`}
	c := New(provider, Config{Model: "llama3", Temperature: 0.1}, logger.NewNopLogger())

	got, err := c.Classify(context.Background(), "who are the TAs?")
	require.NoError(t, err)
	assert.Equal(t, policy.IntentTAList, got.Intent)
	assert.Empty(t, got.Slots)

	require.Len(t, provider.history, 2)
	assert.Equal(t, "system", provider.history[0].Role)
	assert.True(t, strings.HasSuffix(provider.history[1].Content, "who are the TAs?"))
	assert.Equal(t, "llama3", provider.opts.Model)
	assert.True(t, provider.opts.JSON)
	assert.Equal(t, 0.1, provider.opts.Temperature)
	assert.Equal(t, 256, provider.opts.MaxTokens)
}

func TestClassifyFailures(t *testing.T) {
	tests := []struct {
		name     string
		provider *fakeProvider
		cfg      Config
		wantKind policy.ClassificationErrorKind
	}{
		{"backend down", &fakeProvider{err: errors.New("connection refused")}, Config{}, policy.KindUnavailable},
		{"timeout", &fakeProvider{block: true}, Config{Timeout: 20 * time.Millisecond}, policy.KindTimeout},
		{"garbage", &fakeProvider{response: "sure!"}, Config{}, policy.KindMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(tt.provider, tt.cfg, logger.NewNopLogger())
			_, err := c.Classify(context.Background(), "when is hw1 due?")
			assert.Equal(t, tt.wantKind, classificationKind(t, err))
		})
	}
}

func TestClassifyBackendHTTPFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = io.WriteString(w, `{"error":"model runner crashed"}`)
			},
		},
		{
			name: "connection dropped",
			handler: func(w http.ResponseWriter, r *http.Request) {
				if hj, ok := w.(http.Hijacker); ok {
					if conn, _, err := hj.Hijack(); err == nil {
						conn.Close()
					}
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			provider, err := ollama.NewOllamaProvider(srv.URL, "llama3")
			require.NoError(t, err)

			c := New(provider, Config{Timeout: 5 * time.Second}, logger.NewNopLogger())
			_, err = c.Classify(context.Background(), "when is hw1 due?")
			assert.Equal(t, policy.KindUnavailable, classificationKind(t, err))
		})
	}
}

func TestSystemPromptListsEveryIntent(t *testing.T) {
	for _, in := range policy.AllIntents {
		assert.Contains(t, systemPrompt, string(in))
	}
}

package dto

import (
	"time"

	"github.com/google/uuid"
)

type QueryRequest struct {
	Question string `json:"question" validate:"max=2000"`
	Course   string `json:"course" validate:"max=100"`
}

type CitationResponse struct {
	Text   string `json:"text"`
	Quote  string `json:"quote"`
	Source string `json:"source"`
}

type QueryResponse struct {
	QueryId       uuid.UUID          `json:"query_id"`
	Answer        string             `json:"answer"`
	Citations     []CitationResponse `json:"citations"`
	Intent        string             `json:"intent"`
	SlotsUsed     map[string]string  `json:"slots_used"`
	Refused       bool               `json:"refused"`
	RefusalReason string             `json:"refusal_reason,omitempty"`
	RefusalCode   string             `json:"refusal_code,omitempty"`
	Course        string             `json:"course"`
}

type QueryHistoryRequest struct {
	Course  string
	Refused *bool
	Page    int
	Limit   int
}

type QueryLogResponse struct {
	Id          uuid.UUID         `json:"id"`
	Course      string            `json:"course"`
	Question    string            `json:"question"`
	Intent      string            `json:"intent"`
	Slots       map[string]string `json:"slots"`
	Refused     bool              `json:"refused"`
	RefusalCode string            `json:"refusal_code,omitempty"`
	Sources     []string          `json:"sources"`
	LatencyMs   int64             `json:"latency_ms"`
	CreatedAt   time.Time         `json:"created_at"`
}

type QueryStatsResponse struct {
	Course   string           `json:"course,omitempty"`
	Total    int64            `json:"total"`
	Refused  int64            `json:"refused"`
	ByIntent map[string]int64 `json:"by_intent"`
}

package entity

import (
	"time"

	"github.com/google/uuid"
)

type QueryLog struct {
	Id          uuid.UUID
	Course      string
	Question    string
	Intent      string
	Slots       map[string]string
	Answer      string
	Sources     []string
	Refused     bool
	RefusalCode string
	LatencyMs   int64
	CreatedAt   time.Time
}

// QueryStats aggregates query logs for one course.
type QueryStats struct {
	Course   string
	Total    int64
	Refused  int64
	ByIntent map[string]int64
}

package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// QueryLog is one resolved or refused question.
type QueryLog struct {
	Id          uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Course      string            `gorm:"type:varchar(100);not null;index"`
	Question    string            `gorm:"type:text;not null"`
	Intent      string            `gorm:"type:varchar(50);not null;index"`
	Slots       datatypes.JSONMap `gorm:"type:jsonb"`
	Answer      string            `gorm:"type:text"`
	Sources     datatypes.JSON    `gorm:"type:jsonb;default:'[]'"`
	Refused     bool              `gorm:"not null;default:false;index"`
	RefusalCode string            `gorm:"type:varchar(50)"`
	LatencyMs   int64             `gorm:"not null;default:0"`
	CreatedAt   time.Time         `gorm:"autoCreateTime;index"`
}

func (QueryLog) TableName() string {
	return "query_logs"
}

package mapper

import (
	"encoding/json"

	"policylens-be/internal/entity"
	"policylens-be/internal/model"

	"gorm.io/datatypes"
)

type QueryLogMapper struct{}

func NewQueryLogMapper() *QueryLogMapper {
	return &QueryLogMapper{}
}

func (m *QueryLogMapper) ToEntity(q *model.QueryLog) *entity.QueryLog {
	if q == nil {
		return nil
	}

	slots := make(map[string]string, len(q.Slots))
	for k, v := range q.Slots {
		if s, ok := v.(string); ok {
			slots[k] = s
		}
	}

	var sources []string
	if len(q.Sources) > 0 {
		_ = json.Unmarshal(q.Sources, &sources)
	}
	if sources == nil {
		sources = []string{}
	}

	return &entity.QueryLog{
		Id:          q.Id,
		Course:      q.Course,
		Question:    q.Question,
		Intent:      q.Intent,
		Slots:       slots,
		Answer:      q.Answer,
		Sources:     sources,
		Refused:     q.Refused,
		RefusalCode: q.RefusalCode,
		LatencyMs:   q.LatencyMs,
		CreatedAt:   q.CreatedAt,
	}
}

func (m *QueryLogMapper) ToModel(q *entity.QueryLog) *model.QueryLog {
	if q == nil {
		return nil
	}

	slots := make(datatypes.JSONMap, len(q.Slots))
	for k, v := range q.Slots {
		slots[k] = v
	}

	sources := q.Sources
	if sources == nil {
		sources = []string{}
	}
	sourcesJSON, _ := json.Marshal(sources)

	return &model.QueryLog{
		Id:          q.Id,
		Course:      q.Course,
		Question:    q.Question,
		Intent:      q.Intent,
		Slots:       slots,
		Answer:      q.Answer,
		Sources:     datatypes.JSON(sourcesJSON),
		Refused:     q.Refused,
		RefusalCode: q.RefusalCode,
		LatencyMs:   q.LatencyMs,
		CreatedAt:   q.CreatedAt,
	}
}

func (m *QueryLogMapper) ToEntities(models []*model.QueryLog) []*entity.QueryLog {
	entities := make([]*entity.QueryLog, 0, len(models))
	for _, q := range models {
		entities = append(entities, m.ToEntity(q))
	}
	return entities
}

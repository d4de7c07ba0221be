package specification

import "gorm.io/gorm"

// ByCourse filters query logs by course slug
type ByCourse struct {
	Course string
}

func (s ByCourse) Apply(db *gorm.DB) *gorm.DB {
	if s.Course == "" {
		return db
	}
	return db.Where("course = ?", s.Course)
}

// ByRefused filters on the refused flag
type ByRefused struct {
	Refused bool
}

func (s ByRefused) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("refused = ?", s.Refused)
}

package specification

import "gorm.io/gorm"

// GroupSearchQuery filters groups by name or purpose.
// ILIKE gives the case-insensitive substring match on Postgres.
type GroupSearchQuery struct {
	Query string
}

func (s GroupSearchQuery) Apply(db *gorm.DB) *gorm.DB {
	pattern := "%" + s.Query + "%"
	return db.Where("name ILIKE ? OR purpose ILIKE ?", pattern, pattern)
}

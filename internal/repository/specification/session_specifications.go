package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OwnedBy scopes queries to one user's sessions.
type OwnedBy struct {
	UserId uuid.UUID
}

func (s OwnedBy) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_id = ?", s.UserId)
}

// ByStatus filters sessions by lifecycle state.
type ByStatus struct {
	Status string
}

func (s ByStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", s.Status)
}

// Terminal selects sessions that will never change again.
type Terminal struct{}

func (s Terminal) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status IN ?", []string{"completed", "failed", "cancelled"})
}

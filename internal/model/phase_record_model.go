package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type PhaseRecord struct {
	Id            uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId     uuid.UUID      `gorm:"type:uuid;not null;index:idx_phase_records_session_phase,unique"`
	PhaseNumber   int            `gorm:"not null;index:idx_phase_records_session_phase,unique"`
	Status        string         `gorm:"type:varchar(32);not null"`
	Attempt       int            `gorm:"default:0"`
	Quality       float64        `gorm:"default:0"`
	Degraded      bool           `gorm:"default:false"`
	PayloadKind   string         `gorm:"type:varchar(64)"`
	ResultPayload datatypes.JSON `gorm:"type:jsonb"`
	ErrorDetail   string         `gorm:"type:text"`
	StartedAt     *time.Time
	CompletedAt   *time.Time
	CreatedAt     time.Time      `gorm:"autoCreateTime"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime"`
	DeletedAt     gorm.DeletedAt `gorm:"index"`
}

func (PhaseRecord) TableName() string {
	return "phase_records"
}

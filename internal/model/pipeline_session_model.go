package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type PipelineSession struct {
	Id             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId         uuid.UUID       `gorm:"type:uuid;not null;index"` // User ownership for data isolation
	UserEmail      string          `gorm:"type:varchar(255)"`
	InputText      string          `gorm:"type:text;not null"`
	InputEmbedding pgvector.Vector `gorm:"type:vector(768)"` // Gemini text-embedding-004 uses 768 dimensions
	Status         string          `gorm:"type:varchar(32);not null;index"`
	CurrentPhase   int             `gorm:"default:0"`
	DegradedPhases datatypes.JSON  `gorm:"type:jsonb"`
	FailureReason  string          `gorm:"type:text"`
	Title          string          `gorm:"type:varchar(255)"` // filled from the concept phase once known
	Synopsis       string          `gorm:"type:text"`
	CompletedAt    *time.Time
	CreatedAt      time.Time      `gorm:"autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime"`
	DeletedAt      gorm.DeletedAt `gorm:"index"`
}

func (PipelineSession) TableName() string {
	return "pipeline_sessions"
}

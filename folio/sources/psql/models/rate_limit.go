package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RateLimit is one counter row per (principal, endpoint).
type RateLimit struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	PrincipalID  string    `json:"principal_id" gorm:"type:varchar(255);not null;uniqueIndex:idx_rate_limits_principal_endpoint"`
	Endpoint     string    `json:"endpoint" gorm:"type:varchar(64);not null;uniqueIndex:idx_rate_limits_principal_endpoint"`
	RequestCount int       `json:"request_count" gorm:"not null;default:0"`
	WindowStart  time.Time `json:"window_start" gorm:"not null;index"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (RateLimit) TableName() string {
	return "rate_limits"
}

func (r *RateLimit) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

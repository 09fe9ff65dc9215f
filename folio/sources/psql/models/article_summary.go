package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ArticleSummary struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	ArticleID string         `json:"article_id" gorm:"type:varchar(255);not null;uniqueIndex"`
	Summary   string         `json:"summary" gorm:"type:text;not null"`
	Bullets   datatypes.JSON `json:"bullets" gorm:"not null"`
	Model     string         `json:"model" gorm:"type:varchar(128)"`
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
}

func (ArticleSummary) TableName() string {
	return "article_summaries"
}

func (s *ArticleSummary) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// StringBullets decodes the stored bullets, keeping only string entries.
// Rows written by other tools may hold arbitrary JSON.
func (s *ArticleSummary) StringBullets() []string {
	var raw []any
	if err := json.Unmarshal(s.Bullets, &raw); err != nil {
		return []string{}
	}
	out := make([]string, 0, len(raw))
	for _, b := range raw {
		if str, ok := b.(string); ok {
			out = append(out, str)
		}
	}
	return out
}

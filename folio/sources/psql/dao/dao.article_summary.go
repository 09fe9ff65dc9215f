// folio/sources/psql/dao/dao.article_summary.go
package dao

import (
	"context"
	"encoding/json"
	"errors"

	"folio/folio/sources/psql/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ArticleSummaryDAO struct {
	DB *gorm.DB
}

func NewArticleSummaryDAO(db *gorm.DB) *ArticleSummaryDAO {
	return &ArticleSummaryDAO{DB: db}
}

// GetByArticleID returns the cached summary, or nil when there is none.
func (dao *ArticleSummaryDAO) GetByArticleID(ctx context.Context, articleID string) (*models.ArticleSummary, error) {
	var s models.ArticleSummary
	err := dao.DB.WithContext(ctx).
		Where("article_id = ?", articleID).
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Upsert inserts the summary or replaces the existing row for the article.
func (dao *ArticleSummaryDAO) Upsert(ctx context.Context, articleID, summary string, bullets []string, model string) (*models.ArticleSummary, error) {
	if bullets == nil {
		bullets = []string{}
	}
	raw, err := json.Marshal(bullets)
	if err != nil {
		return nil, err
	}
	s := models.ArticleSummary{
		ArticleID: articleID,
		Summary:   summary,
		Bullets:   datatypes.JSON(raw),
		Model:     model,
	}
	err = dao.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "article_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"summary", "bullets", "model", "updated_at"}),
		}).
		Create(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

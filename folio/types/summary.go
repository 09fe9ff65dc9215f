package types

type SummaryRequest struct {
	ArticleID string `json:"articleId" validate:"required"`
	Title     string `json:"title" validate:"required"`
	Content   string `json:"content" validate:"required"`
}

type SummaryResponse struct {
	Summary string   `json:"summary"`
	Bullets []string `json:"bullets"`
	Cached  bool     `json:"cached"`
}

package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"folio/folio/prompts"
	"folio/folio/services/llm"
	"folio/folio/sources/psql/dao"
	"folio/folio/sources/storage"
	"folio/folio/types"
	"folio/folio/utils/apperr"
	"folio/folio/utils/htmlutil"
	httputils "folio/folio/utils/http"
	"folio/folio/utils/jsonutils"
	"folio/folio/utils/logging"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const (
	MaxBullets = 5

	msgMissingFields  = "Missing required fields: articleId, title, content"
	msgSummaryFailed  = "Failed to generate summary"
	msgInvalidSummary = "Invalid JSON body"
)

// SummaryArchive stores a copy of each generated summary.
type SummaryArchive interface {
	Put(ctx context.Context, obj storage.SummaryObject) (string, error)
}

type SummaryController struct {
	summaries *dao.ArticleSummaryDAO
	completer llm.Completer
	prompts   *prompts.Prompts
	archive   SummaryArchive
	validate  *validator.Validate
	now       func() time.Time
}

// NewSummaryController wires the summary flow. archive may be nil.
func NewSummaryController(summaries *dao.ArticleSummaryDAO, completer llm.Completer, p *prompts.Prompts, archive SummaryArchive) *SummaryController {
	return &SummaryController{
		summaries: summaries,
		completer: completer,
		prompts:   p,
		archive:   archive,
		validate:  validator.New(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Summarize returns the cached summary for the article or generates, stores
// and returns a new one.
func (c *SummaryController) Summarize(ctx context.Context, req types.SummaryRequest) (*types.SummaryResponse, error) {
	req.ArticleID = strings.TrimSpace(req.ArticleID)
	req.Title = strings.TrimSpace(req.Title)
	req.Content = strings.TrimSpace(req.Content)
	if err := c.validate.Struct(req); err != nil {
		return nil, apperr.BadRequest(msgMissingFields)
	}

	cached, err := c.summaries.GetByArticleID(ctx, req.ArticleID)
	if err != nil {
		logging.ErrorLogger.Error("summary cache lookup failed", zap.String("article_id", req.ArticleID), zap.Error(err))
	} else if cached != nil && cached.Summary != "" {
		return &types.SummaryResponse{Summary: cached.Summary, Bullets: cached.StringBullets(), Cached: true}, nil
	}

	content := req.Content
	if htmlutil.LooksLikeHTML(content) {
		if flat := htmlutil.Flatten(content); flat != "" {
			content = flat
		}
	}

	text, err := c.completer.Complete(ctx, c.prompts.Summary.System, c.prompts.SummaryUser(req.Title, content))
	if err != nil {
		return nil, upstreamError(err)
	}

	summary, bullets := parseSummary(text)
	if summary == "" {
		return nil, apperr.New(apperr.KindInternal, msgSummaryFailed)
	}

	model := c.completer.Model()
	if _, err := c.summaries.Upsert(ctx, req.ArticleID, summary, bullets, model); err != nil {
		logging.ErrorLogger.Error("summary cache write failed", zap.String("article_id", req.ArticleID), zap.Error(err))
	}
	c.archiveSummary(ctx, req, summary, bullets, model)

	return &types.SummaryResponse{Summary: summary, Bullets: bullets, Cached: false}, nil
}

func (c *SummaryController) archiveSummary(ctx context.Context, req types.SummaryRequest, summary string, bullets []string, model string) {
	if c.archive == nil {
		return
	}
	key, err := c.archive.Put(ctx, storage.SummaryObject{
		ArticleID:   req.ArticleID,
		Title:       req.Title,
		Summary:     summary,
		Bullets:     bullets,
		Model:       model,
		GeneratedAt: c.now(),
	})
	if err != nil {
		logging.ErrorLogger.Error("summary archive failed", zap.String("article_id", req.ArticleID), zap.Error(err))
		return
	}
	logging.AppLogger.Info("summary archived", zap.String("article_id", req.ArticleID), zap.String("key", key))
}

// parseSummary reads {summary, bullets} from model output. Without a usable
// object the whole text is the summary and there are no bullets.
func parseSummary(text string) (string, []string) {
	var parsed struct {
		Summary any `json:"summary"`
		Bullets any `json:"bullets"`
	}
	summary := text
	var rawBullets []any
	if jsonutils.ExtractObject(text, &parsed) {
		if s, ok := parsed.Summary.(string); ok {
			summary = s
		}
		rawBullets, _ = parsed.Bullets.([]any)
	}

	bullets := make([]string, 0, MaxBullets)
	for _, b := range rawBullets {
		s, ok := b.(string)
		if !ok {
			continue
		}
		if s = strings.TrimSpace(s); s == "" {
			continue
		}
		bullets = append(bullets, s)
		if len(bullets) == MaxBullets {
			break
		}
	}
	return strings.TrimSpace(summary), bullets
}

// HandleSummarize handles POST /summarize.
func (c *SummaryController) HandleSummarize(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ArticleID any `json:"articleId"`
		Title     any `json:"title"`
		Content   any `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httputils.WriteError(w, r, apperr.BadRequest(msgInvalidSummary))
		return
	}
	str := func(v any) string {
		s, _ := v.(string)
		return s
	}

	resp, err := c.Summarize(r.Context(), types.SummaryRequest{
		ArticleID: str(body.ArticleID),
		Title:     str(body.Title),
		Content:   str(body.Content),
	})
	if err != nil {
		httputils.WriteError(w, r, err)
		return
	}
	httputils.WriteJSON(w, http.StatusOK, resp)
}

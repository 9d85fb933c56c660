package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/hitoshi/portella/internal/middleware"
	"github.com/hitoshi/portella/internal/model"
)

// PostServiceInterface は投稿ハンドラーが必要とするサービスインターフェース。
type PostServiceInterface interface {
	// Create は投稿を作成し、投稿者プロフィール付きで返す。
	Create(ctx context.Context, sessionUserID, authorID, body, kind string) (*model.PostWithAuthor, error)
	// ListRecent は新しい順の投稿一覧を返す。limit 0はデフォルト件数。
	ListRecent(ctx context.Context, limit int) ([]model.PostWithAuthor, error)
}

// PostMetrics は投稿ハンドラーが記録するメトリクスのインターフェース。
type PostMetrics interface {
	RecordPostCreated()
}

// PostHandler は投稿管理のHTTPハンドラー。
type PostHandler struct {
	service PostServiceInterface
	metrics PostMetrics
}

// NewPostHandler はPostHandlerを生成する。
// metricsはnilでもよい（記録をスキップする）。
func NewPostHandler(service PostServiceInterface, metrics PostMetrics) *PostHandler {
	return &PostHandler{
		service: service,
		metrics: metrics,
	}
}

// --- リクエスト・レスポンス型 ---

// createPostRequest は投稿作成リクエストのボディ。
// author_idを省略した場合はセッションのユーザーが投稿者になる。
type createPostRequest struct {
	Body     string `json:"body"`
	Kind     string `json:"kind,omitempty"`
	AuthorID string `json:"author_id,omitempty"`
}

// postAuthorResponse は投稿に付随する投稿者プロフィールのレスポンス。
type postAuthorResponse struct {
	ID         string `json:"id"`
	Nickname   string `json:"nickname"`
	FullName   string `json:"full_name,omitempty"`
	Tagline    string `json:"tagline,omitempty"`
	AvatarURL  string `json:"avatar_url,omitempty"`
	Reputation int    `json:"reputation"`
	Initials   string `json:"initials"`
}

// postResponse は投稿のレスポンス。
type postResponse struct {
	ID        string             `json:"id"`
	AuthorID  string             `json:"author_id"`
	Body      string             `json:"body"`
	Kind      string             `json:"kind"`
	CreatedAt time.Time          `json:"created_at"`
	Author    postAuthorResponse `json:"author"`
}

// postListResponse は投稿一覧のレスポンス。
type postListResponse struct {
	Posts []postResponse `json:"posts"`
}

// ListRecent は新しい順の投稿一覧を取得する。
// GET /api/posts?limit=N
func (h *PostHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeInvalidRequestBody(w)
			return
		}
		limit = n
	}

	posts, err := h.service.ListRecent(r.Context(), limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := postListResponse{Posts: make([]postResponse, 0, len(posts))}
	for i := range posts {
		resp.Posts = append(resp.Posts, toPostResponse(&posts[i]))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// Create は新規投稿を作成する。
// POST /api/posts
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		handleServiceError(w, model.NewUnauthorizedError())
		return
	}

	var req createPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	authorID := req.AuthorID
	if authorID == "" {
		authorID = userID
	}

	created, err := h.service.Create(r.Context(), userID, authorID, req.Body, req.Kind)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordPostCreated()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toPostResponse(created))
}

// toPostResponse はmodel.PostWithAuthorからAPIレスポンスに変換する。
func toPostResponse(p *model.PostWithAuthor) postResponse {
	return postResponse{
		ID:        p.ID,
		AuthorID:  p.AuthorID,
		Body:      p.Body,
		Kind:      p.Kind,
		CreatedAt: p.CreatedAt,
		Author: postAuthorResponse{
			ID:         p.Author.ID,
			Nickname:   p.Author.Nickname,
			FullName:   p.Author.FullName,
			Tagline:    p.Author.Tagline,
			AvatarURL:  p.Author.AvatarURL,
			Reputation: p.Author.Reputation,
			Initials:   p.Author.Initials(),
		},
	}
}

package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/portella/internal/middleware"
	"github.com/hitoshi/portella/internal/model"
)

// ProfileServiceInterface はプロフィールハンドラーが必要とするサービスインターフェース。
type ProfileServiceInterface interface {
	// Get は指定IDのプロフィールを返す。欠落時はnot_foundエラー。
	Get(ctx context.Context, profileID string) (*model.Profile, error)
	// Ensure はプロフィールの存在を冪等に保証する（欠落時は再作成）。
	Ensure(ctx context.Context, user *model.User, nickname string) (*model.Profile, error)
}

// UserFinder は修復時のユーザー取得に必要なインターフェース。
// repository.UserRepositoryの部分集合として定義する。
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// ProfileMetrics はプロフィールハンドラーが記録するメトリクスのインターフェース。
type ProfileMetrics interface {
	RecordProfileRepair()
}

// ProfileHandler はプロフィール管理のHTTPハンドラー。
type ProfileHandler struct {
	service    ProfileServiceInterface
	userFinder UserFinder
	metrics    ProfileMetrics
}

// NewProfileHandler はProfileHandlerを生成する。
// metricsはnilでもよい（記録をスキップする）。
func NewProfileHandler(service ProfileServiceInterface, userFinder UserFinder, metrics ProfileMetrics) *ProfileHandler {
	return &ProfileHandler{
		service:    service,
		userFinder: userFinder,
		metrics:    metrics,
	}
}

// --- リクエスト・レスポンス型 ---

// repairRequest はプロフィール修復リクエストのボディ。
type repairRequest struct {
	Nickname string `json:"nickname,omitempty"`
}

// profileResponse はプロフィールのレスポンス。
type profileResponse struct {
	ID         string    `json:"id"`
	Nickname   string    `json:"nickname"`
	FullName   string    `json:"full_name,omitempty"`
	Tagline    string    `json:"tagline,omitempty"`
	Biography  string    `json:"biography,omitempty"`
	AvatarURL  string    `json:"avatar_url,omitempty"`
	Reputation int       `json:"reputation"`
	Initials   string    `json:"initials"`
	CreatedAt  time.Time `json:"created_at"`
}

// Get は指定IDのプロフィールを取得する。
// GET /api/profiles/{id}
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	profileID := chi.URLParam(r, "id")

	profile, err := h.service.Get(r.Context(), profileID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toProfileResponse(profile))
}

// Repair は現在のユーザーのプロフィール欠落を修復する。
// 既に存在する場合は既存のプロフィールをそのまま返す（冪等）。
// POST /api/profiles/repair
func (h *ProfileHandler) Repair(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		handleServiceError(w, model.NewUnauthorizedError())
		return
	}

	var req repairRequest
	if r.Body != nil {
		// ボディは任意。空でもデコードエラーにしない
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	user, err := h.userFinder.FindByID(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if user == nil {
		handleServiceError(w, model.NewUserNotFoundError())
		return
	}

	profile, err := h.service.Ensure(r.Context(), user, req.Nickname)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordProfileRepair()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toProfileResponse(profile))
}

// toProfileResponse はmodel.ProfileからAPIレスポンスに変換する。
func toProfileResponse(p *model.Profile) profileResponse {
	return profileResponse{
		ID:         p.ID,
		Nickname:   p.Nickname,
		FullName:   p.FullName,
		Tagline:    p.Tagline,
		Biography:  p.Biography,
		AvatarURL:  p.AvatarURL,
		Reputation: p.Reputation,
		Initials:   p.Initials(),
		CreatedAt:  p.CreatedAt,
	}
}

// Package post は投稿の作成と時系列一覧の取得を提供する。
package post

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/hitoshi/portella/internal/model"
	"github.com/hitoshi/portella/internal/repository"
)

// ServiceConfig は投稿サービスの設定。
type ServiceConfig struct {
	DefaultPageSize int // ListRecentのlimit未指定時の件数
	MaxPageSize     int // ListRecentのlimit上限
}

// Service は投稿のサービス層。
// 本文は信頼できない入力として扱い、マークアップ除去とトリム後に検証する。
// 長さ検証はストレージ層のCHECK制約でも再実施される。
type Service struct {
	postRepo  repository.PostRepository
	sanitizer *bluemonday.Policy
	config    ServiceConfig
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(postRepo repository.PostRepository, config ServiceConfig) *Service {
	if config.DefaultPageSize <= 0 {
		config.DefaultPageSize = 20
	}
	if config.MaxPageSize <= 0 {
		config.MaxPageSize = 100
	}
	return &Service{
		postRepo: postRepo,
		// 投稿本文はプレーンテキストとして表示するため全タグを除去する
		sanitizer: bluemonday.StrictPolicy(),
		config:    config,
	}
}

// Create は新規投稿を作成し、投稿者プロフィール付きで返す。
// authorIDが現在のセッションのユーザーと一致しない場合はunauthorizedエラー、
// 本文がトリム後に空または1000文字を超える場合はvalidationエラーを返す。
// 作成は一覧キャッシュを更新しない。新しい投稿を観測するには
// 呼び出し側がListRecentを再実行する。
func (s *Service) Create(ctx context.Context, sessionUserID, authorID, body, kind string) (*model.PostWithAuthor, error) {
	if sessionUserID == "" {
		return nil, model.NewUnauthorizedError()
	}
	if authorID != sessionUserID {
		return nil, model.NewAuthorMismatchError()
	}

	// StrictPolicyはタグ除去後に残りのテキストをHTMLエスケープするため、
	// プレーンテキストとして保存・検証できるようアンエスケープで戻す
	body = strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(body)))
	if body == "" || utf8.RuneCountInString(body) > model.PostBodyMaxLength {
		return nil, model.NewInvalidPostBodyError(model.PostBodyMaxLength)
	}

	if kind == "" {
		kind = model.PostKindText
	}

	newPost := &model.Post{
		ID:       uuid.New().String(),
		AuthorID: authorID,
		Body:     body,
		Kind:     kind,
	}

	start := time.Now()
	if err := s.postRepo.Create(ctx, newPost); err != nil {
		return nil, fmt.Errorf("投稿の作成に失敗しました: %w", err)
	}

	created, err := s.postRepo.FindByID(ctx, newPost.ID)
	if err != nil {
		return nil, fmt.Errorf("作成した投稿の取得に失敗しました: %w", err)
	}
	if created == nil {
		return nil, fmt.Errorf("作成した投稿が見つかりません: %s", newPost.ID)
	}

	slog.Info("post created",
		slog.String("post_id", newPost.ID),
		slog.String("author_id", authorID),
		slog.String("kind", kind),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	return created, nil
}

// ListRecent は最新の投稿をcreated_at降順（同時刻はid降順）で最大limit件返す。
// limitが0以下の場合はデフォルト件数、上限を超える場合は上限に丸める。
// 結果は呼び出し時点のスナップショットであり、再取得には再実行が必要。
func (s *Service) ListRecent(ctx context.Context, limit int) ([]model.PostWithAuthor, error) {
	if limit <= 0 {
		limit = s.config.DefaultPageSize
	}
	if limit > s.config.MaxPageSize {
		limit = s.config.MaxPageSize
	}

	posts, err := s.postRepo.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("投稿一覧の取得に失敗しました: %w", err)
	}

	return posts, nil
}

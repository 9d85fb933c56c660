// Package profile は公開プロフィールの取得と修復を提供する。
package profile

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/portella/internal/model"
	"github.com/hitoshi/portella/internal/repository"
)

// Service はプロフィールのサービス層。
// 書き込みはサインアップ時の暗黙作成と、欠落時の修復のみ。
type Service struct {
	profileRepo repository.ProfileRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(profileRepo repository.ProfileRepository) *Service {
	return &Service{profileRepo: profileRepo}
}

// Get は指定IDのプロフィールを取得する。
// 行が存在しない場合はnot_foundエラーを返す。通常のサインアップフローでは
// 発生しないが、発生した場合に呼び出し側が修復を案内できるよう区別する。
func (s *Service) Get(ctx context.Context, profileID string) (*model.Profile, error) {
	profile, err := s.profileRepo.FindByID(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("プロフィールの取得に失敗しました: %w", err)
	}
	if profile == nil {
		return nil, model.NewProfileNotFoundError(profileID)
	}
	return profile, nil
}

// Ensure は指定ユーザーのプロフィールが存在することを冪等に保証する。
// 既に存在する場合はそのまま返す。欠落している場合はニックネーム
// （未指定ならメールアドレスのローカル部）で再作成する。
func (s *Service) Ensure(ctx context.Context, user *model.User, nickname string) (*model.Profile, error) {
	existing, err := s.profileRepo.FindByID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("プロフィールの確認に失敗しました: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		nickname = emailLocalPart(user.Email)
	}
	if nickname == "" {
		return nil, model.NewNicknameRequiredError()
	}

	now := time.Now()
	created := &model.Profile{
		ID:        user.ID,
		Nickname:  nickname,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.profileRepo.Create(ctx, created); err != nil {
		return nil, fmt.Errorf("プロフィールの修復に失敗しました: %w", err)
	}

	slog.Info("missing profile repaired",
		slog.String("user_id", user.ID),
		slog.String("nickname", nickname),
	)

	return created, nil
}

// emailLocalPart はメールアドレスの@より前の部分を返す。
func emailLocalPart(email string) string {
	if i := strings.Index(email, "@"); i > 0 {
		return email[:i]
	}
	return ""
}

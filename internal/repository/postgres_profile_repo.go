package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/portella/internal/model"
)

// PostgresProfileRepo はPostgreSQLを使用したプロフィールリポジトリ。
type PostgresProfileRepo struct {
	db *sql.DB
}

// NewPostgresProfileRepo はPostgresProfileRepoを生成する。
func NewPostgresProfileRepo(db *sql.DB) *PostgresProfileRepo {
	return &PostgresProfileRepo{db: db}
}

// FindByID は指定IDのプロフィールを取得する。見つからない場合はnilを返す。
func (r *PostgresProfileRepo) FindByID(ctx context.Context, id string) (*model.Profile, error) {
	profile := &model.Profile{}
	var fullName, tagline, biography, avatarURL sql.NullString

	err := r.db.QueryRowContext(ctx,
		`SELECT id, nickname, full_name, tagline, biography, reputation, avatar_url, created_at, updated_at
		 FROM profiles WHERE id = $1`,
		id,
	).Scan(
		&profile.ID, &profile.Nickname, &fullName, &tagline, &biography,
		&profile.Reputation, &avatarURL, &profile.CreatedAt, &profile.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("プロフィールの取得に失敗しました: %w", err)
	}

	profile.FullName = nullStringValue(fullName)
	profile.Tagline = nullStringValue(tagline)
	profile.Biography = nullStringValue(biography)
	profile.AvatarURL = nullStringValue(avatarURL)

	return profile, nil
}

// Create はプロフィールを作成する。
// サインアップ時の作成はCreateWithProfileのトランザクション内で行われるため、
// このメソッドは欠落したプロフィールの修復パスでのみ使用する。
func (r *PostgresProfileRepo) Create(ctx context.Context, profile *model.Profile) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO profiles (id, nickname, full_name, tagline, biography, reputation, avatar_url, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		profile.ID, profile.Nickname, nullString(profile.FullName), nullString(profile.Tagline),
		nullString(profile.Biography), profile.Reputation, nullString(profile.AvatarURL),
		profile.CreatedAt, profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("プロフィールの作成に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ ProfileRepository = (*PostgresProfileRepo)(nil)

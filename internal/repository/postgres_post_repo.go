package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/portella/internal/model"
)

// PostgresPostRepo はPostgreSQLを使用した投稿リポジトリ。
type PostgresPostRepo struct {
	db *sql.DB
}

// NewPostgresPostRepo はPostgresPostRepoを生成する。
func NewPostgresPostRepo(db *sql.DB) *PostgresPostRepo {
	return &PostgresPostRepo{db: db}
}

// postWithAuthorColumns は投稿とプロフィールの結合SELECT句。
// 投稿者情報は常にprofilesの現在の行を参照する。
const postWithAuthorColumns = `
	p.id, p.author_id, p.body, p.kind, p.created_at,
	pr.id, pr.nickname, pr.full_name, pr.tagline, pr.biography,
	pr.reputation, pr.avatar_url, pr.created_at, pr.updated_at`

// Create は投稿を作成する。created_atはDB側でnow()が付与済みの値を使用する。
func (r *PostgresPostRepo) Create(ctx context.Context, post *model.Post) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO posts (id, author_id, body, kind)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at`,
		post.ID, post.AuthorID, post.Body, post.Kind,
	).Scan(&post.CreatedAt)
	if err != nil {
		return fmt.Errorf("投稿の作成に失敗しました: %w", err)
	}
	return nil
}

// FindByID は指定IDの投稿を投稿者プロフィール付きで取得する。見つからない場合はnilを返す。
func (r *PostgresPostRepo) FindByID(ctx context.Context, id string) (*model.PostWithAuthor, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+postWithAuthorColumns+`
		 FROM posts p
		 JOIN profiles pr ON pr.id = p.author_id
		 WHERE p.id = $1`,
		id,
	)

	post, err := scanPostWithAuthor(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("投稿の取得に失敗しました: %w", err)
	}

	return post, nil
}

// ListRecent は最大limit件の投稿をcreated_at降順、同時刻はid降順で返す。
// 書き込みがない限り、繰り返し呼び出しても同一の順序を返す。
func (r *PostgresPostRepo) ListRecent(ctx context.Context, limit int) ([]model.PostWithAuthor, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+postWithAuthorColumns+`
		 FROM posts p
		 JOIN profiles pr ON pr.id = p.author_id
		 ORDER BY p.created_at DESC, p.id DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("投稿一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	posts := []model.PostWithAuthor{}
	for rows.Next() {
		post, err := scanPostWithAuthor(rows)
		if err != nil {
			return nil, fmt.Errorf("投稿行の読み取りに失敗しました: %w", err)
		}
		posts = append(posts, *post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("投稿一覧の走査に失敗しました: %w", err)
	}

	return posts, nil
}

// rowScanner は*sql.Rowと*sql.Rowsの双方を受け付けるためのインターフェース。
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanPostWithAuthor は結合済みの投稿行を読み取る。
func scanPostWithAuthor(row rowScanner) (*model.PostWithAuthor, error) {
	post := &model.PostWithAuthor{}
	var fullName, tagline, biography, avatarURL sql.NullString

	err := row.Scan(
		&post.ID, &post.AuthorID, &post.Body, &post.Kind, &post.CreatedAt,
		&post.Author.ID, &post.Author.Nickname, &fullName, &tagline, &biography,
		&post.Author.Reputation, &avatarURL, &post.Author.CreatedAt, &post.Author.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	post.Author.FullName = nullStringValue(fullName)
	post.Author.Tagline = nullStringValue(tagline)
	post.Author.Biography = nullStringValue(biography)
	post.Author.AvatarURL = nullStringValue(avatarURL)

	return post, nil
}

// compile-time interface check
var _ PostRepository = (*PostgresPostRepo)(nil)

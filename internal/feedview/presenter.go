// Package feedview はセッション・プロフィール・投稿を合成し、
// UI層が消費するフィードのビューモデルを提供する。
package feedview

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hitoshi/portella/internal/model"
	"github.com/hitoshi/portella/internal/session"
)

// ErrRedirectRequired はセッション不在を示す。
// リダイレクト先の決定は呼び出し側（UI層）の責務。
var ErrRedirectRequired = errors.New("有効なセッションがありません。サインイン画面への遷移が必要です")

// State はプレゼンターの状態を表す。
type State string

const (
	// StateUnauthenticated はセッションが存在しない状態。
	StateUnauthenticated State = "unauthenticated"
	// StateLoading は初期ロード中の状態。
	StateLoading State = "loading"
	// StateReady は表示可能な状態。
	StateReady State = "ready"
	// StateError はロード失敗の状態。
	StateError State = "error"
)

// ProfileGetter はプロフィール取得のインターフェース。
type ProfileGetter interface {
	Get(ctx context.Context, profileID string) (*model.Profile, error)
}

// PostService は投稿の一覧取得と作成のインターフェース。
type PostService interface {
	ListRecent(ctx context.Context, limit int) ([]model.PostWithAuthor, error)
	Create(ctx context.Context, sessionUserID, authorID, body, kind string) (*model.PostWithAuthor, error)
}

// SignOuter はセッション破棄のインターフェース。
type SignOuter interface {
	SignOut(ctx context.Context, sessionID string) error
}

// Presenter はフィード画面の状態を合成する。
// 1つのUIセッションにつき1インスタンスを想定する。
// 投稿作成後の一覧更新はプッシュではなく明示的な再取得で行う。
type Presenter struct {
	store    *session.Store
	profiles ProfileGetter
	posts    PostService
	auth     SignOuter
	pageSize int

	mu       sync.Mutex
	state    State
	profile  *model.Profile
	list     []model.PostWithAuthor
	lastErr  error
	issued   uint64 // 発行済みの一覧取得リクエストの通し番号
	rendered uint64 // 最後に反映したリクエストの通し番号
}

// NewPresenter はPresenterを生成する。
func NewPresenter(store *session.Store, profiles ProfileGetter, posts PostService, auth SignOuter, pageSize int) *Presenter {
	if pageSize <= 0 {
		pageSize = 20
	}
	return &Presenter{
		store:    store,
		profiles: profiles,
		posts:    posts,
		auth:     auth,
		pageSize: pageSize,
		state:    StateLoading,
	}
}

// State は現在の状態を返す。
func (p *Presenter) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Profile は現在のユーザーのプロフィールを返す。ready状態でのみ有効。
func (p *Presenter) Profile() *model.Profile {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.profile
}

// Posts は最後に反映された投稿一覧を返す。
func (p *Presenter) Posts() []model.PostWithAuthor {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.list
}

// Err はerror状態の原因を返す。
func (p *Presenter) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

// Load は初期ロードを実行する。
// セッションが存在しない場合はErrRedirectRequiredを返す。
// プロフィールと投稿一覧は並行に取得し、両方の完了を待ってから
// ready状態に遷移する。部分的な状態は公開しない。
func (p *Presenter) Load(ctx context.Context) error {
	current := p.store.Current()
	if current == nil {
		p.setState(StateUnauthenticated, nil)
		return ErrRedirectRequired
	}

	p.setState(StateLoading, nil)
	seq := p.nextSeq()

	type profileResult struct {
		profile *model.Profile
		err     error
	}
	type postsResult struct {
		posts []model.PostWithAuthor
		err   error
	}

	profileCh := make(chan profileResult, 1)
	postsCh := make(chan postsResult, 1)

	go func() {
		profile, err := p.profiles.Get(ctx, current.UserID)
		profileCh <- profileResult{profile: profile, err: err}
	}()
	go func() {
		posts, err := p.posts.ListRecent(ctx, p.pageSize)
		postsCh <- postsResult{posts: posts, err: err}
	}()

	pr := <-profileCh
	lr := <-postsCh

	if pr.err != nil {
		p.setState(StateError, pr.err)
		return fmt.Errorf("プロフィールのロードに失敗しました: %w", pr.err)
	}
	if lr.err != nil {
		p.setState(StateError, lr.err)
		return fmt.Errorf("投稿一覧のロードに失敗しました: %w", lr.err)
	}

	p.mu.Lock()
	p.profile = pr.profile
	if seq > p.rendered {
		p.rendered = seq
		p.list = lr.posts
	}
	p.state = StateReady
	p.lastErr = nil
	p.mu.Unlock()

	return nil
}

// ReloadPosts は投稿一覧を再取得する。
// 先行するリロードが未完了のまま新しいリロードが発行された場合、
// 古いリクエストの応答は通し番号の比較により破棄される。
func (p *Presenter) ReloadPosts(ctx context.Context) error {
	if p.store.Current() == nil {
		return ErrRedirectRequired
	}

	seq := p.nextSeq()

	posts, err := p.posts.ListRecent(ctx, p.pageSize)
	if err != nil {
		return fmt.Errorf("投稿一覧の再取得に失敗しました: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if seq <= p.rendered {
		// より新しいリクエストが既に反映済み。古い応答は捨てる
		return nil
	}
	p.rendered = seq
	p.list = posts
	return nil
}

// SubmitPost は投稿を作成し、一覧を再取得する。
// 作成エラー時は状態を変更せずエラーを返す（部分コミットなし）。
func (p *Presenter) SubmitPost(ctx context.Context, body string) error {
	current := p.store.Current()
	if current == nil {
		return ErrRedirectRequired
	}

	if _, err := p.posts.Create(ctx, current.UserID, current.UserID, body, ""); err != nil {
		return err
	}

	return p.ReloadPosts(ctx)
}

// Logout はセッションを破棄し、未認証状態に遷移する。
// サーバー側の破棄が失敗してもローカルのセッションは直ちに無効化する。
// 戻り値は常にErrRedirectRequired（呼び出し側へのリダイレクト要求）。
func (p *Presenter) Logout(ctx context.Context) error {
	current := p.store.Current()
	if current != nil {
		if err := p.auth.SignOut(ctx, current.ID); err != nil {
			// ローカル無効化は続行する
			p.setState(StateUnauthenticated, nil)
			p.store.Clear()
			return errors.Join(err, ErrRedirectRequired)
		}
	}

	p.store.Clear()
	p.setState(StateUnauthenticated, nil)
	return ErrRedirectRequired
}

// setState は状態を更新する。
func (p *Presenter) setState(state State, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = state
	p.lastErr = err
}

// nextSeq は一覧取得リクエストの通し番号を発行する。
func (p *Presenter) nextSeq() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.issued++
	return p.issued
}

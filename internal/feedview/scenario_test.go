package feedview

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/hitoshi/portella/internal/auth"
	"github.com/hitoshi/portella/internal/model"
	"github.com/hitoshi/portella/internal/post"
	"github.com/hitoshi/portella/internal/profile"
	"github.com/hitoshi/portella/internal/repository"
	"github.com/hitoshi/portella/internal/session"
)

// memBackend は全リポジトリインターフェースを満たすインメモリ実装。
// サービス層をまたいだシナリオ検証に使用する。
type memBackend struct {
	mu       sync.Mutex
	users    map[string]*model.User
	profiles map[string]*model.Profile
	posts    []*model.Post
	seqs     map[string]int // 投稿IDごとの挿入順
	sessions map[string]*model.Session
	clock    time.Time
	nextSeq  int
}

func newMemBackend() *memBackend {
	return &memBackend{
		users:    map[string]*model.User{},
		profiles: map[string]*model.Profile{},
		seqs:     map[string]int{},
		sessions: map[string]*model.Session{},
		clock:    time.Now(),
	}
}

func (b *memBackend) FindByID(ctx context.Context, id string) (*model.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.users[id], nil
}

func (b *memBackend) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, u := range b.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (b *memBackend) CreateWithProfile(ctx context.Context, user *model.User, p *model.Profile) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, u := range b.users {
		if u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	b.users[user.ID] = user
	b.profiles[p.ID] = p
	return nil
}

func (b *memBackend) FindProfileByID(ctx context.Context, id string) (*model.Profile, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.profiles[id], nil
}

func (b *memBackend) CreateProfile(ctx context.Context, p *model.Profile) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.profiles[p.ID]; ok {
		return errors.New("profile already exists")
	}
	b.profiles[p.ID] = p
	return nil
}

func (b *memBackend) CreatePost(ctx context.Context, p *model.Post) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.profiles[p.AuthorID]; !ok {
		return fmt.Errorf("author profile not found: %s", p.AuthorID)
	}
	// サーバー付与の単調増加タイムスタンプを模倣する
	b.clock = b.clock.Add(time.Microsecond)
	p.CreatedAt = b.clock
	b.nextSeq++
	b.seqs[p.ID] = b.nextSeq
	b.posts = append(b.posts, p)
	return nil
}

func (b *memBackend) FindPostByID(ctx context.Context, id string) (*model.PostWithAuthor, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, p := range b.posts {
		if p.ID == id {
			return &model.PostWithAuthor{Post: *p, Author: *b.profiles[p.AuthorID]}, nil
		}
	}
	return nil, nil
}

func (b *memBackend) ListRecent(ctx context.Context, limit int) ([]model.PostWithAuthor, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sorted := make([]*model.Post, len(b.posts))
	copy(sorted, b.posts)
	// created_at降順、同時刻は挿入順降順（インデックスの安定順序を模倣）
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
		}
		return b.seqs[sorted[i].ID] > b.seqs[sorted[j].ID]
	})

	if len(sorted) > limit {
		sorted = sorted[:limit]
	}

	result := make([]model.PostWithAuthor, 0, len(sorted))
	for _, p := range sorted {
		result = append(result, model.PostWithAuthor{Post: *p, Author: *b.profiles[p.AuthorID]})
	}
	return result, nil
}

func (b *memBackend) CreateSession(ctx context.Context, s *model.Session) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sessions[s.ID] = s
	return nil
}

func (b *memBackend) FindSessionByID(ctx context.Context, id string) (*model.Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := b.sessions[id]
	if s == nil || !s.ExpiresAt.After(time.Now()) {
		return nil, nil
	}
	return s, nil
}

func (b *memBackend) DeleteByID(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.sessions, id)
	return nil
}

func (b *memBackend) DeleteByUserID(ctx context.Context, userID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, s := range b.sessions {
		if s.UserID == userID {
			delete(b.sessions, id)
		}
	}
	return nil
}

// アダプタ: memBackendをインターフェースごとに分離する
type memUserRepo struct{ *memBackend }
type memProfileRepo struct{ *memBackend }
type memPostRepo struct{ *memBackend }
type memSessionRepo struct{ *memBackend }

func (r memProfileRepo) FindByID(ctx context.Context, id string) (*model.Profile, error) {
	return r.FindProfileByID(ctx, id)
}
func (r memProfileRepo) Create(ctx context.Context, p *model.Profile) error {
	return r.CreateProfile(ctx, p)
}
func (r memPostRepo) Create(ctx context.Context, p *model.Post) error {
	return r.CreatePost(ctx, p)
}
func (r memPostRepo) FindByID(ctx context.Context, id string) (*model.PostWithAuthor, error) {
	return r.FindPostByID(ctx, id)
}
func (r memSessionRepo) Create(ctx context.Context, s *model.Session) error {
	return r.CreateSession(ctx, s)
}
func (r memSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	return r.FindSessionByID(ctx, id)
}

var (
	_ repository.UserRepository    = memUserRepo{}
	_ repository.ProfileRepository = memProfileRepo{}
	_ repository.PostRepository    = memPostRepo{}
	_ repository.SessionRepository = memSessionRepo{}
)

type fixture struct {
	backend    *memBackend
	authSvc    *auth.Service
	profileSvc *profile.Service
	postSvc    *post.Service
	store      *session.Store
}

func newFixture() *fixture {
	backend := newMemBackend()
	return &fixture{
		backend:    backend,
		authSvc:    auth.NewService(memUserRepo{backend}, memSessionRepo{backend}, auth.ServiceConfig{SessionMaxAge: 3600}),
		profileSvc: profile.NewService(memProfileRepo{backend}),
		postSvc:    post.NewService(memPostRepo{backend}, post.ServiceConfig{DefaultPageSize: 20, MaxPageSize: 100}),
		store:      session.NewStore(),
	}
}

// シナリオ: サインアップ直後にプロフィールが取得でき、ニックネームが一致することを検証
func TestScenario_SignUpThenGetProfile(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	s, err := f.authSvc.SignUp(ctx, auth.SignUpInput{
		Email: "ana@x.com", Password: "senha1", Nickname: "Ana",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p, err := f.profileSvc.Get(ctx, s.UserID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Nickname != "Ana" {
		t.Errorf("expected nickname Ana, got %q", p.Nickname)
	}
}

// シナリオ: ana@x.com/senha1/Anaでサインアップ → "Primeiro post"を投稿 →
// listRecent(20)がニックネームAna・respeito 0の投稿をちょうど1件返すことを検証
func TestScenario_FirstPost(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	s, err := f.authSvc.SignUp(ctx, auth.SignUpInput{
		Email: "ana@x.com", Password: "senha1", Nickname: "Ana",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.store.Set(s)

	p := NewPresenter(f.store, f.profileSvc, f.postSvc, f.authSvc, 20)
	if err := p.Load(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.SubmitPost(ctx, "Primeiro post"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	posts := p.Posts()
	if len(posts) != 1 {
		t.Fatalf("expected exactly 1 post, got %d", len(posts))
	}
	if posts[0].Body != "Primeiro post" {
		t.Errorf("expected body %q, got %q", "Primeiro post", posts[0].Body)
	}
	if posts[0].Author.Nickname != "Ana" {
		t.Errorf("expected author nickname Ana, got %q", posts[0].Author.Nickname)
	}
	if posts[0].Author.Reputation != 0 {
		t.Errorf("expected reputation 0, got %d", posts[0].Author.Reputation)
	}
}

// 投稿後のlistRecentに本文と投稿者IDの一致する投稿が含まれることを検証
func TestScenario_CreateVisibleInListRecent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	s, err := f.authSvc.SignUp(ctx, auth.SignUpInput{
		Email: "ana@x.com", Password: "senha1", Nickname: "Ana",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := f.postSvc.Create(ctx, s.UserID, s.UserID, "hello", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	posts, err := f.postSvc.ListRecent(ctx, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	found := false
	for _, p := range posts {
		if p.Body == "hello" && p.AuthorID == s.UserID {
			found = true
		}
	}
	if !found {
		t.Error("expected created post to appear in listRecent")
	}
}

// 同一投稿者からの並行した2件の投稿が両方永続化され、
// 後から作成された方が先頭に来ることを検証
func TestScenario_ConcurrentCreates(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	s, err := f.authSvc.SignUp(ctx, auth.SignUpInput{
		Email: "ana@x.com", Password: "senha1", Nickname: "Ana",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var wg sync.WaitGroup
	for _, body := range []string{"corpo um", "corpo dois"} {
		wg.Add(1)
		go func(body string) {
			defer wg.Done()
			if _, err := f.postSvc.Create(ctx, s.UserID, s.UserID, body, ""); err != nil {
				t.Errorf("create %q failed: %v", body, err)
			}
		}(body)
	}
	wg.Wait()

	posts, err := f.postSvc.ListRecent(ctx, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(posts))
	}
	if !posts[0].CreatedAt.After(posts[1].CreatedAt) {
		t.Errorf("expected newest-first ordering, got %v then %v", posts[0].CreatedAt, posts[1].CreatedAt)
	}
}

// listRecent(n)がn件を超えず、書き込みがなければ繰り返し同一順序を返すことを検証
func TestScenario_ListRecentBoundedAndStable(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	s, err := f.authSvc.SignUp(ctx, auth.SignUpInput{
		Email: "ana@x.com", Password: "senha1", Nickname: "Ana",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 5; i++ {
		if _, err := f.postSvc.Create(ctx, s.UserID, s.UserID, fmt.Sprintf("post %d", i), ""); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	first, err := f.postSvc.ListRecent(ctx, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first) != 3 {
		t.Fatalf("expected 3 posts, got %d", len(first))
	}

	second, err := f.postSvc.ListRecent(ctx, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("expected stable ordering at %d: %q vs %q", i, first[i].ID, second[i].ID)
		}
	}
}

// サインアウト後はセッションが無効になり、以後の投稿作成が拒否されることを検証
func TestScenario_SignOutInvalidatesSession(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	s, err := f.authSvc.SignUp(ctx, auth.SignUpInput{
		Email: "ana@x.com", Password: "senha1", Nickname: "Ana",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.store.Set(s)

	p := NewPresenter(f.store, f.profileSvc, f.postSvc, f.authSvc, 20)
	if err := p.Logout(ctx); err != ErrRedirectRequired {
		t.Fatalf("expected ErrRedirectRequired, got %v", err)
	}

	if f.store.Current() != nil {
		t.Error("expected cleared local session")
	}
	if _, err := f.authSvc.GetCurrentUser(ctx, s.ID); err == nil {
		t.Error("expected server session to be invalid after sign-out")
	}

	// 未認証での投稿はディスパッチ前に拒否される
	if err := p.SubmitPost(ctx, "should fail"); !errors.Is(err, ErrRedirectRequired) {
		t.Errorf("expected ErrRedirectRequired, got %v", err)
	}
	var apiErr *model.APIError
	if _, err := f.postSvc.Create(ctx, "", s.UserID, "should fail", ""); !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUnauthorized {
		t.Errorf("expected UNAUTHORIZED, got %v", err)
	}
}

// プロフィール行が欠落した場合の修復パスを検証
func TestScenario_ProfileRepair(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	s, err := f.authSvc.SignUp(ctx, auth.SignUpInput{
		Email: "ana@x.com", Password: "senha1", Nickname: "Ana",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 認証情報だけが残りプロフィールが欠落した状態を再現する
	f.backend.mu.Lock()
	delete(f.backend.profiles, s.UserID)
	f.backend.mu.Unlock()

	var apiErr *model.APIError
	if _, err := f.profileSvc.Get(ctx, s.UserID); !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeProfileNotFound {
		t.Fatalf("expected PROFILE_NOT_FOUND, got %v", err)
	}

	user, err := f.authSvc.GetCurrentUser(ctx, s.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	repaired, err := f.profileSvc.Ensure(ctx, user, "Ana")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repaired.Nickname != "Ana" {
		t.Errorf("expected repaired nickname Ana, got %q", repaired.Nickname)
	}

	if _, err := f.profileSvc.Get(ctx, s.UserID); err != nil {
		t.Errorf("expected profile to exist after repair, got %v", err)
	}
}

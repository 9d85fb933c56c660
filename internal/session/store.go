// Package session はプロセス内のセッション状態と変更通知を提供する。
// グローバル変数ではなく、アプリケーションを構成する側に注入される
// 明示的なインスタンスとして扱う。
package session

import (
	"sync"

	"github.com/hitoshi/portella/internal/model"
)

// Listener はセッション遷移の通知を受け取るコールバック。
// サインイン時は新しいセッション、サインアウト時はnilが渡される。
type Listener func(*model.Session)

// Store は現在の認証済みセッション（または未認証状態）を保持し、
// 遷移のたびに購読者へ通知する。
// 通知は遷移が発生した順序で、各遷移につき少なくとも1回行われる。
// セッション不在時のリダイレクトといったポリシーは呼び出し側の責務。
type Store struct {
	mu        sync.Mutex
	current   *model.Session
	listeners []*listenerEntry
}

type listenerEntry struct {
	fn      Listener
	removed bool
}

// NewStore は空の状態で初期化されたStoreを生成する。
func NewStore() *Store {
	return &Store{}
}

// Current は現在のセッションを返す。未認証の場合はnil。
func (s *Store) Current() *model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Set はセッション遷移を記録し、購読者へ通知する。
// 通知はロック保持中に同期的に行うことで、遷移順序どおりの配送を保証する。
// リスナー内からStoreのメソッドを呼び出してはならない。
func (s *Store) Set(session *model.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = session
	for _, entry := range s.listeners {
		if !entry.removed {
			entry.fn(session)
		}
	}
}

// Clear は未認証状態への遷移を記録し、購読者へ通知する。
func (s *Store) Clear() {
	s.Set(nil)
}

// Subscribe はセッション遷移のリスナーを登録し、解除用の関数を返す。
// 解除後のリスナーは以降の遷移で呼び出されない。
func (s *Store) Subscribe(fn Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := &listenerEntry{fn: fn}
	s.listeners = append(s.listeners, entry)

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		entry.removed = true
	}
}

package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore はプロセス内メモリに保持するセッションストア。
// 単一ノード構成のデフォルト実装。期限切れセッションはアクセス時に破棄する。
type MemoryStore struct {
	// mu はsessionsを保護する。
	mu sync.Mutex
	// sessions はセッションIDからエントリへのマップ。
	sessions map[string]*memoryEntry
	// ttl はセッションの有効期間。
	ttl time.Duration
}

// memoryEntry はメモリ上のセッション。
type memoryEntry struct {
	jwt       string
	expiresAt time.Time
}

// NewMemoryStore は新しいインメモリセッションストアを生成する。
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*memoryEntry),
		ttl:      ttl,
	}
}

// Create は新しいセッションを生成し、セッションIDを返す。
func (s *MemoryStore) Create(_ context.Context) (string, error) {
	id := uuid.New().String()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = &memoryEntry{expiresAt: time.Now().Add(s.ttl)}
	return id, nil
}

// JWT はセッションのJWTスロットを返す。
func (s *MemoryStore) JWT(_ context.Context, id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.lookup(id)
	if !ok {
		return "", ErrNotFound
	}
	return entry.jwt, nil
}

// SetJWT はセッションのJWTスロットを設定し、有効期限を更新する。
func (s *MemoryStore) SetJWT(_ context.Context, id, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.lookup(id)
	if !ok {
		return ErrNotFound
	}
	entry.jwt = token
	entry.expiresAt = time.Now().Add(s.ttl)
	return nil
}

// Destroy はセッションを破棄する。
func (s *MemoryStore) Destroy(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// lookup はセッションを検索し、期限切れなら破棄してnot foundとして扱う。
// 呼び出し側でmuを保持していること。
func (s *MemoryStore) lookup(id string) (*memoryEntry, bool) {
	entry, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		delete(s.sessions, id)
		return nil, false
	}
	return entry, true
}

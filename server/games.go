package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/powellquiring/wordleplayer/wordle"
)

var errGameNotFound = errors.New("game not found")

// session is a game in progress.  With a puzzle the server referees the guesses, without
// one the caller plays a puzzle elsewhere and reports the feedback.
type session struct {
	mu     sync.Mutex // guards game
	id     string
	puzzle *wordle.Puzzle
	game   *wordle.Game
}

// gameStore keeps the sessions between requests.
type gameStore interface {
	Save(ctx context.Context, s *session) error
	Get(ctx context.Context, id string) (*session, error)
}

type entry struct {
	session  *session
	lastUsed time.Time
}

// memory drops games idle for longer than ttl, and the least recently used game when
// it is full.
type memory struct {
	mu    sync.Mutex
	games map[string]*entry
	ttl   time.Duration
	max   int
	now   func() time.Time
}

func newMemoryStore(ttl time.Duration, max int) *memory {
	return &memory{games: make(map[string]*entry), ttl: ttl, max: max, now: time.Now}
}

func (m *memory) Save(ctx context.Context, s *session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	m.evict(now)
	m.games[s.id] = &entry{session: s, lastUsed: now}
	return nil
}

func (m *memory) Get(ctx context.Context, id string) (*session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.games[id]
	if !ok {
		return nil, errGameNotFound
	}
	now := m.now()
	if m.ttl > 0 && now.Sub(e.lastUsed) > m.ttl {
		delete(m.games, id)
		return nil, errGameNotFound
	}
	e.lastUsed = now
	return e.session, nil
}

func (m *memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.games)
}

// evict makes room for one more game, m.mu must be held.
func (m *memory) evict(now time.Time) {
	if m.ttl > 0 {
		for id, e := range m.games {
			if now.Sub(e.lastUsed) > m.ttl {
				delete(m.games, id)
			}
		}
	}
	for m.max > 0 && len(m.games) >= m.max {
		oldest := ""
		for id, e := range m.games {
			if oldest == "" || e.lastUsed.Before(m.games[oldest].lastUsed) {
				oldest = id
			}
		}
		delete(m.games, oldest)
	}
}

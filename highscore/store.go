// Package highscore stores final scores reported at game over and serves
// them over a small JSON API.
package highscore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// ListLimit caps the number of records List returns.
const ListLimit = 100

var ErrInvalidScore = errors.New("highscore: invalid score")

// ValidationError names the offending field of a rejected score.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidScore }

type InsertScore struct {
	PlayerName string `json:"playerName"`
	Score      int    `json:"score"`
}

func (s InsertScore) Validate() error {
	if strings.TrimSpace(s.PlayerName) == "" {
		return &ValidationError{Field: "playerName", Message: "playerName is required"}
	}
	if s.Score < 0 {
		return &ValidationError{Field: "score", Message: "score must not be negative"}
	}
	return nil
}

type Highscore struct {
	ID         int64     `json:"id"`
	PlayerName string    `json:"playerName"`
	Score      int       `json:"score"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Store persists highscores.
type Store interface {
	Create(ctx context.Context, s InsertScore) (Highscore, error)
	// List returns up to ListLimit records, best score first.
	List(ctx context.Context) ([]Highscore, error)
}

// MemoryStore is a process-lifetime Store.
type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	rows   []Highscore
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (m *MemoryStore) Create(ctx context.Context, s InsertScore) (Highscore, error) {
	if err := ctx.Err(); err != nil {
		return Highscore{}, err
	}
	if err := s.Validate(); err != nil {
		return Highscore{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	h := Highscore{
		ID:         m.nextID,
		PlayerName: s.PlayerName,
		Score:      s.Score,
		CreatedAt:  m.now(),
	}
	m.rows = append(m.rows, h)
	return h, nil
}

func (m *MemoryStore) List(ctx context.Context) ([]Highscore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	out := make([]Highscore, len(m.rows))
	copy(out, m.rows)
	m.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > ListLimit {
		out = out[:ListLimit]
	}
	return out, nil
}

// Package store persists per-owner preferences: display-name overrides and
// extra stop words. Messages themselves are never persisted.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// Preferences holds the user-configurable analysis inputs. Values are
// stored trimmed; empties mean "use the default".
type Preferences struct {
	UserName      string   `json:"user_name,omitempty"`
	AssistantName string   `json:"assistant_name,omitempty"`
	StopWords     []string `json:"stop_words,omitempty"`
}

// Overrides renders the preferences as a role → display-name map.
func (p Preferences) Overrides() map[string]string {
	overrides := make(map[string]string, 2)
	if p.UserName != "" {
		overrides["user"] = p.UserName
	}
	if p.AssistantName != "" {
		overrides["assistant"] = p.AssistantName
	}
	return overrides
}

// Sanitize trims every field and drops empty stop words.
func (p Preferences) Sanitize() Preferences {
	out := Preferences{
		UserName:      strings.TrimSpace(p.UserName),
		AssistantName: strings.TrimSpace(p.AssistantName),
	}
	for _, w := range p.StopWords {
		if w = strings.TrimSpace(w); w != "" {
			out.StopWords = append(out.StopWords, w)
		}
	}
	return out
}

// Get fetches the preferences for an owner.
func (s *Store) Get(ctx context.Context, owner uuid.UUID) (*Preferences, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT user_name, assistant_name, stop_words
		FROM preferences WHERE owner_uuid = $1`, owner)

	var p Preferences
	if err := row.Scan(&p.UserName, &p.AssistantName, &p.StopWords); err != nil {
		return nil, err
	}
	return &p, nil
}

// Upsert writes the preferences for an owner, replacing any existing row.
func (s *Store) Upsert(ctx context.Context, owner uuid.UUID, p Preferences) error {
	p = p.Sanitize()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO preferences (owner_uuid, user_name, assistant_name, stop_words, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (owner_uuid) DO UPDATE
		SET user_name = $2, assistant_name = $3, stop_words = $4, updated_at = now()`,
		owner, p.UserName, p.AssistantName, p.StopWords,
	)
	if err != nil {
		return fmt.Errorf("upsert preferences: %w", err)
	}
	return nil
}

// IsNotFound reports whether err is the missing-row case from Get.
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

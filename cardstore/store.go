// Package cardstore persists cards and review history in SQLite.
//
// It implements the session package's Store and Recorder boundaries on top
// of modernc.org/sqlite, so a review flow can be wired end to end without
// any external database.
package cardstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/rote-dev/rote"
	"github.com/rote-dev/rote/session"
)

// ErrNotFound is returned when an operation names a card that does not exist.
var ErrNotFound = errors.New("cardstore: card not found")

// Store is a SQLite-backed card store.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

// Compile-time checks: the store satisfies the session boundaries.
var (
	_ session.Store    = (*Store)(nil)
	_ session.Recorder = (*Store)(nil)
)

// Open opens (creating if necessary) the database at path and runs
// migrations. Use ":memory:" for an in-memory database in tests. The
// database is opened with WAL mode and a single writer connection.
func Open(path string) (*Store, error) {
	return OpenWithLogger(path, slog.Default())
}

// OpenWithLogger is Open with an explicit logger.
func OpenWithLogger(path string, logger *slog.Logger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("cardstore: path is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("cardstore: create directory: %w", err)
		}
	}

	// modernc.org/sqlite uses _pragma=name(value) DSN syntax.
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cardstore: open database: %w", err)
	}

	// SQLite handles concurrency better with a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("cardstore: connect: %w", err)
	}

	s := &Store{db: db, log: logger}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("cardstore: migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection for advanced use cases.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS cards (
			id            TEXT PRIMARY KEY,
			user_id       TEXT NOT NULL,
			deck_id       TEXT NOT NULL,
			front         TEXT NOT NULL,
			back          TEXT NOT NULL,
			interval      INTEGER NOT NULL DEFAULT 0,
			repetitions   INTEGER NOT NULL DEFAULT 0,
			ease_factor   REAL NOT NULL DEFAULT 2.5,
			lapses        INTEGER NOT NULL DEFAULT 0,
			last_reviewed INTEGER,
			next_review   INTEGER
		);
		CREATE INDEX IF NOT EXISTS idx_cards_user ON cards(user_id);
		CREATE INDEX IF NOT EXISTS idx_cards_user_deck ON cards(user_id, deck_id);

		CREATE TABLE IF NOT EXISTS reviews (
			id               TEXT PRIMARY KEY,
			card_id          TEXT NOT NULL REFERENCES cards(id),
			response         TEXT NOT NULL,
			reviewed_at      INTEGER NOT NULL,
			duration_seconds INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_reviews_card ON reviews(card_id);
	`)
	return err
}

// CreateCard inserts a new card with zero scheduling state and returns it.
func (s *Store) CreateCard(ctx context.Context, userID, deckID, front, back string) (rote.Card, error) {
	card := rote.NewCard(userID, deckID, front, back)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cards (id, user_id, deck_id, front, back)
		VALUES (?, ?, ?, ?, ?)
	`, card.ID, card.UserID, card.DeckID, card.Front, card.Back)
	if err != nil {
		return rote.Card{}, fmt.Errorf("cardstore: create card: %w", err)
	}
	return card, nil
}

// CardsForUser returns every card owned by the user.
func (s *Store) CardsForUser(ctx context.Context, userID string) ([]rote.Card, error) {
	return s.queryCards(ctx, `
		SELECT id, user_id, deck_id, front, back,
		       interval, repetitions, ease_factor, lapses, last_reviewed, next_review
		FROM cards WHERE user_id = ?
	`, userID)
}

// CardsForDeck returns the user's cards in one deck.
func (s *Store) CardsForDeck(ctx context.Context, userID, deckID string) ([]rote.Card, error) {
	return s.queryCards(ctx, `
		SELECT id, user_id, deck_id, front, back,
		       interval, repetitions, ease_factor, lapses, last_reviewed, next_review
		FROM cards WHERE user_id = ? AND deck_id = ?
	`, userID, deckID)
}

func (s *Store) queryCards(ctx context.Context, query string, args ...any) ([]rote.Card, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("cardstore: query cards: %w", err)
	}
	defer rows.Close()

	var cards []rote.Card
	for rows.Next() {
		var (
			c          rote.Card
			lastMillis sql.NullInt64
			nextMillis sql.NullInt64
		)
		err := rows.Scan(&c.ID, &c.UserID, &c.DeckID, &c.Front, &c.Back,
			&c.Stats.Interval, &c.Stats.Repetitions, &c.Stats.EaseFactor,
			&c.Stats.Lapses, &lastMillis, &nextMillis)
		if err != nil {
			return nil, fmt.Errorf("cardstore: scan card: %w", err)
		}
		c.Stats.LastReviewed = millisToTime(lastMillis)
		c.Stats.NextReview = millisToTime(nextMillis)
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cardstore: iterate cards: %w", err)
	}
	return cards, nil
}

// UpdateCardStats writes the card's scheduling state. Applying the same
// stats twice yields the same row, so retries are safe. Returns ErrNotFound
// for an unknown card ID.
func (s *Store) UpdateCardStats(ctx context.Context, cardID string, stats rote.CardStats) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE cards
		SET interval = ?, repetitions = ?, ease_factor = ?, lapses = ?,
		    last_reviewed = ?, next_review = ?
		WHERE id = ?
	`, stats.Interval, stats.Repetitions, stats.EaseFactor, stats.Lapses,
		timeToMillis(stats.LastReviewed), timeToMillis(stats.NextReview), cardID)
	if err != nil {
		return fmt.Errorf("cardstore: update card stats: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("cardstore: update card stats: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, cardID)
	}
	return nil
}

// RecordReview appends one review event. Failures are logged, not returned:
// review history is advisory and must never block a session.
func (s *Store) RecordReview(ctx context.Context, r session.Review) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reviews (id, card_id, response, reviewed_at, duration_seconds)
		VALUES (?, ?, ?, ?, ?)
	`, uuid.NewString(), r.CardID, r.Response.String(), r.ReviewedAt.UnixMilli(), r.DurationSeconds)
	if err != nil {
		s.log.Warn("record review failed", "card_id", r.CardID, "error", err)
	}
}

// ReviewsForCard returns the card's review history, oldest first.
func (s *Store) ReviewsForCard(ctx context.Context, cardID string) ([]session.Review, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT card_id, response, reviewed_at, duration_seconds
		FROM reviews WHERE card_id = ? ORDER BY reviewed_at
	`, cardID)
	if err != nil {
		return nil, fmt.Errorf("cardstore: query reviews: %w", err)
	}
	defer rows.Close()

	var reviews []session.Review
	for rows.Next() {
		var (
			r        session.Review
			name     string
			atMillis int64
		)
		if err := rows.Scan(&r.CardID, &name, &atMillis, &r.DurationSeconds); err != nil {
			return nil, fmt.Errorf("cardstore: scan review: %w", err)
		}
		if err := r.Response.UnmarshalText([]byte(name)); err != nil {
			return nil, fmt.Errorf("cardstore: scan review: %w", err)
		}
		r.ReviewedAt = time.UnixMilli(atMillis).UTC()
		reviews = append(reviews, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cardstore: iterate reviews: %w", err)
	}
	return reviews, nil
}

// DueCounts returns, per deck, how many of the user's cards are due at now.
func (s *Store) DueCounts(ctx context.Context, userID string, now time.Time) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT deck_id, COUNT(*)
		FROM cards
		WHERE user_id = ? AND (next_review IS NULL OR next_review <= ?)
		GROUP BY deck_id
	`, userID, now.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("cardstore: query due counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			deckID string
			n      int
		)
		if err := rows.Scan(&deckID, &n); err != nil {
			return nil, fmt.Errorf("cardstore: scan due count: %w", err)
		}
		counts[deckID] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cardstore: iterate due counts: %w", err)
	}
	return counts, nil
}

func timeToMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func millisToTime(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.UnixMilli(v.Int64).UTC()
	return &t
}

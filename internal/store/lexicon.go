package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// GetOrCreatePOS returns the id of the part-of-speech label, inserting it on
// first sight. The n-gram order recorded with the label is the one it was
// first seen with; later sightings never update it.
func (s *Store) GetOrCreatePOS(ctx context.Context, label string, ngramLength int) (int64, error) {
	var id int64
	err := s.db.QueryRow(ctx,
		`INSERT INTO a4s_pos (ngram_length, label) VALUES ($1, $2)
		 ON CONFLICT (label) DO NOTHING
		 RETURNING id`,
		ngramLength, label).Scan(&id)
	if err == nil {
		s.logger.Debug("created pos", "label", label, "id", id)
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("failed to insert pos %q: %w", label, err)
	}

	if err := s.db.QueryRow(ctx,
		`SELECT id FROM a4s_pos WHERE label = $1`, label).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to look up pos %q: %w", label, err)
	}
	return id, nil
}

// GetOrCreateNgram returns the id of the n-gram word, inserting it on first
// sight. The part-of-speech assignment is first-seen-wins: a later sighting
// with a different POS keeps the original one.
func (s *Store) GetOrCreateNgram(ctx context.Context, word string, posID int64) (int64, error) {
	var id int64
	err := s.db.QueryRow(ctx,
		`INSERT INTO a4s_ngrams (word, pos_id) VALUES ($1, $2)
		 ON CONFLICT (word) DO NOTHING
		 RETURNING id`,
		word, posID).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("failed to insert ngram %q: %w", word, err)
	}

	if err := s.db.QueryRow(ctx,
		`SELECT id FROM a4s_ngrams WHERE word = $1`, word).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to look up ngram %q: %w", word, err)
	}
	return id, nil
}

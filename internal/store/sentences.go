package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// InsertObjectSentence stores one sentence of a learning object together with
// its n-gram occurrences as a single transaction. When the exact sentence is
// already stored for the object, nothing is inserted and created is false;
// the occurrence rows from the first insert remain the frequency basis.
func (s *Store) InsertObjectSentence(ctx context.Context, objectID int64, text string, timeTaken float64, ngramIDs []int64) (id int64, created bool, err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx,
		`INSERT INTO a4s_object_sentences (object_id, sentence, time_taken)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (object_id, sentence) DO NOTHING
		 RETURNING id`,
		objectID, text, timeTaken).Scan(&id)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return 0, false, fmt.Errorf("failed to insert sentence: %w", err)
		}
		// Already stored: look up the id, keep the existing occurrences.
		if err := tx.QueryRow(ctx,
			`SELECT id FROM a4s_object_sentences WHERE object_id = $1 AND sentence = $2`,
			objectID, text).Scan(&id); err != nil {
			return 0, false, fmt.Errorf("failed to look up sentence: %w", err)
		}
		if err := tx.Commit(ctx); err != nil {
			return 0, false, fmt.Errorf("failed to commit: %w", err)
		}
		return id, false, nil
	}

	for _, ngramID := range ngramIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO a4s_object_sentence_ngrams (sentence_id, ngram_id) VALUES ($1, $2)`,
			id, ngramID); err != nil {
			return 0, false, fmt.Errorf("failed to insert sentence ngram: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, false, fmt.Errorf("failed to commit: %w", err)
	}
	return id, true, nil
}

// InsertQuestionSentence stores one sentence of a forum question with its
// n-gram occurrences, as a single transaction. Duplicate (post, sentence)
// pairs are left untouched.
func (s *Store) InsertQuestionSentence(ctx context.Context, courseID, postID int64, text string, timeTaken float64, answered bool, ngramIDs []int64) (int64, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id int64
	err = tx.QueryRow(ctx,
		`INSERT INTO a4s_question_sentences (course_id, post_id, sentence, time_taken, answered)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (post_id, sentence) DO NOTHING
		 RETURNING id`,
		courseID, postID, text, timeTaken, answered).Scan(&id)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("failed to insert question sentence: %w", err)
		}
		if err := tx.QueryRow(ctx,
			`SELECT id FROM a4s_question_sentences WHERE post_id = $1 AND sentence = $2`,
			postID, text).Scan(&id); err != nil {
			return 0, fmt.Errorf("failed to look up question sentence: %w", err)
		}
		if err := tx.Commit(ctx); err != nil {
			return 0, fmt.Errorf("failed to commit: %w", err)
		}
		return id, nil
	}

	for _, ngramID := range ngramIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO a4s_question_sentence_ngrams (sentence_id, ngram_id) VALUES ($1, $2)`,
			id, ngramID); err != nil {
			return 0, fmt.Errorf("failed to insert question sentence ngram: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	return id, nil
}

// PostSeen reports whether any sentence has been stored for the posting,
// which marks it as already processed by a forum scan.
func (s *Store) PostSeen(ctx context.Context, postID int64) (bool, error) {
	var seen bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM a4s_question_sentences WHERE post_id = $1)`,
		postID).Scan(&seen)
	if err != nil {
		return false, fmt.Errorf("failed to check post: %w", err)
	}
	return seen, nil
}

// MarkPostAnswered flips every sentence of the posting to answered.
func (s *Store) MarkPostAnswered(ctx context.Context, postID int64) error {
	if _, err := s.db.Exec(ctx,
		`UPDATE a4s_question_sentences SET answered = TRUE WHERE post_id = $1`, postID); err != nil {
		return fmt.Errorf("failed to mark post answered: %w", err)
	}
	return nil
}

// SentenceTexts returns the text of the given object sentences keyed by id.
func (s *Store) SentenceTexts(ctx context.Context, sentenceIDs []int64) (map[int64]string, error) {
	if len(sentenceIDs) == 0 {
		return map[int64]string{}, nil
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, sentence FROM a4s_object_sentences WHERE id = ANY($1)`, sentenceIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query sentence texts: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]string, len(sentenceIDs))
	for rows.Next() {
		var id int64
		var text string
		if err := rows.Scan(&id, &text); err != nil {
			return nil, fmt.Errorf("failed to scan sentence text: %w", err)
		}
		out[id] = text
	}
	return out, rows.Err()
}

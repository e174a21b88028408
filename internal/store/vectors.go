package store

import (
	"context"
	"fmt"

	"github.com/openlms/ask4summary/internal/rank"
)

// ObjectVectors builds the n-gram count vector of every parsed object in the
// course, restricted to the given n-gram dimensions. The returned id slice
// preserves object insertion order so downstream ranking stays deterministic.
// Objects without any of the dimensions get a zero vector.
func (s *Store) ObjectVectors(ctx context.Context, courseID int64, ngramIDs []int64) ([]int64, map[int64]rank.Vector, error) {
	objectIDs, err := s.CourseObjectIDs(ctx, courseID)
	if err != nil {
		return nil, nil, err
	}

	vectors := make(map[int64]rank.Vector, len(objectIDs))
	for _, id := range objectIDs {
		vectors[id] = rank.Vector{}
	}

	if len(ngramIDs) == 0 || len(objectIDs) == 0 {
		return objectIDs, vectors, nil
	}

	rows, err := s.db.Query(ctx,
		`SELECT o.id, sn.ngram_id, COUNT(*)
		 FROM a4s_objects o
		 JOIN a4s_object_sentences s ON s.object_id = o.id
		 JOIN a4s_object_sentence_ngrams sn ON sn.sentence_id = s.id
		 WHERE o.course_id = $1 AND o.parsed AND sn.ngram_id = ANY($2)
		 GROUP BY o.id, sn.ngram_id`,
		courseID, ngramIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query object vectors: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var objectID, ngramID int64
		var count int
		if err := rows.Scan(&objectID, &ngramID, &count); err != nil {
			return nil, nil, fmt.Errorf("failed to scan object vector row: %w", err)
		}
		if v, ok := vectors[objectID]; ok {
			v[ngramID] = count
		}
	}
	return objectIDs, vectors, rows.Err()
}

// SentenceVectors builds the n-gram count vector of every sentence belonging
// to the given objects, restricted to the given n-gram dimensions. Sentences
// without any of the dimensions get a zero vector.
func (s *Store) SentenceVectors(ctx context.Context, objectIDs, ngramIDs []int64) ([]int64, map[int64]rank.Vector, error) {
	if len(objectIDs) == 0 {
		return nil, map[int64]rank.Vector{}, nil
	}

	rows, err := s.db.Query(ctx,
		`SELECT id FROM a4s_object_sentences WHERE object_id = ANY($1) ORDER BY id`, objectIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list object sentences: %w", err)
	}
	defer rows.Close()

	var sentenceIDs []int64
	vectors := map[int64]rank.Vector{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, nil, fmt.Errorf("failed to scan sentence id: %w", err)
		}
		sentenceIDs = append(sentenceIDs, id)
		vectors[id] = rank.Vector{}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	if len(ngramIDs) == 0 || len(sentenceIDs) == 0 {
		return sentenceIDs, vectors, nil
	}

	countRows, err := s.db.Query(ctx,
		`SELECT sentence_id, ngram_id, COUNT(*)
		 FROM a4s_object_sentence_ngrams
		 WHERE sentence_id = ANY($1) AND ngram_id = ANY($2)
		 GROUP BY sentence_id, ngram_id`,
		sentenceIDs, ngramIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query sentence vectors: %w", err)
	}
	defer countRows.Close()

	for countRows.Next() {
		var sentenceID, ngramID int64
		var count int
		if err := countRows.Scan(&sentenceID, &ngramID, &count); err != nil {
			return nil, nil, fmt.Errorf("failed to scan sentence vector row: %w", err)
		}
		if v, ok := vectors[sentenceID]; ok {
			v[ngramID] = count
		}
	}
	return sentenceIDs, vectors, countRows.Err()
}

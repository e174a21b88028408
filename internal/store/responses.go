package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// CreateResponseParams captures one posted reply for the response log.
type CreateResponseParams struct {
	CourseID    int64
	PostID      int64
	ReplyPostID int64
	Question    string
	Summary     string
	NgramList   string
	TimeTaken   float64
}

// CreateResponse appends a reply record. The log is append-only: repeated
// questions get their own rows pointing at the same summary text.
func (s *Store) CreateResponse(ctx context.Context, p CreateResponseParams) (int64, error) {
	var id int64
	err := s.db.QueryRow(ctx,
		`INSERT INTO a4s_responses (course_id, post_id, reply_post_id, question, summary, ngram_list, time_taken)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		p.CourseID, p.PostID, p.ReplyPostID, p.Question, p.Summary, p.NgramList, p.TimeTaken).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create response: %w", err)
	}
	s.logger.Debug("recorded response", "id", id, "course", p.CourseID, "post", p.PostID)
	return id, nil
}

// ResponseByFingerprint finds the earliest reply in a course whose question
// had exactly the same n-gram fingerprint. Returns ErrNotFound on a miss.
func (s *Store) ResponseByFingerprint(ctx context.Context, courseID int64, fingerprint string) (*Response, error) {
	row := s.db.QueryRow(ctx,
		`SELECT id, course_id, post_id, reply_post_id, question, summary, ngram_list, time_taken, created_at
		 FROM a4s_responses
		 WHERE course_id = $1 AND ngram_list = $2
		 ORDER BY id
		 LIMIT 1`,
		courseID, fingerprint)

	var r Response
	err := row.Scan(&r.ID, &r.CourseID, &r.PostID, &r.ReplyPostID,
		&r.Question, &r.Summary, &r.NgramList, &r.TimeTaken, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("response for fingerprint %q: %w", fingerprint, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to look up response: %w", err)
	}
	return &r, nil
}

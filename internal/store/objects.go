package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const objectColumns = `id, course_id, module_id, name, url, depth, mime_type, parsed, created_at`

// CreateObjectParams describes the identity and metadata of a new learning
// object. Exactly one of ModuleID or URL identifies the object together with
// Depth (and CourseID for URL-keyed objects).
type CreateObjectParams struct {
	CourseID int64
	ModuleID *int64
	Name     string
	URL      *string
	Depth    int
	MimeType string
	Parsed   bool
}

// CreateObject inserts a learning object and returns it.
func (s *Store) CreateObject(ctx context.Context, p CreateObjectParams) (*Object, error) {
	row := s.db.QueryRow(ctx,
		`INSERT INTO a4s_objects (course_id, module_id, name, url, depth, mime_type, parsed)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+objectColumns,
		p.CourseID, p.ModuleID, p.Name, p.URL, p.Depth, p.MimeType, p.Parsed)

	var o Object
	if err := scanObject(row, &o); err != nil {
		return nil, fmt.Errorf("failed to create object: %w", err)
	}
	s.logger.Debug("created object", "id", o.ID, "course", o.CourseID, "name", o.Name)
	return &o, nil
}

// ObjectByModule finds the object ingested for a course module at the given
// depth. Returns ErrNotFound when the module has not been ingested.
func (s *Store) ObjectByModule(ctx context.Context, moduleID int64, depth int) (*Object, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+objectColumns+` FROM a4s_objects WHERE module_id = $1 AND depth = $2`,
		moduleID, depth)

	var o Object
	if err := scanObject(row, &o); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("object for module %d depth %d: %w", moduleID, depth, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get object by module: %w", err)
	}
	return &o, nil
}

// ObjectByURL finds the object ingested for a crawled URL within a course at
// the given depth. Returns ErrNotFound when the URL has not been ingested.
func (s *Store) ObjectByURL(ctx context.Context, courseID int64, url string, depth int) (*Object, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+objectColumns+` FROM a4s_objects
		 WHERE course_id = $1 AND url = $2 AND depth = $3 AND module_id IS NULL`,
		courseID, url, depth)

	var o Object
	if err := scanObject(row, &o); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("object for url %q depth %d: %w", url, depth, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get object by url: %w", err)
	}
	return &o, nil
}

// SetObjectParsed flips the parsed flag of an object.
func (s *Store) SetObjectParsed(ctx context.Context, objectID int64, parsed bool) error {
	if _, err := s.db.Exec(ctx,
		`UPDATE a4s_objects SET parsed = $2 WHERE id = $1`, objectID, parsed); err != nil {
		return fmt.Errorf("failed to update object parsed flag: %w", err)
	}
	return nil
}

// DeleteObject removes an object and, through cascades, its sentences and
// n-gram occurrences. Used to roll back a partially ingested unit.
func (s *Store) DeleteObject(ctx context.Context, objectID int64) error {
	if _, err := s.db.Exec(ctx,
		`DELETE FROM a4s_objects WHERE id = $1`, objectID); err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	s.logger.Debug("deleted object", "id", objectID)
	return nil
}

// CourseObjectIDs lists the ids of all parsed objects in a course, in
// insertion order.
func (s *Store) CourseObjectIDs(ctx context.Context, courseID int64) ([]int64, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id FROM a4s_objects WHERE course_id = $1 AND parsed ORDER BY id`, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list course objects: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan object id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanObject(row pgx.Row, o *Object) error {
	return row.Scan(&o.ID, &o.CourseID, &o.ModuleID, &o.Name, &o.URL,
		&o.Depth, &o.MimeType, &o.Parsed, &o.CreatedAt)
}

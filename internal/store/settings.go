package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const settingsColumns = `id, course_id, forum_id, enabled, helper_name, response_type,
	enable_url, enable_pdf, enable_docx, enable_pptx, enable_page,
	crawl_depth, top_docs, top_sentences`

// EnabledCourses returns the settings of every course with scanning enabled.
func (s *Store) EnabledCourses(ctx context.Context) ([]Settings, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+settingsColumns+` FROM a4s_settings WHERE enabled ORDER BY course_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query enabled courses: %w", err)
	}
	defer rows.Close()

	var out []Settings
	for rows.Next() {
		var st Settings
		if err := scanSettings(rows, &st); err != nil {
			return nil, fmt.Errorf("failed to scan settings row: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// CourseSettings returns the settings for one course.
// Returns ErrNotFound when the course has no settings row.
func (s *Store) CourseSettings(ctx context.Context, courseID int64) (*Settings, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+settingsColumns+` FROM a4s_settings WHERE course_id = $1`, courseID)

	var st Settings
	if err := scanSettings(row, &st); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("course %d settings: %w", courseID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get course settings: %w", err)
	}
	return &st, nil
}

func scanSettings(row pgx.Row, st *Settings) error {
	return row.Scan(
		&st.ID, &st.CourseID, &st.ForumID, &st.Enabled, &st.HelperName, &st.ResponseType,
		&st.EnableURL, &st.EnablePDF, &st.EnableDOCX, &st.EnablePPTX, &st.EnablePage,
		&st.CrawlDepth, &st.TopDocs, &st.TopSentences,
	)
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"mentora/internal/model"
)

type LectureRepository interface {
	GetLecturesByCourseID(ctx context.Context, courseID string, limit, offset int) ([]model.Lecture, error)
	GetLectureByID(ctx context.Context, lectureID string) (*model.Lecture, error)
	// UpdateLectureFields applies a partial update, skipping nil fields.
	// updated_at is always refreshed server-side.
	UpdateLectureFields(ctx context.Context, lectureID string, u model.LectureUpdate) (*model.Lecture, error)
	DeleteLecture(ctx context.Context, lectureID string) error
}

type lectureRepository struct {
	db *sql.DB
}

func NewLectureRepository(db *sql.DB) LectureRepository {
	return &lectureRepository{db: db}
}

const lectureColumns = "id, course_id, title, description, video_url, article_content, duration, is_free, created_at, updated_at"

func scanLecture(row interface{ Scan(...any) error }, l *model.Lecture) error {
	return row.Scan(
		&l.ID,
		&l.CourseID,
		&l.Title,
		&l.Description,
		&l.VideoURL,
		&l.ArticleContent,
		&l.Duration,
		&l.IsFree,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
}

func (r *lectureRepository) GetLecturesByCourseID(ctx context.Context, courseID string, limit, offset int) ([]model.Lecture, error) {
	query := `
		SELECT ` + lectureColumns + `
		FROM lectures
		WHERE course_id = $1
		ORDER BY created_at ASC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, courseID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query lectures by course: %w", err)
	}
	defer rows.Close()

	var lectures []model.Lecture
	for rows.Next() {
		var lecture model.Lecture
		if err := scanLecture(rows, &lecture); err != nil {
			return nil, fmt.Errorf("failed to scan lecture row: %w", err)
		}
		lectures = append(lectures, lecture)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return lectures, nil
}

func (r *lectureRepository) GetLectureByID(ctx context.Context, lectureID string) (*model.Lecture, error) {
	query := `
		SELECT ` + lectureColumns + `
		FROM lectures
		WHERE id = $1
	`
	row := r.db.QueryRowContext(ctx, query, lectureID)
	var lecture model.Lecture
	if err := scanLecture(row, &lecture); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan lecture row: %w", err)
	}
	return &lecture, nil
}

func (r *lectureRepository) UpdateLectureFields(ctx context.Context, lectureID string, u model.LectureUpdate) (*model.Lecture, error) {
	sets := []string{"updated_at = NOW()"}
	args := []any{}

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if u.Title != nil {
		add("title", *u.Title)
	}
	if u.Description != nil {
		add("description", *u.Description)
	}
	if u.VideoURL != nil {
		add("video_url", *u.VideoURL)
	}
	if u.ArticleContent != nil {
		add("article_content", *u.ArticleContent)
	}
	if u.Duration != nil {
		add("duration", *u.Duration)
	}
	if u.IsFree != nil {
		add("is_free", *u.IsFree)
	}

	args = append(args, lectureID)
	query := fmt.Sprintf(`
		UPDATE lectures
		SET %s
		WHERE id = $%d
		RETURNING %s
	`, strings.Join(sets, ", "), len(args), lectureColumns)

	var lecture model.Lecture
	if err := scanLecture(r.db.QueryRowContext(ctx, query, args...), &lecture); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update lecture: %w", err)
	}
	return &lecture, nil
}

func (r *lectureRepository) DeleteLecture(ctx context.Context, lectureID string) error {
	query := `DELETE FROM lectures WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, lectureID); err != nil {
		return fmt.Errorf("failed to delete lecture: %w", err)
	}
	return nil
}

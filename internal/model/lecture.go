package model

import "time"

// Lecture represents the metadata for a course lecture, including its
// uploaded video asset.
type Lecture struct {
	ID             string    `db:"id" json:"id"`
	CourseID       string    `db:"course_id" json:"course_id"`
	Title          string    `db:"title" json:"title"`
	Description    string    `db:"description" json:"description"`
	VideoURL       *string   `db:"video_url" json:"video_url"`       // relative public path, nil until a video is merged
	ArticleContent *string   `db:"article_content" json:"article_content"`
	Duration       int       `db:"duration" json:"duration"` // seconds, 0 when absent
	IsFree         bool      `db:"is_free" json:"is_free"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// LectureUpdate carries a partial set of lecture fields. Nil fields are
// omitted from the persisted update.
type LectureUpdate struct {
	Title          *string
	Description    *string
	VideoURL       *string
	ArticleContent *string
	Duration       *int
	IsFree         *bool
}

// Empty reports whether the update carries no fields at all.
func (u LectureUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.VideoURL == nil &&
		u.ArticleContent == nil && u.Duration == nil && u.IsFree == nil
}

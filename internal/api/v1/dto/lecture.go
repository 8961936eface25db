package dto

import "time"

// LectureResponseDTO is returned for a single lecture
type LectureResponseDTO struct {
	LectureID      string    `json:"lecture_id"`
	CourseID       string    `json:"course_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	VideoURL       *string   `json:"video_url"`
	ArticleContent *string   `json:"article_content"`
	Duration       int       `json:"duration"`
	IsFree         bool      `json:"is_free"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// LectureUpdateDTO is used for incoming lecture update requests
type LectureUpdateDTO struct {
	Title          *string `json:"title,omitempty"`
	Description    *string `json:"description,omitempty"`
	VideoURL       *string `json:"video_url,omitempty"`
	ArticleContent *string `json:"article_content,omitempty"`
	Duration       *int    `json:"duration,omitempty"`
	IsFree         *bool   `json:"is_free,omitempty"`
}

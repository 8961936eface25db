package dto

// ChunkUploadResponseDTO acknowledges a staged fragment.
type ChunkUploadResponseDTO struct {
	Message string `json:"message"`
}

// LectureChunkUploadResponseDTO acknowledges a staged lecture fragment and
// echoes the lecture-derived file name it was keyed by.
type LectureChunkUploadResponseDTO struct {
	Message  string `json:"message"`
	FileName string `json:"fileName"`
}

// MergeRequestDTO requests assembly of a generic video upload.
type MergeRequestDTO struct {
	FileName    string `json:"fileName" validate:"required"`
	TotalChunks int    `json:"totalChunks" validate:"required,gt=0"`
}

// MergeResponseDTO is the result of a generic merge. A missing fragment is
// reported through Message with FilePath left empty; callers must check the
// message, not just the status code.
type MergeResponseDTO struct {
	Message  string `json:"message"`
	FilePath string `json:"filePath,omitempty"`
}

// LectureMergeRequestDTO requests assembly of a lecture video upload.
type LectureMergeRequestDTO struct {
	FileName    string `json:"fileName" validate:"required"`
	TotalChunks int    `json:"totalChunks" validate:"required,gt=0"`
	CourseID    string `json:"courseId" validate:"required"`
	LectureID   string `json:"lectureId" validate:"required"`
}

// LectureMergeResponseDTO is the result of a lecture merge, including the
// best-effort duration pipeline outcome.
type LectureMergeResponseDTO struct {
	Message                 string `json:"message"`
	FilePath                string `json:"filePath,omitempty"`
	CourseID                string `json:"courseId,omitempty"`
	LectureID               string `json:"lectureId,omitempty"`
	Duration                int    `json:"duration"`
	FormattedDuration       string `json:"formattedDuration,omitempty"`
	DurationUpdateSucceeded bool   `json:"durationUpdateSucceeded"`
}

package service

import (
	"context"
	"errors"
	"fmt"

	"mentora/internal/media"
	"mentora/internal/model"
	"mentora/internal/repository"

	"github.com/rs/zerolog"
)

// ErrLectureNotFound is returned when an update references a lecture that
// does not exist.
var ErrLectureNotFound = errors.New("lecture not found")

// LectureService defines lecture-related operations
type LectureService interface {
	GetLecturesByCourseID(ctx context.Context, courseID string, limit, offset int) ([]model.Lecture, error)
	GetLectureByID(ctx context.Context, lectureID string) (*model.Lecture, error)

	// UpdateLectureMetadata applies a plain (non-upload) metadata update.
	// Incoming durations pass SanitizeIncomingDuration and the reconciler
	// before being persisted.
	UpdateLectureMetadata(ctx context.Context, lectureID string, u model.LectureUpdate) (*model.Lecture, error)

	// DeleteLecture removes a lecture record.
	DeleteLecture(ctx context.Context, lectureID string) error

	// ApplyMergedVideo records the assembled video URL and the probed
	// duration for a lecture after a merge. The duration candidate comes
	// from the trusted upload path; nil means the probe produced nothing
	// usable and the stored duration is left untouched.
	ApplyMergedVideo(ctx context.Context, lectureID, videoURL string, candidate *int) (*model.Lecture, error)
}

// lectureService is the implementation of LectureService
type lectureService struct {
	repo          repository.LectureRepository
	policy        media.DurationPolicy
	lectureLogger zerolog.Logger
}

// NewLectureService creates a new LectureService
func NewLectureService(repo repository.LectureRepository, policy media.DurationPolicy, logger zerolog.Logger) LectureService {
	return &lectureService{
		repo:          repo,
		policy:        policy,
		lectureLogger: logger.With().Str("service", "LectureService").Logger(),
	}
}

// SanitizeIncomingDuration strips a suspicious duration from an update
// before it reaches the reconciler. Applied only on the plain
// lecture-update boundary: that endpoint can never set a duration above
// the suspicious threshold, regardless of the reconciler's own rules.
func SanitizeIncomingDuration(policy media.DurationPolicy, u *model.LectureUpdate) {
	if u.Duration != nil && *u.Duration > policy.SuspiciousSeconds {
		u.Duration = nil
	}
}

// reconcileDuration decides the duration value to persist given the stored
// value, an incoming candidate, and whether the candidate came from the
// upload-merge path. A nil result drops the duration field from the update,
// leaving the persisted value unchanged.
//
// The rules are evaluated in order and intentionally favor an existing
// short duration over candidates from untrusted callers: plain metadata
// edits must not silently overwrite a known-good value.
func (s *lectureService) reconcileDuration(existing, candidate int, fromUpload bool) *int {
	// Fallback for rejected candidates: reuse the stored value when it is
	// itself usable, otherwise leave the field untouched.
	rejected := func() *int {
		if s.policy.WithinHardMax(existing) {
			return &existing
		}
		return nil
	}

	switch {
	case s.policy.Plausible(existing) && !fromUpload:
		return &existing
	case candidate > s.policy.HardMaxSeconds:
		return rejected()
	case candidate <= 0:
		return rejected()
	case fromUpload && candidate != existing:
		return &candidate
	case candidate > s.policy.SuspiciousSeconds && !fromUpload:
		if s.policy.Plausible(existing) {
			return &existing
		}
		return &candidate
	default:
		return &candidate
	}
}

// UpdateLectureMetadata applies a partial update from the plain update endpoint.
func (s *lectureService) UpdateLectureMetadata(ctx context.Context, lectureID string, u model.LectureUpdate) (*model.Lecture, error) {
	lecture, err := s.repo.GetLectureByID(ctx, lectureID)
	if err != nil {
		s.lectureLogger.Error().Err(err).Str("lecture_id", lectureID).Msg("Failed to get lecture for update")
		return nil, fmt.Errorf("failed to retrieve lecture: %w", err)
	}
	if lecture == nil {
		return nil, ErrLectureNotFound
	}

	SanitizeIncomingDuration(s.policy, &u)
	if u.Duration != nil {
		u.Duration = s.reconcileDuration(lecture.Duration, *u.Duration, false)
	}
	// Sanitization and reconciliation may strip every field; skip the write
	// rather than bump updated_at for a no-op.
	if u.Empty() {
		return lecture, nil
	}

	updated, err := s.repo.UpdateLectureFields(ctx, lectureID, u)
	if err != nil {
		s.lectureLogger.Error().Err(err).Str("lecture_id", lectureID).Msg("Failed to update lecture")
		return nil, err
	}
	if updated == nil {
		return nil, ErrLectureNotFound
	}
	return updated, nil
}

// ApplyMergedVideo persists the video URL and reconciled duration after a merge.
func (s *lectureService) ApplyMergedVideo(ctx context.Context, lectureID, videoURL string, candidate *int) (*model.Lecture, error) {
	lecture, err := s.repo.GetLectureByID(ctx, lectureID)
	if err != nil {
		s.lectureLogger.Error().Err(err).Str("lecture_id", lectureID).Msg("Failed to get lecture for merged video")
		return nil, fmt.Errorf("failed to retrieve lecture: %w", err)
	}
	if lecture == nil {
		return nil, ErrLectureNotFound
	}

	u := model.LectureUpdate{VideoURL: &videoURL}
	if candidate != nil {
		u.Duration = s.reconcileDuration(lecture.Duration, *candidate, true)
	}

	updated, err := s.repo.UpdateLectureFields(ctx, lectureID, u)
	if err != nil {
		s.lectureLogger.Error().Err(err).Str("lecture_id", lectureID).Msg("Failed to persist merged video")
		return nil, err
	}
	if updated == nil {
		return nil, ErrLectureNotFound
	}
	return updated, nil
}

// DeleteLecture removes a lecture by ID
func (s *lectureService) DeleteLecture(ctx context.Context, lectureID string) error {
	lecture, err := s.repo.GetLectureByID(ctx, lectureID)
	if err != nil {
		s.lectureLogger.Error().Err(err).Str("lecture_id", lectureID).Msg("Failed to get lecture for deletion")
		return fmt.Errorf("failed to retrieve lecture: %w", err)
	}
	if lecture == nil {
		return ErrLectureNotFound
	}
	if err := s.repo.DeleteLecture(ctx, lectureID); err != nil {
		s.lectureLogger.Error().Err(err).Str("lecture_id", lectureID).Msg("Failed to delete lecture")
		return err
	}
	return nil
}

// GetLecturesByCourseID retrieves lectures for a given course with pagination
func (s *lectureService) GetLecturesByCourseID(ctx context.Context, courseID string, limit, offset int) ([]model.Lecture, error) {
	lectures, err := s.repo.GetLecturesByCourseID(ctx, courseID, limit, offset)
	if err != nil {
		s.lectureLogger.Error().Err(err).Str("course_id", courseID).Msg("Failed to get lectures by course ID")
		return nil, err
	}
	return lectures, nil
}

// GetLectureByID retrieves a lecture by ID
func (s *lectureService) GetLectureByID(ctx context.Context, lectureID string) (*model.Lecture, error) {
	lecture, err := s.repo.GetLectureByID(ctx, lectureID)
	if err != nil {
		s.lectureLogger.Error().Err(err).Str("lecture_id", lectureID).Msg("Failed to get lecture by ID")
		return nil, err
	}
	return lecture, nil
}

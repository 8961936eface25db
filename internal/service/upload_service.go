package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"mentora/internal/media"
	"mentora/internal/pubsub"
	"mentora/internal/storage"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// ErrMergeInProgress is returned when a merge is requested for a lecture
// that is already being merged. Overlapping merges would interleave writes
// on the same output path, so the second caller is rejected outright.
var ErrMergeInProgress = errors.New("a merge for this video is already in progress")

// MissingChunkError reports the first fragment index that could not be
// located at merge time. It is surfaced in the response message rather
// than as an HTTP error; callers must check the message field.
type MissingChunkError struct {
	Index int
}

func (e *MissingChunkError) Error() string {
	return fmt.Sprintf("Chunk %d is missing!", e.Index)
}

// MergeResult is the outcome of a generic (non-lecture) video merge.
type MergeResult struct {
	FilePath  string
	SizeBytes int64
}

// LectureMergeResult is the outcome of a lecture video merge, including the
// best-effort duration pipeline.
type LectureMergeResult struct {
	FilePath          string
	SizeBytes         int64
	Duration          int
	FormattedDuration string

	// DurationUpdateSucceeded reports whether a probed duration was
	// persisted on the lecture. A failed probe or a missing lecture
	// downgrades to false without failing the merge.
	DurationUpdateSucceeded bool
}

// UploadService stages uploaded video fragments and assembles them into
// playable files.
type UploadService interface {
	// StoreChunk stages one fragment for a generic video upload.
	StoreChunk(fileName string, index int, src io.Reader) error

	// StoreLectureChunk stages one fragment for a lecture video upload and
	// returns the lecture-derived target file name the fragment was keyed by.
	StoreLectureChunk(courseID, lectureID, fileName string, index int, src io.Reader) (string, error)

	// MergeChunks assembles a generic video under the videos root.
	MergeChunks(ctx context.Context, fileName string, totalChunks int) (*MergeResult, error)

	// MergeLectureVideo assembles a lecture video under the per-course
	// directory, probes its duration, and persists the outcome on the
	// lecture record best-effort.
	MergeLectureVideo(ctx context.Context, courseID, lectureID, fileName string, totalChunks int) (*LectureMergeResult, error)
}

type uploadService struct {
	store      *storage.ChunkStore
	probe      *media.DurationProbe
	lectureSvc LectureService

	videosDir    string
	publicPrefix string
	lockWait     time.Duration

	// Optional collaborators; nil disables the corresponding side effect.
	s3Client   *s3.Client
	s3Bucket   string
	publisher  pubsub.Publisher
	videoTopic string

	locks        sync.Mutex
	activeMerges map[string]*mergeLock

	uploadLogger zerolog.Logger
}

// NewUploadService creates a new UploadService.
func NewUploadService(
	store *storage.ChunkStore,
	probe *media.DurationProbe,
	lectureSvc LectureService,
	videosDir string,
	publicPrefix string,
	lockWait time.Duration,
	s3Client *s3.Client,
	s3Bucket string,
	publisher pubsub.Publisher,
	videoTopic string,
	logger zerolog.Logger,
) UploadService {
	return &uploadService{
		store:        store,
		probe:        probe,
		lectureSvc:   lectureSvc,
		videosDir:    videosDir,
		publicPrefix: publicPrefix,
		lockWait:     lockWait,
		s3Client:     s3Client,
		s3Bucket:     s3Bucket,
		publisher:    publisher,
		videoTopic:   videoTopic,
		activeMerges: make(map[string]*mergeLock),
		uploadLogger: logger.With().Str("service", "UploadService").Logger(),
	}
}

// validPathComponent reports whether an identifier is safe to use as a
// single path element. Rejects separators and dot traversal.
func validPathComponent(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, `/\`)
}

// targetFileName derives the fragment/output file name for a lecture upload.
// Keying by lecture ID makes repeated uploads for the same lecture collide
// deterministically instead of accumulating distinct files.
func targetFileName(lectureID, declaredFileName string) string {
	return lectureID + filepath.Ext(declaredFileName)
}

func (s *uploadService) StoreChunk(fileName string, index int, src io.Reader) error {
	return s.store.StoreFragment(filepath.Base(fileName), index, src)
}

func (s *uploadService) StoreLectureChunk(courseID, lectureID, fileName string, index int, src io.Reader) (string, error) {
	if !validPathComponent(courseID) || !validPathComponent(lectureID) {
		return "", errors.New("courseId and lectureId are required")
	}
	target := targetFileName(lectureID, fileName)
	if err := s.store.StoreFragment(target, index, src); err != nil {
		return "", err
	}
	return target, nil
}

// mergeLock is a single-holder semaphore with a reference count, so unused
// entries can be dropped from the map.
type mergeLock struct {
	sem  chan struct{}
	refs int
}

// acquireMergeLock takes the advisory lock for one output key, waiting up
// to lockWait for an in-flight merge to finish.
func (s *uploadService) acquireMergeLock(key string) (release func(), err error) {
	s.locks.Lock()
	lock, ok := s.activeMerges[key]
	if !ok {
		lock = &mergeLock{sem: make(chan struct{}, 1)}
		s.activeMerges[key] = lock
	}
	lock.refs++
	s.locks.Unlock()

	unref := func() {
		s.locks.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(s.activeMerges, key)
		}
		s.locks.Unlock()
	}

	select {
	case lock.sem <- struct{}{}:
		return func() {
			<-lock.sem
			unref()
		}, nil
	case <-time.After(s.lockWait):
		unref()
		return nil, ErrMergeInProgress
	}
}

// assemble concatenates the staged fragments, strictly by index, into
// outPath. Fragments may be staged under any of the candidate names. The
// output is written to a .partial path and renamed into place only after
// every fragment has been consumed, so a failed merge leaves nothing at
// the final path.
func (s *uploadService) assemble(outPath string, candidates []string, totalChunks int) (int64, error) {
	// Verify completeness before any bytes move.
	resolved := make([]string, totalChunks)
	for i := 0; i < totalChunks; i++ {
		name, ok := s.store.Resolve(candidates, i)
		if !ok {
			return 0, &MissingChunkError{Index: i}
		}
		resolved[i] = name
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return 0, fmt.Errorf("failed to create output directory: %w", err)
	}

	partial := outPath + ".partial"
	out, err := os.Create(partial)
	if err != nil {
		return 0, fmt.Errorf("failed to create output file: %w", err)
	}

	cleanup := func() {
		out.Close()
		os.Remove(partial)
	}

	var written int64
	for i := 0; i < totalChunks; i++ {
		fragment, err := os.Open(s.store.FragmentPath(resolved[i], i))
		if err != nil {
			cleanup()
			return 0, fmt.Errorf("failed to open chunk %d: %w", i, err)
		}
		n, err := io.Copy(out, fragment)
		fragment.Close()
		if err != nil {
			cleanup()
			return 0, fmt.Errorf("failed to append chunk %d: %w", i, err)
		}
		written += n

		if err := s.store.DeleteFragment(resolved[i], i); err != nil {
			s.uploadLogger.Warn().Err(err).Int("chunk", i).Msg("Failed to delete consumed fragment")
		}
	}

	if err := out.Close(); err != nil {
		os.Remove(partial)
		return 0, fmt.Errorf("failed to close output file: %w", err)
	}
	if written == 0 {
		os.Remove(partial)
		return 0, errors.New("assembled video is empty")
	}
	if err := os.Rename(partial, outPath); err != nil {
		os.Remove(partial)
		return 0, fmt.Errorf("failed to finalize output file: %w", err)
	}
	return written, nil
}

func (s *uploadService) MergeChunks(ctx context.Context, fileName string, totalChunks int) (*MergeResult, error) {
	safeName := filepath.Base(fileName)
	release, err := s.acquireMergeLock(safeName)
	if err != nil {
		return nil, err
	}
	defer release()

	outPath := filepath.Join(s.videosDir, safeName)
	size, err := s.assemble(outPath, []string{safeName}, totalChunks)
	if err != nil {
		return nil, err
	}

	return &MergeResult{
		FilePath:  s.publicPrefix + "/" + safeName,
		SizeBytes: size,
	}, nil
}

func (s *uploadService) MergeLectureVideo(ctx context.Context, courseID, lectureID, fileName string, totalChunks int) (*LectureMergeResult, error) {
	if !validPathComponent(courseID) || !validPathComponent(lectureID) {
		return nil, errors.New("courseId and lectureId are required")
	}

	release, err := s.acquireMergeLock(courseID + "/" + lectureID)
	if err != nil {
		return nil, err
	}
	defer release()

	target := targetFileName(lectureID, fileName)
	outPath := filepath.Join(s.videosDir, courseID, target)

	size, err := s.assemble(outPath, []string{target, filepath.Base(fileName)}, totalChunks)
	if err != nil {
		return nil, err
	}

	result := &LectureMergeResult{
		FilePath:  s.publicPrefix + "/" + courseID + "/" + target,
		SizeBytes: size,
	}

	// Everything past this point is best-effort: the video is assembled and
	// reachable, so probe or persistence failures must not fail the merge.
	var candidate *int
	if seconds, err := s.probe.ProbeDuration(ctx, outPath); err != nil {
		s.uploadLogger.Warn().Err(err).Str("lecture_id", lectureID).Msg("Duration probe failed, leaving stored duration unchanged")
	} else {
		candidate = &seconds
	}

	updated, err := s.lectureSvc.ApplyMergedVideo(ctx, lectureID, result.FilePath, candidate)
	if err != nil {
		s.uploadLogger.Error().Err(err).Str("lecture_id", lectureID).Msg("Failed to persist merged video on lecture")
	} else if candidate != nil {
		result.Duration = updated.Duration
		result.FormattedDuration = media.FormatDuration(updated.Duration)
		result.DurationUpdateSucceeded = updated.Duration == *candidate
	}
	if result.FormattedDuration == "" {
		result.FormattedDuration = media.FormatDuration(result.Duration)
	}

	s.archiveToS3(ctx, courseID, target, outPath)
	s.publishProcessed(ctx, courseID, lectureID, result)

	return result, nil
}

// archiveToS3 mirrors the assembled video into the configured bucket.
func (s *uploadService) archiveToS3(ctx context.Context, courseID, target, path string) {
	if s.s3Client == nil || s.s3Bucket == "" {
		return
	}
	file, err := os.Open(path)
	if err != nil {
		s.uploadLogger.Error().Err(err).Str("path", path).Msg("Failed to open assembled video for archival")
		return
	}
	defer file.Close()

	key := fmt.Sprintf("lectures/%s/%s", courseID, target)
	if _, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.s3Bucket),
		Key:    aws.String(key),
		Body:   file,
	}); err != nil {
		s.uploadLogger.Error().Err(err).Str("key", key).Msg("Failed to archive assembled video to S3")
	}
}

// publishProcessed emits a video.processed event for downstream consumers.
func (s *uploadService) publishProcessed(ctx context.Context, courseID, lectureID string, result *LectureMergeResult) {
	if s.publisher == nil {
		return
	}
	payload := struct {
		Event     string `json:"event"`
		CourseID  string `json:"course_id"`
		LectureID string `json:"lecture_id"`
		FilePath  string `json:"file_path"`
		Duration  int    `json:"duration"`
	}{
		Event:     "video.processed",
		CourseID:  courseID,
		LectureID: lectureID,
		FilePath:  result.FilePath,
		Duration:  result.Duration,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		s.uploadLogger.Error().Err(err).Str("lecture_id", lectureID).Msg("Failed to marshal video.processed payload")
		return
	}
	if _, err := s.publisher.Publish(ctx, s.videoTopic, data); err != nil {
		s.uploadLogger.Error().Err(err).Str("topic", s.videoTopic).Msg("Failed to publish video.processed event")
	}
}

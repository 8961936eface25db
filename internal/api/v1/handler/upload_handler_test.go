package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mentora/internal/api/v1/dto"
	"mentora/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// stubUploadService returns canned results so handler tests exercise only
// request parsing and response mapping.
type stubUploadService struct {
	storeErr        error
	mergeErr        error
	lectureResult   *service.LectureMergeResult
	storedFileName  string
	storedIndex     int
	storedBytes     []byte
	mergedFileName  string
	mergedTotal     int
	mergedCourseID  string
	mergedLectureID string
}

func (s *stubUploadService) StoreChunk(fileName string, index int, src io.Reader) error {
	s.storedFileName = fileName
	s.storedIndex = index
	s.storedBytes, _ = io.ReadAll(src)
	return s.storeErr
}

func (s *stubUploadService) StoreLectureChunk(courseID, lectureID, fileName string, index int, src io.Reader) (string, error) {
	if err := s.StoreChunk(fileName, index, src); err != nil {
		return "", err
	}
	return lectureID + ".mp4", nil
}

func (s *stubUploadService) MergeChunks(ctx context.Context, fileName string, totalChunks int) (*service.MergeResult, error) {
	s.mergedFileName = fileName
	s.mergedTotal = totalChunks
	if s.mergeErr != nil {
		return nil, s.mergeErr
	}
	return &service.MergeResult{FilePath: "/uploads/videos/" + fileName}, nil
}

func (s *stubUploadService) MergeLectureVideo(ctx context.Context, courseID, lectureID, fileName string, totalChunks int) (*service.LectureMergeResult, error) {
	s.mergedCourseID = courseID
	s.mergedLectureID = lectureID
	s.mergedFileName = fileName
	s.mergedTotal = totalChunks
	if s.mergeErr != nil {
		return nil, s.mergeErr
	}
	if s.lectureResult != nil {
		return s.lectureResult, nil
	}
	return &service.LectureMergeResult{FilePath: "/uploads/videos/" + courseID + "/" + lectureID + ".mp4"}, nil
}

func newTestUploadHandler(stub *stubUploadService) http.Handler {
	h := NewUploadHandler(stub, validator.New(validator.WithRequiredStructEnabled()), 64<<20, zerolog.Nop())
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return mux
}

func multipartChunk(t *testing.T, fields map[string]string, chunk []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if chunk != nil {
		fw, err := mw.CreateFormFile("chunk", "blob")
		if err != nil {
			t.Fatal(err)
		}
		fw.Write(chunk)
	}
	mw.Close()
	return &body, mw.FormDataContentType()
}

func TestUploadChunk(t *testing.T) {
	stub := &stubUploadService{}
	mux := newTestUploadHandler(stub)

	body, contentType := multipartChunk(t, map[string]string{
		"fileName":    "clip.mp4",
		"chunkIndex":  "2",
		"totalChunks": "3",
	}, []byte("payload"))

	req := httptest.NewRequest(http.MethodPost, "/upload/chunk", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if stub.storedFileName != "clip.mp4" || stub.storedIndex != 2 {
		t.Fatalf("unexpected store call: %q/%d", stub.storedFileName, stub.storedIndex)
	}
	if string(stub.storedBytes) != "payload" {
		t.Fatalf("unexpected stored bytes %q", stub.storedBytes)
	}

	var resp dto.ChunkUploadResponseDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Message != "Chunk uploaded successfully" {
		t.Fatalf("unexpected message %q", resp.Message)
	}
}

func TestUploadChunkRejectsBadRequests(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]string
		chunk  []byte
	}{
		{"missing file name", map[string]string{"chunkIndex": "0"}, []byte("x")},
		{"negative index", map[string]string{"fileName": "clip.mp4", "chunkIndex": "-1"}, []byte("x")},
		{"non-numeric index", map[string]string{"fileName": "clip.mp4", "chunkIndex": "two"}, []byte("x")},
		{"missing chunk file", map[string]string{"fileName": "clip.mp4", "chunkIndex": "0"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := newTestUploadHandler(&stubUploadService{})
			body, contentType := multipartChunk(t, tt.fields, tt.chunk)
			req := httptest.NewRequest(http.MethodPost, "/upload/chunk", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestUploadLectureChunkRequiresIDs(t *testing.T) {
	mux := newTestUploadHandler(&stubUploadService{})
	body, contentType := multipartChunk(t, map[string]string{
		"fileName":   "clip.mp4",
		"chunkIndex": "0",
		"courseId":   "C1",
	}, []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/upload/lecture-video", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestUploadLectureChunkReturnsTargetName(t *testing.T) {
	mux := newTestUploadHandler(&stubUploadService{})
	body, contentType := multipartChunk(t, map[string]string{
		"fileName":   "clip.mp4",
		"chunkIndex": "0",
		"courseId":   "C1",
		"lectureId":  "L1",
	}, []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/upload/lecture-video", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp dto.LectureChunkUploadResponseDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.FileName != "L1.mp4" {
		t.Fatalf("unexpected fileName %q", resp.FileName)
	}
}

func TestMergeLectureVideoResponse(t *testing.T) {
	stub := &stubUploadService{
		lectureResult: &service.LectureMergeResult{
			FilePath:                "/uploads/videos/C1/L1.mp4",
			Duration:                125,
			FormattedDuration:       "2:05",
			DurationUpdateSucceeded: true,
		},
	}
	mux := newTestUploadHandler(stub)

	req := httptest.NewRequest(http.MethodPost, "/upload/merge-lecture-video",
		strings.NewReader(`{"fileName":"clip.mp4","totalChunks":3,"courseId":"C1","lectureId":"L1"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if stub.mergedCourseID != "C1" || stub.mergedLectureID != "L1" || stub.mergedTotal != 3 {
		t.Fatal("merge request fields not forwarded to the service")
	}

	var resp dto.LectureMergeResponseDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.FilePath != "/uploads/videos/C1/L1.mp4" {
		t.Fatalf("unexpected filePath %q", resp.FilePath)
	}
	if resp.Duration != 125 || resp.FormattedDuration != "2:05" || !resp.DurationUpdateSucceeded {
		t.Fatalf("duration fields not mapped: %+v", resp)
	}
}

func TestMergeLectureVideoValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing courseId", `{"fileName":"clip.mp4","totalChunks":3,"lectureId":"L1"}`},
		{"missing lectureId", `{"fileName":"clip.mp4","totalChunks":3,"courseId":"C1"}`},
		{"zero totalChunks", `{"fileName":"clip.mp4","totalChunks":0,"courseId":"C1","lectureId":"L1"}`},
		{"bad json", `{"fileName":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := newTestUploadHandler(&stubUploadService{})
			req := httptest.NewRequest(http.MethodPost, "/upload/merge-lecture-video", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestMergeMissingChunkIsReportedInBody(t *testing.T) {
	stub := &stubUploadService{mergeErr: &service.MissingChunkError{Index: 1}}
	mux := newTestUploadHandler(stub)

	req := httptest.NewRequest(http.MethodPost, "/upload/merge",
		strings.NewReader(`{"fileName":"clip.mp4","totalChunks":3}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for missing chunk, got %d", rec.Code)
	}
	var resp dto.MergeResponseDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Message != "Chunk 1 is missing!" {
		t.Fatalf("unexpected message %q", resp.Message)
	}
	if resp.FilePath != "" {
		t.Fatalf("expected empty filePath, got %q", resp.FilePath)
	}
}

func TestMergeConflict(t *testing.T) {
	stub := &stubUploadService{mergeErr: service.ErrMergeInProgress}
	mux := newTestUploadHandler(stub)

	req := httptest.NewRequest(http.MethodPost, "/upload/merge-lecture-video",
		strings.NewReader(`{"fileName":"clip.mp4","totalChunks":3,"courseId":"C1","lectureId":"L1"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestUploadEndpointsRejectGet(t *testing.T) {
	mux := newTestUploadHandler(&stubUploadService{})
	for _, path := range []string{"/upload/chunk", "/upload/merge", "/upload/lecture-video", "/upload/merge-lecture-video"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("%s: expected 405, got %d", path, rec.Code)
		}
	}
}

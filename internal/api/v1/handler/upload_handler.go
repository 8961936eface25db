package handler

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"mentora/internal/api/v1/dto"
	"mentora/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// UploadHandler handles chunked video upload endpoints.
type UploadHandler struct {
	uploadService  service.UploadService
	validate       *validator.Validate
	maxUploadBytes int64
	logger         zerolog.Logger
}

// NewUploadHandler creates a new UploadHandler
func NewUploadHandler(uploadService service.UploadService, validate *validator.Validate, maxUploadBytes int64, logger zerolog.Logger) *UploadHandler {
	return &UploadHandler{
		uploadService:  uploadService,
		validate:       validate,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With().Str("handler", "UploadHandler").Logger(),
	}
}

// RegisterRoutes mounts upload routes under /upload
func (h *UploadHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/upload/chunk", h.post(h.uploadChunk))
	mux.HandleFunc("/upload/merge", h.post(h.mergeChunks))
	mux.HandleFunc("/upload/lecture-video", h.post(h.uploadLectureChunk))
	mux.HandleFunc("/upload/merge-lecture-video", h.post(h.mergeLectureVideo))
}

func (h *UploadHandler) post(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		next(w, r)
	}
}

// chunkForm extracts the shared multipart fields of the chunk-upload endpoints.
func (h *UploadHandler) chunkForm(w http.ResponseWriter, r *http.Request) (fileName string, index int, file multipart.File, ok bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		http.Error(w, "Invalid multipart payload: "+err.Error(), http.StatusBadRequest)
		return "", 0, nil, false
	}

	fileName = r.FormValue("fileName")
	if fileName == "" {
		http.Error(w, "Missing fileName", http.StatusBadRequest)
		return "", 0, nil, false
	}
	index, err := strconv.Atoi(r.FormValue("chunkIndex"))
	if err != nil || index < 0 {
		http.Error(w, "Invalid chunkIndex", http.StatusBadRequest)
		return "", 0, nil, false
	}
	f, _, err := r.FormFile("chunk")
	if err != nil {
		http.Error(w, "Missing chunk file: "+err.Error(), http.StatusBadRequest)
		return "", 0, nil, false
	}
	return fileName, index, f, true
}

// uploadChunk godoc
// @Summary Upload a video chunk
// @Description Stages one fragment of a generic chunked video upload.
// @Tags upload
// @Accept multipart/form-data
// @Produce json
// @Param chunk formData file true "Fragment bytes"
// @Param chunkIndex formData int true "Zero-based fragment index"
// @Param totalChunks formData int true "Declared total fragment count"
// @Param fileName formData string true "Original file name"
// @Success 200 {object} dto.ChunkUploadResponseDTO
// @Failure 400 {string} string "Invalid multipart payload"
// @Failure 500 {string} string "Failed to store chunk"
// @Router /upload/chunk [post]
func (h *UploadHandler) uploadChunk(w http.ResponseWriter, r *http.Request) {
	fileName, index, file, ok := h.chunkForm(w, r)
	if !ok {
		return
	}
	defer file.Close()

	if err := h.uploadService.StoreChunk(fileName, index, file); err != nil {
		h.logger.Error().Err(err).Str("file_name", fileName).Int("chunk", index).Msg("Failed to store chunk")
		http.Error(w, "Failed to store chunk: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, dto.ChunkUploadResponseDTO{Message: "Chunk uploaded successfully"})
}

// uploadLectureChunk godoc
// @Summary Upload a lecture video chunk
// @Description Stages one fragment of a lecture video upload, keyed by the lecture ID.
// @Tags upload
// @Accept multipart/form-data
// @Produce json
// @Param chunk formData file true "Fragment bytes"
// @Param chunkIndex formData int true "Zero-based fragment index"
// @Param totalChunks formData int true "Declared total fragment count"
// @Param fileName formData string true "Original file name"
// @Param courseId formData string true "Course ID"
// @Param lectureId formData string true "Lecture ID"
// @Success 200 {object} dto.LectureChunkUploadResponseDTO
// @Failure 400 {string} string "courseId and lectureId are required"
// @Failure 500 {string} string "Failed to store chunk"
// @Router /upload/lecture-video [post]
func (h *UploadHandler) uploadLectureChunk(w http.ResponseWriter, r *http.Request) {
	fileName, index, file, ok := h.chunkForm(w, r)
	if !ok {
		return
	}
	defer file.Close()

	courseID := r.FormValue("courseId")
	lectureID := r.FormValue("lectureId")
	if courseID == "" || lectureID == "" {
		http.Error(w, "courseId and lectureId are required", http.StatusBadRequest)
		return
	}

	target, err := h.uploadService.StoreLectureChunk(courseID, lectureID, fileName, index, file)
	if err != nil {
		h.logger.Error().Err(err).Str("lecture_id", lectureID).Int("chunk", index).Msg("Failed to store lecture chunk")
		http.Error(w, "Failed to store chunk: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, dto.LectureChunkUploadResponseDTO{
		Message:  "Chunk uploaded successfully",
		FileName: target,
	})
}

// mergeChunks godoc
// @Summary Merge uploaded chunks
// @Description Assembles the staged fragments of a generic upload into one video file.
// @Tags upload
// @Accept json
// @Produce json
// @Param request body dto.MergeRequestDTO true "Merge request"
// @Success 200 {object} dto.MergeResponseDTO
// @Failure 400 {string} string "Invalid JSON payload"
// @Failure 409 {string} string "Merge already in progress"
// @Failure 500 {string} string "Failed to merge chunks"
// @Router /upload/merge [post]
func (h *UploadHandler) mergeChunks(w http.ResponseWriter, r *http.Request) {
	var req dto.MergeRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, "Invalid merge request: "+err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.uploadService.MergeChunks(r.Context(), req.FileName, req.TotalChunks)
	if err != nil {
		h.writeMergeError(w, err, req.FileName)
		return
	}
	writeJSON(w, dto.MergeResponseDTO{
		Message:  "File merged successfully",
		FilePath: result.FilePath,
	})
}

// mergeLectureVideo godoc
// @Summary Merge uploaded lecture video chunks
// @Description Assembles the staged fragments of a lecture upload, probes the video duration, and updates the lecture record best-effort.
// @Tags upload
// @Accept json
// @Produce json
// @Param request body dto.LectureMergeRequestDTO true "Merge request"
// @Success 200 {object} dto.LectureMergeResponseDTO
// @Failure 400 {string} string "courseId and lectureId are required"
// @Failure 409 {string} string "Merge already in progress"
// @Failure 500 {string} string "Failed to merge chunks"
// @Router /upload/merge-lecture-video [post]
func (h *UploadHandler) mergeLectureVideo(w http.ResponseWriter, r *http.Request) {
	var req dto.LectureMergeRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.CourseID == "" || req.LectureID == "" {
		http.Error(w, "courseId and lectureId are required", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, "Invalid merge request: "+err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.uploadService.MergeLectureVideo(r.Context(), req.CourseID, req.LectureID, req.FileName, req.TotalChunks)
	if err != nil {
		h.writeMergeError(w, err, req.FileName)
		return
	}
	writeJSON(w, dto.LectureMergeResponseDTO{
		Message:                 "File merged successfully",
		FilePath:                result.FilePath,
		CourseID:                req.CourseID,
		LectureID:               req.LectureID,
		Duration:                result.Duration,
		FormattedDuration:       result.FormattedDuration,
		DurationUpdateSucceeded: result.DurationUpdateSucceeded,
	})
}

// writeMergeError maps assembly failures onto the wire. A missing fragment
// is an actionable client condition reported in the response body with a
// 200 status; callers re-upload and re-merge.
func (h *UploadHandler) writeMergeError(w http.ResponseWriter, err error, fileName string) {
	var missing *service.MissingChunkError
	if errors.As(err, &missing) {
		writeJSON(w, dto.MergeResponseDTO{Message: missing.Error()})
		return
	}
	if errors.Is(err, service.ErrMergeInProgress) {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	h.logger.Error().Err(err).Str("file_name", fileName).Msg("Failed to merge chunks")
	http.Error(w, "Failed to merge chunks: "+err.Error(), http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

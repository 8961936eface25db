package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"mentora/internal/api/v1/dto"
	"mentora/internal/model"
	"mentora/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// LectureHandler handles flat lecture endpoints
type LectureHandler struct {
	lectureService service.LectureService
	courseService  service.CourseService
	validate       *validator.Validate
	logger         zerolog.Logger
}

// NewLectureHandler creates a new LectureHandler
func NewLectureHandler(lectureService service.LectureService, courseService service.CourseService, validate *validator.Validate, logger zerolog.Logger) *LectureHandler {
	return &LectureHandler{
		lectureService: lectureService,
		courseService:  courseService,
		validate:       validate,
		logger:         logger.With().Str("handler", "LectureHandler").Logger(),
	}
}

// RegisterRoutes mounts lecture routes under /lectures
func (h *LectureHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/lectures", h.listLectures)
	mux.HandleFunc("/lectures/", h.handleLecture)
}

func (h *LectureHandler) handleLecture(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.URL.Path, "/lectures/") {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		h.getLecture(w, r)
	case http.MethodPut:
		h.updateLecture(w, r)
	case http.MethodDelete:
		h.deleteLecture(w, r)
	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

func lectureResponse(l *model.Lecture) dto.LectureResponseDTO {
	return dto.LectureResponseDTO{
		LectureID:      l.ID,
		CourseID:       l.CourseID,
		Title:          l.Title,
		Description:    l.Description,
		VideoURL:       l.VideoURL,
		ArticleContent: l.ArticleContent,
		Duration:       l.Duration,
		IsFree:         l.IsFree,
		CreatedAt:      l.CreatedAt,
		UpdatedAt:      l.UpdatedAt,
	}
}

// getLecture godoc
// @Summary Get a lecture
// @Description Retrieves a lecture by its ID.
// @Tags lectures
// @Produce json
// @Param lectureId path string true "Lecture ID"
// @Success 200 {object} dto.LectureResponseDTO
// @Failure 404 {string} string "Lecture not found"
// @Failure 500 {string} string "Failed to retrieve lecture"
// @Router /lectures/{lectureId} [get]
func (h *LectureHandler) getLecture(w http.ResponseWriter, r *http.Request) {
	lectureID := strings.TrimPrefix(r.URL.Path, "/lectures/")
	lecture, err := h.lectureService.GetLectureByID(r.Context(), lectureID)
	if err != nil {
		http.Error(w, "Failed to retrieve lecture: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if lecture == nil {
		http.Error(w, "Lecture not found", http.StatusNotFound)
		return
	}
	writeJSON(w, lectureResponse(lecture))
}

// updateLecture godoc
// @Summary Update a lecture
// @Description Updates lecture metadata. Incoming durations are sanitized and reconciled against the stored value; suspiciously large values cannot replace a known-good duration through this endpoint.
// @Tags lectures
// @Accept json
// @Produce json
// @Param lectureId path string true "Lecture ID"
// @Param lecture body dto.LectureUpdateDTO true "Lecture update data"
// @Success 200 {object} dto.LectureResponseDTO
// @Failure 400 {string} string "Invalid JSON payload"
// @Failure 404 {string} string "Lecture not found"
// @Failure 500 {string} string "Failed to update lecture"
// @Router /lectures/{lectureId} [put]
func (h *LectureHandler) updateLecture(w http.ResponseWriter, r *http.Request) {
	lectureID := strings.TrimPrefix(r.URL.Path, "/lectures/")
	var req dto.LectureUpdateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}

	update := model.LectureUpdate{
		Title:          req.Title,
		Description:    req.Description,
		VideoURL:       req.VideoURL,
		ArticleContent: req.ArticleContent,
		Duration:       req.Duration,
		IsFree:         req.IsFree,
	}
	lecture, err := h.lectureService.UpdateLectureMetadata(r.Context(), lectureID, update)
	if err != nil {
		if errors.Is(err, service.ErrLectureNotFound) {
			http.Error(w, "Lecture not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to update lecture: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, lectureResponse(lecture))
}

// deleteLecture godoc
// @Summary Delete a lecture
// @Description Deletes a lecture by its ID. Assembled video files are not removed.
// @Tags lectures
// @Produce json
// @Param lectureId path string true "Lecture ID"
// @Success 200 {object} map[string]string
// @Failure 404 {string} string "Lecture not found"
// @Failure 500 {string} string "Failed to delete lecture"
// @Router /lectures/{lectureId} [delete]
func (h *LectureHandler) deleteLecture(w http.ResponseWriter, r *http.Request) {
	lectureID := strings.TrimPrefix(r.URL.Path, "/lectures/")
	if err := h.lectureService.DeleteLecture(r.Context(), lectureID); err != nil {
		if errors.Is(err, service.ErrLectureNotFound) {
			http.Error(w, "Lecture not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to delete lecture: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]string{"message": "Lecture deleted successfully"})
}

// listLectures godoc
// @Summary List lectures
// @Description Retrieves lectures filtered by course_id with pagination
// @Tags lectures
// @Produce json
// @Param course_id query string true "Course ID"
// @Param limit query int false "Limit number of lectures"
// @Param offset query int false "Pagination offset"
// @Success 200 {array} dto.LectureResponseDTO
// @Failure 400 {string} string "Missing course_id"
// @Failure 404 {string} string "Course not found"
// @Failure 500 {string} string "Failed to retrieve lectures"
// @Router /lectures [get]
func (h *LectureHandler) listLectures(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	courseID := q.Get("course_id")
	if courseID == "" {
		http.Error(w, "Missing course_id", http.StatusBadRequest)
		return
	}
	course, err := h.courseService.GetCourseByID(r.Context(), courseID)
	if err != nil {
		http.Error(w, "Failed to retrieve course: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if course == nil {
		http.Error(w, "Course not found", http.StatusNotFound)
		return
	}
	limit := 10
	if l := q.Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 {
			limit = v
		}
	}
	offset := 0
	if o := q.Get("offset"); o != "" {
		if v, err := strconv.Atoi(o); err == nil && v >= 0 {
			offset = v
		}
	}
	lectures, err := h.lectureService.GetLecturesByCourseID(r.Context(), courseID, limit, offset)
	if err != nil {
		http.Error(w, "Failed to retrieve lectures: "+err.Error(), http.StatusInternalServerError)
		return
	}
	resp := make([]dto.LectureResponseDTO, 0, len(lectures))
	for i := range lectures {
		resp = append(resp, lectureResponse(&lectures[i]))
	}
	writeJSON(w, resp)
}

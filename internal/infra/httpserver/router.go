package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	appanalysis "github.com/talentlens/talentlens/internal/application/analysis"
	appanalytics "github.com/talentlens/talentlens/internal/application/analytics"
	appsessions "github.com/talentlens/talentlens/internal/application/sessions"
	appuploads "github.com/talentlens/talentlens/internal/application/uploads"
	domanalysis "github.com/talentlens/talentlens/internal/domain/analysis"
	"github.com/talentlens/talentlens/internal/domain/questionnaire"
	domain "github.com/talentlens/talentlens/internal/domain/sessions"
	"github.com/talentlens/talentlens/internal/middleware"
)

// Multipart uploads are buffered in memory up to this size.
const maxUploadMemory = 32 << 20

type Router struct {
	sessionsSvc  *appsessions.Service
	uploadsSvc   *appuploads.Service
	analysisSvc  *appanalysis.Service
	analyticsSvc *appanalytics.Service
}

func NewRouter(
	sessionsSvc *appsessions.Service,
	uploadsSvc *appuploads.Service,
	analysisSvc *appanalysis.Service,
	analyticsSvc *appanalytics.Service,
	checkers map[string]middleware.HealthChecker,
) http.Handler {
	r := &Router{
		sessionsSvc:  sessionsSvc,
		uploadsSvc:   uploadsSvc,
		analysisSvc:  analysisSvc,
		analyticsSvc: analyticsSvc,
	}

	mux := chi.NewRouter()
	mux.Use(middleware.Logging)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	mux.Use(middleware.RateLimit(60, 10))

	mux.Get("/health", middleware.HealthHandler(checkers))
	mux.Get("/ready", middleware.ReadinessHandler)
	mux.Get("/live", middleware.LivenessHandler)

	mux.Route("/api", func(rt chi.Router) {
		rt.Get("/fields", r.wrap(r.handleFields))
		rt.Get("/questionnaire/{field}", r.wrap(r.handleQuestionnaire))

		rt.Post("/session", r.wrap(r.handleCreateSession))
		rt.Get("/session/{id}/status", r.wrap(r.handleStatus))
		rt.Delete("/session/{id}", r.wrap(r.handleDeleteSession))
		rt.Post("/session/{id}/questionnaire", r.wrap(r.handleAnswers))

		rt.Post("/upload/{id}", r.wrap(r.handleUpload))
		rt.Post("/analyze/{id}", r.wrap(r.handleAnalyze))
		rt.Get("/results/{id}", r.wrap(r.handleResults))

		rt.Get("/analytics/overview", r.wrap(r.handleOverview))
		rt.Get("/analytics/analyses", r.wrap(r.handleAnalysesList))
		rt.Get("/analytics/export", r.wrap(r.handleExport))

		rt.Post("/gdpr/delete-data", r.wrap(r.handleErase))
		rt.Get("/gdpr/deletion-status/{id}", r.wrap(r.handleDeletionStatus))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// errBadRequest marks request bodies that fail decoding or basic validation.
var errBadRequest = errors.New("bad request")

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		switch {
		case errors.Is(err, domain.ErrInvalidField), errors.Is(err, questionnaire.ErrInvalidAnswers), errors.Is(err, errBadRequest):
			httpError(w, err, http.StatusBadRequest)
		case errors.Is(err, domain.ErrNotFound), errors.Is(err, sql.ErrNoRows):
			httpError(w, err, http.StatusNotFound)
		case errors.Is(err, domain.ErrInvalidState):
			httpError(w, err, http.StatusConflict)
		case errors.Is(err, domain.ErrTooManyFiles):
			httpError(w, err, http.StatusRequestEntityTooLarge)
		case errors.Is(err, domain.ErrUnsupportedType):
			httpError(w, err, http.StatusUnsupportedMediaType)
		default:
			httpError(w, err, http.StatusInternalServerError)
		}
	}
}

func httpError(w http.ResponseWriter, err error, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func respondJSON(w http.ResponseWriter, code int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(v)
}

// GET /api/fields
func (r *Router) handleFields(w http.ResponseWriter, req *http.Request) error {
	type fieldInfo struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	var out []fieldInfo
	for _, f := range domain.Fields() {
		out = append(out, fieldInfo{ID: string(f), Name: f.DisplayName()})
	}
	return respondJSON(w, http.StatusOK, map[string]any{"fields": out})
}

// GET /api/questionnaire/{field}
func (r *Router) handleQuestionnaire(w http.ResponseWriter, req *http.Request) error {
	field := domain.Field(chi.URLParam(req, "field"))
	if !field.Valid() {
		return fmt.Errorf("%w: %s", domain.ErrInvalidField, field)
	}
	return respondJSON(w, http.StatusOK, map[string]any{
		"field":     field,
		"questions": questionnaire.For(field),
	})
}

// POST /api/session
func (r *Router) handleCreateSession(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Field string `json:"field"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: invalid body: %v", domain.ErrInvalidField, err)
	}
	sess, err := r.sessionsSvc.Create(req.Context(), domain.Field(body.Field))
	if err != nil {
		return err
	}
	return respondJSON(w, http.StatusCreated, map[string]any{
		"session_id": sess.ID,
		"field":      sess.Field,
		"status":     sess.Status,
		"created_at": sess.CreatedAt,
	})
}

// GET /api/session/{id}/status
func (r *Router) handleStatus(w http.ResponseWriter, req *http.Request) error {
	sess, err := r.sessionsSvc.Get(req.Context(), domain.SessionID(chi.URLParam(req, "id")))
	if err != nil {
		return err
	}
	return respondJSON(w, http.StatusOK, statusPayload(sess))
}

// DELETE /api/session/{id}
func (r *Router) handleDeleteSession(w http.ResponseWriter, req *http.Request) error {
	if err := r.sessionsSvc.Delete(req.Context(), domain.SessionID(chi.URLParam(req, "id"))); err != nil {
		return err
	}
	return respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// POST /api/session/{id}/questionnaire
func (r *Router) handleAnswers(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Answers map[string]any `json:"answers"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: invalid body: %v", questionnaire.ErrInvalidAnswers, err)
	}
	sess, err := r.sessionsSvc.SubmitQuestionnaire(req.Context(), domain.SessionID(chi.URLParam(req, "id")), body.Answers)
	if err != nil {
		return err
	}
	return respondJSON(w, http.StatusOK, statusPayload(sess))
}

// POST /api/upload/{id}
// Multipart form, one or more parts under the "files" key.
func (r *Router) handleUpload(w http.ResponseWriter, req *http.Request) error {
	if err := req.ParseMultipartForm(maxUploadMemory); err != nil {
		return fmt.Errorf("%w: parsing multipart form: %v", domain.ErrUnsupportedType, err)
	}
	parts := req.MultipartForm.File["files"]
	if len(parts) == 0 {
		return fmt.Errorf("%w: no files in form", domain.ErrUnsupportedType)
	}

	files := make([]appuploads.File, 0, len(parts))
	var closers []interface{ Close() error }
	defer func() {
		for _, c := range closers {
			c.Close()
		}
	}()
	for _, part := range parts {
		f, err := part.Open()
		if err != nil {
			return err
		}
		closers = append(closers, f)
		files = append(files, appuploads.File{
			Filename:    part.Filename,
			ContentType: part.Header.Get("Content-Type"),
			Content:     f,
		})
	}

	refs, err := r.uploadsSvc.Store(req.Context(), domain.SessionID(chi.URLParam(req, "id")), files)
	if err != nil {
		return err
	}

	type uploaded struct {
		Filename string `json:"filename"`
		Kind     string `json:"kind"`
		Size     int64  `json:"size"`
	}
	out := make([]uploaded, 0, len(refs))
	for _, ref := range refs {
		out = append(out, uploaded{Filename: ref.Filename, Kind: string(ref.Kind), Size: ref.Size})
	}
	return respondJSON(w, http.StatusOK, map[string]any{"uploaded": out})
}

// POST /api/analyze/{id}
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	sess, err := r.analysisSvc.Trigger(req.Context(), domain.SessionID(chi.URLParam(req, "id")))
	if err != nil {
		return err
	}
	return respondJSON(w, http.StatusAccepted, statusPayload(sess))
}

// GET /api/results/{id}
func (r *Router) handleResults(w http.ResponseWriter, req *http.Request) error {
	sess, err := r.analysisSvc.Results(req.Context(), domain.SessionID(chi.URLParam(req, "id")))
	if err != nil {
		return err
	}
	switch sess.Status {
	case domain.StatusCompleted:
		return respondJSON(w, http.StatusOK, map[string]any{
			"session_id":   sess.ID,
			"status":       sess.Status,
			"result":       sess.Result,
			"completed_at": sess.CompletedAt,
		})
	case domain.StatusError:
		return respondJSON(w, http.StatusOK, map[string]any{
			"session_id": sess.ID,
			"status":     sess.Status,
			"error":      sess.ErrorMessage,
		})
	default:
		return respondJSON(w, http.StatusOK, map[string]any{
			"session_id": sess.ID,
			"status":     sess.Status,
			"message":    fmt.Sprintf("analysis is %s", sess.Status),
		})
	}
}

// GET /api/analytics/overview
func (r *Router) handleOverview(w http.ResponseWriter, req *http.Request) error {
	ov, err := r.analyticsSvc.Overview(req.Context())
	if err != nil {
		return err
	}
	return respondJSON(w, http.StatusOK, ov)
}

// GET /api/analytics/analyses?skip=&limit=&field=&status=
func (r *Router) handleAnalysesList(w http.ResponseWriter, req *http.Request) error {
	q := req.URL.Query()
	skip, _ := strconv.Atoi(q.Get("skip"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	records, total, err := r.analyticsSvc.List(req.Context(), domanalysis.ListFilter{
		Skip:   skip,
		Limit:  limit,
		Field:  q.Get("field"),
		Status: q.Get("status"),
	})
	if err != nil {
		return err
	}
	if records == nil {
		records = []*domanalysis.Record{}
	}
	return respondJSON(w, http.StatusOK, map[string]any{
		"total":    total,
		"analyses": records,
	})
}

// GET /api/analytics/export
func (r *Router) handleExport(w http.ResponseWriter, req *http.Request) error {
	records, err := r.analyticsSvc.Export(req.Context())
	if err != nil {
		return err
	}
	if records == nil {
		records = []*domanalysis.Record{}
	}
	w.Header().Set("Content-Disposition", `attachment; filename="talent_analyses.json"`)
	return respondJSON(w, http.StatusOK, records)
}

// POST /api/gdpr/delete-data
func (r *Router) handleErase(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: invalid body: %v", errBadRequest, err)
	}
	if body.SessionID == "" {
		return fmt.Errorf("%w: session_id is required", errBadRequest)
	}
	audit, err := r.sessionsSvc.Erase(req.Context(), domain.SessionID(body.SessionID))
	if err != nil {
		return err
	}
	return respondJSON(w, http.StatusOK, audit)
}

// GET /api/gdpr/deletion-status/{id}
func (r *Router) handleDeletionStatus(w http.ResponseWriter, req *http.Request) error {
	state, audit, err := r.sessionsSvc.DeletionStatus(req.Context(), domain.SessionID(chi.URLParam(req, "id")))
	if err != nil {
		return err
	}
	out := map[string]any{"status": state}
	if audit != nil {
		out["audit"] = audit
	}
	return respondJSON(w, http.StatusOK, out)
}

func statusPayload(sess *domain.Session) map[string]any {
	return map[string]any{
		"session_id":   sess.ID,
		"field":        sess.Field,
		"status":       sess.Status,
		"answers_set":  len(sess.Answers) > 0,
		"documents":    len(sess.Documents),
		"cv_uploaded":  sess.HasCV(),
		"error":        sess.ErrorMessage,
		"created_at":   sess.CreatedAt,
		"completed_at": sess.CompletedAt,
		"has_result":   sess.Result != nil,
	}
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/wintersoldje/econ-shorts/backend/internal/artifacts"
	"github.com/wintersoldje/econ-shorts/backend/internal/elasticsearch"
	"github.com/wintersoldje/econ-shorts/backend/internal/jobs"
	"github.com/wintersoldje/econ-shorts/backend/internal/models"
	"github.com/wintersoldje/econ-shorts/backend/internal/render"
	"github.com/wintersoldje/econ-shorts/backend/internal/script"
)

type scriptComposer interface {
	Compose(ctx context.Context, kind models.ScriptKind) (*script.Script, error)
}

type syncRenderer interface {
	RenderSync(ctx context.Context, kind models.ScriptKind) (models.Job, error)
}

type renderArchive interface {
	SearchRenders(ctx context.Context, params elasticsearch.SearchParams) (*elasticsearch.SearchResult, error)
	Health(ctx context.Context) error
}

type server struct {
	log        *slog.Logger
	composer   scriptComposer
	renderer   syncRenderer
	jobs       jobs.Store
	dispatcher render.Dispatcher
	files      *artifacts.Store
	archive    renderArchive
}

type errorResponse struct {
	Error string `json:"error"`
}

type kindRequest struct {
	Type string `json:"type"`
}

type scriptResponse struct {
	Type        models.ScriptKind `json:"type"`
	Script      string            `json:"script"`
	DownloadURL string            `json:"download_url"`
}

type statusResponse struct {
	JobID    string           `json:"job_id"`
	Status   models.JobStatus `json:"status"`
	VideoURL string           `json:"video_url,omitempty"`
	Error    string           `json:"error,omitempty"`
}

func (s *server) routes(origins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/script", s.handleScript)
		r.Get("/download/script/{id}", s.handleDownloadScript)
		r.Post("/render", s.handleRender)
		r.Get("/render/status", s.handleRenderStatus)
		r.Delete("/render/{id}", s.handleCancel)
		r.Post("/render/sync", s.handleRenderSync)
		r.Get("/download/video/{id}", s.handleDownloadVideo)
		r.Get("/renders", s.handleSearch)
	})
	return r
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.archive != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := s.archive.Health(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleScript(w http.ResponseWriter, r *http.Request) {
	kind, ok := s.decodeKind(w, r)
	if !ok {
		return
	}

	sc, err := s.composer.Compose(r.Context(), kind)
	if err != nil {
		s.log.Error("compose script", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	id := artifacts.NewID()
	text := sc.Text()
	if _, err := s.files.SaveScript(id, text); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, scriptResponse{
		Type:        kind,
		Script:      text,
		DownloadURL: "/api/download/script/" + id,
	})
}

func (s *server) handleDownloadScript(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if artifacts.ValidateID(id) != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "script not found"})
		return
	}
	path := s.files.ScriptPath(id)
	if err := artifacts.Lookup(path); err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "script not found"})
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	serveAttachment(w, r, path, "script_"+id+".txt")
}

func (s *server) handleRender(w http.ResponseWriter, r *http.Request) {
	kind, ok := s.decodeKind(w, r)
	if !ok {
		return
	}

	id, err := render.Enqueue(r.Context(), s.jobs, s.dispatcher, kind)
	switch {
	case errors.Is(err, render.ErrQueueFull):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: render.ErrQueueFull.Error()})
		return
	case err != nil:
		s.log.Error("enqueue render", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	s.log.Info("render queued", slog.String("job_id", id), slog.String("kind", string(kind)))
	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": id})
}

func (s *server) handleRenderStatus(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("job_id"))
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "job_id is required"})
		return
	}

	job, err := s.jobs.Get(r.Context(), id)
	if err != nil {
		s.writeJobError(w, err)
		return
	}

	resp := statusResponse{JobID: job.ID, Status: job.Status}
	switch job.Status {
	case models.StatusDone:
		resp.VideoURL = "/api/download/video/" + job.ID
	case models.StatusFailed:
		resp.Error = job.Message
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, err := s.jobs.Get(r.Context(), id)
	if err != nil {
		s.writeJobError(w, err)
		return
	}
	if job.Status.Terminal() {
		writeJSON(w, http.StatusConflict, errorResponse{Error: jobs.ErrTerminal.Error()})
		return
	}

	canceler, ok := s.dispatcher.(render.Canceler)
	if !ok {
		writeJSON(w, http.StatusConflict, errorResponse{Error: "cancellation is not supported by this dispatcher"})
		return
	}
	if !canceler.Cancel(id) {
		writeJSON(w, http.StatusConflict, errorResponse{Error: "job is not running in this process"})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": id, "status": "canceling"})
}

func (s *server) handleRenderSync(w http.ResponseWriter, r *http.Request) {
	kind, ok := s.decodeKind(w, r)
	if !ok {
		return
	}

	job, err := s.renderer.RenderSync(r.Context(), kind)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	if err := artifacts.Lookup(job.VideoPath); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	w.Header().Set("Content-Type", "video/mp4")
	serveAttachment(w, r, job.VideoPath, "video_"+job.ID+".mp4")
}

func (s *server) handleDownloadVideo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, err := s.jobs.Get(r.Context(), id)
	if err != nil {
		s.writeJobError(w, err)
		return
	}
	if job.Status != models.StatusDone || job.VideoPath == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "video not ready"})
		return
	}
	if err := artifacts.Lookup(job.VideoPath); err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "video file missing"})
		return
	}
	w.Header().Set("Content-Type", "video/mp4")
	serveAttachment(w, r, job.VideoPath, "video_"+job.ID+".mp4")
}

func (s *server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "render archive is not configured"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	q := r.URL.Query()
	params := elasticsearch.SearchParams{
		Query:    strings.TrimSpace(q.Get("q")),
		Keywords: parseCSV(q.Get("keywords")),
		From:     clampInt(q.Get("from"), 0, 10_000),
		Size:     clampInt(q.Get("size"), 20, 100),
		Start:    parseTime(q.Get("start")),
		End:      parseTime(q.Get("end")),
	}
	if raw := q.Get("kind"); raw != "" {
		kind, err := models.ParseKind(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		params.Kind = kind
	}

	result, err := s.archive.SearchRenders(ctx, params)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// decodeKind reads {"type": ...} and writes a 400 when it is not a known kind.
func (s *server) decodeKind(w http.ResponseWriter, r *http.Request) (models.ScriptKind, bool) {
	var req kindRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<10)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid body: %v", err)})
		return "", false
	}
	kind, err := models.ParseKind(req.Type)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: models.ErrInvalidKind.Error()})
		return "", false
	}
	return kind, true
}

func (s *server) writeJobError(w http.ResponseWriter, err error) {
	if errors.Is(err, jobs.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "job not found"})
		return
	}
	s.log.Error("job store", slog.Any("err", err))
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
}

func serveAttachment(w http.ResponseWriter, r *http.Request, path, name string) {
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, name))
	http.ServeFile(w, r, path)
}

func parseTime(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return &ts
	}
	return nil
}

func parseCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func clampInt(raw string, fallback, max int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	if value > max {
		return max
	}
	return value
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

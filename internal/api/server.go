package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MikeSquared-Agency/callscope/internal/export"
	"github.com/MikeSquared-Agency/callscope/internal/processor"
	"github.com/MikeSquared-Agency/callscope/internal/risk"
	"github.com/MikeSquared-Agency/callscope/internal/store"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var allowedExtensions = map[string]bool{
	".wav": true, ".mp3": true, ".m4a": true, ".aac": true, ".ogg": true, ".flac": true,
}

var allowedMIMETypes = map[string]bool{
	"audio/wav": true, "audio/x-wav": true, "audio/mpeg": true, "audio/mp3": true,
	"audio/mp4": true, "audio/m4a": true, "audio/x-m4a": true, "audio/aac": true,
	"audio/ogg": true, "audio/flac": true, "audio/webm": true,
	// generic clients often send no specific type
	"application/octet-stream": true,
}

// Service is satisfied by *processor.Processor.
type Service interface {
	SubmitAudio(ctx context.Context, name string, data []byte) (processor.Submission, error)
	SubmitText(ctx context.Context, content string) (processor.Submission, error)
	List(ctx context.Context) ([]store.Call, error)
	Delete(ctx context.Context, id int64) (bool, error)
	Summary(ctx context.Context) (store.Summary, error)
	Risk(ctx context.Context) (risk.Assessment, error)
}

type Options struct {
	MaxFileSize     int64
	AllowedOrigins  []string
	AnalysisTimeout time.Duration
}

type Server struct {
	router *chi.Mux
	http   *http.Server
	svc    Service
	opts   Options
	logger *slog.Logger
}

func NewServer(port int, svc Service, opts Options, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	s := &Server{
		router: router,
		svc:    svc,
		opts:   opts,
		logger: logger,
	}
	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	router.Get("/", s.root)
	router.Get("/health", s.health)
	router.Post("/analyze", s.analyzeText)
	router.Post("/analyze-call", s.analyzeCall)
	router.Route("/calls", func(r chi.Router) {
		r.Get("/", s.listCalls)
		r.Get("/summary", s.summary)
		r.Get("/export.xlsx", s.exportCalls)
		r.Delete("/{id}", s.deleteCall)
	})
	router.Get("/analytics/operational-risk", s.operationalRisk)

	return s
}

func (s *Server) Start() error {
	s.logger.Info("API server starting", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Customer Support Call Analytics API is running"})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type analyzeRequest struct {
	InputType string `json:"input_type"`
	Content   string `json:"content"`
}

func (s *Server) analyzeText(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid_request", map[string]any{"detail": "invalid json body"})
		return
	}
	switch strings.ToLower(strings.TrimSpace(req.InputType)) {
	case "", "text":
	case "call":
		writeFailure(w, http.StatusBadRequest, "unsupported_input_type", map[string]any{
			"detail": "submit audio through /analyze-call",
		})
		return
	default:
		writeFailure(w, http.StatusBadRequest, "unsupported_input_type", map[string]any{"detail": req.InputType})
		return
	}

	ctx, cancel := s.analysisContext(r)
	defer cancel()

	sub, err := s.svc.SubmitText(ctx, req.Content)
	if err != nil {
		s.internalError(w, r, "text analysis failed", err)
		return
	}
	writeJSON(w, submissionStatus(sub), sub)
}

type callAnalysis struct {
	Transcript string `json:"transcript"`
	Language   string `json:"language,omitempty"`
	Insights   any    `json:"insights"`
	LLMStatus  string `json:"llm_status"`
}

func (s *Server) analyzeCall(w http.ResponseWriter, r *http.Request) {
	// multipart framing adds a little on top of the file itself
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxFileSize+1<<20)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeTooLarge(w)
			return
		}
		writeFailure(w, http.StatusBadRequest, "invalid_request", map[string]any{"detail": "invalid multipart payload"})
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid_request", map[string]any{"detail": "file is required"})
		return
	}
	defer file.Close()

	if !allowedExtensions[strings.ToLower(filepath.Ext(header.Filename))] || !allowedMIME(header.Header.Get("Content-Type")) {
		writeFailure(w, http.StatusUnsupportedMediaType, "invalid_file_type", map[string]any{
			"allowed_extensions": sortedExtensions(),
		})
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.opts.MaxFileSize+1))
	if err != nil {
		s.internalError(w, r, "read upload failed", err)
		return
	}
	if len(data) == 0 {
		writeFailure(w, http.StatusBadRequest, "empty_file", nil)
		return
	}
	if int64(len(data)) > s.opts.MaxFileSize {
		s.writeTooLarge(w)
		return
	}

	ctx, cancel := s.analysisContext(r)
	defer cancel()

	sub, err := s.svc.SubmitAudio(ctx, filepath.Base(header.Filename), data)
	if err != nil {
		s.internalError(w, r, "call analysis failed", err)
		return
	}
	if sub.Status != processor.StatusSuccess {
		writeJSON(w, submissionStatus(sub), sub)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  sub.Status,
		"call_id": sub.CallID,
		"analysis": callAnalysis{
			Transcript: sub.Transcript,
			Language:   sub.Language,
			Insights:   sub.Insights,
			LLMStatus:  string(sub.LLMStatus),
		},
	})
}

func (s *Server) listCalls(w http.ResponseWriter, r *http.Request) {
	calls, err := s.svc.List(r.Context())
	if err != nil {
		s.internalError(w, r, "list calls failed", err)
		return
	}
	if calls == nil {
		calls = []store.Call{}
	}
	writeJSON(w, http.StatusOK, calls)
}

func (s *Server) deleteCall(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid call id"})
		return
	}
	deleted, err := s.svc.Delete(r.Context(), id)
	if err != nil {
		s.internalError(w, r, "delete call failed", err)
		return
	}
	if !deleted {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Call not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted", "id": id})
}

func (s *Server) summary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.svc.Summary(r.Context())
	if err != nil {
		s.internalError(w, r, "summary failed", err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) exportCalls(w http.ResponseWriter, r *http.Request) {
	calls, err := s.svc.List(r.Context())
	if err != nil {
		s.internalError(w, r, "list calls failed", err)
		return
	}
	sum, err := s.svc.Summary(r.Context())
	if err != nil {
		s.internalError(w, r, "summary failed", err)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteCalls(&buf, calls, sum); err != nil {
		s.internalError(w, r, "export failed", err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="support_calls.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) operationalRisk(w http.ResponseWriter, r *http.Request) {
	a, err := s.svc.Risk(r.Context())
	if err != nil {
		s.internalError(w, r, "risk scoring failed", err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) analysisContext(r *http.Request) (context.Context, context.CancelFunc) {
	if s.opts.AnalysisTimeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), s.opts.AnalysisTimeout)
}

func (s *Server) writeTooLarge(w http.ResponseWriter) {
	writeFailure(w, http.StatusRequestEntityTooLarge, "file_too_large", map[string]any{
		"max_size_mb": s.opts.MaxFileSize / (1 << 20),
	})
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	s.logger.Error(msg, "error", err, "request_id", middleware.GetReqID(r.Context()))
	writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": msg})
}

// submissionStatus maps a processor outcome onto an HTTP status. Duplicates
// are a normal answer; pipeline failures are unprocessable input.
func submissionStatus(sub processor.Submission) int {
	if sub.Status == processor.StatusFailed {
		return http.StatusUnprocessableEntity
	}
	return http.StatusOK
}

func allowedMIME(contentType string) bool {
	if contentType == "" {
		return true
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return allowedMIMETypes[strings.ToLower(mt)]
}

func sortedExtensions() []string {
	out := make([]string, 0, len(allowedExtensions))
	for ext := range allowedExtensions {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

func writeFailure(w http.ResponseWriter, status int, reason string, extra map[string]any) {
	body := map[string]any{"status": processor.StatusFailed, "reason": reason}
	for k, v := range extra {
		body[k] = v
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

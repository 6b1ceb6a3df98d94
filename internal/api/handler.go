// Package api exposes the practice data over a JSON HTTP API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"go.uber.org/zap"

	"github.com/verte-zerg/fluent/internal/model"
	"github.com/verte-zerg/fluent/internal/speech"
	"github.com/verte-zerg/fluent/internal/store"
	"github.com/verte-zerg/fluent/internal/transfer"
)

const maxRequestSize = 10 * 1024 * 1024

// maxSessionMs is the longest duration representable as a time.Duration.
const maxSessionMs = math.MaxInt64 / int64(time.Millisecond)

// Speaker synthesizes audio for a sentence.
type Speaker interface {
	Synthesize(ctx context.Context, req speech.Request) (speech.Result, error)
}

// BaseHandler provides common handler functionality.
type BaseHandler struct {
	Logger *zap.Logger
}

// RespondJSON sends a JSON response.
func (h *BaseHandler) RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// RespondError sends an error JSON response.
func (h *BaseHandler) RespondError(w http.ResponseWriter, status int, message string) {
	h.RespondJSON(w, status, map[string]string{"error": message})
}

// Handler serves the practice API. The store is single-threaded, so every
// store call holds mu.
type Handler struct {
	BaseHandler
	mu      sync.Mutex
	store   *store.Store
	speaker Speaker
	now     func() time.Time
}

// NewHandler creates a handler. speaker may be nil, which disables /speech.
func NewHandler(st *store.Store, speaker Speaker, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		BaseHandler: BaseHandler{Logger: logger},
		store:       st,
		speaker:     speaker,
		now:         time.Now,
	}
}

// Router builds the chi router with middleware. requestsPerMinute <= 0
// disables rate limiting.
func (h *Handler) Router(requestsPerMinute int) http.Handler {
	r := chi.NewRouter()
	r.Use(RequestIDMiddleware)
	r.Use(LoggerMiddleware(h.Logger))
	r.Use(RecoveryMiddleware(h.Logger))
	if requestsPerMinute > 0 {
		r.Use(httprate.LimitByIP(requestsPerMinute, time.Minute))
	}
	r.Use(RequestSizeLimitMiddleware(maxRequestSize))

	r.Route("/api", func(r chi.Router) {
		h.RegisterRoutes(r)
	})
	return r
}

// RegisterRoutes registers all API routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/data", h.ExportData)
	r.Put("/data", h.ImportData)
	r.Get("/stats", h.GetStatistics)
	r.Get("/selected", h.GetSelected)
	r.Post("/sessions", h.RecordSession)
	r.Post("/speech", h.Speak)

	r.Route("/topics", func(r chi.Router) {
		r.Get("/", h.ListTopics)
		r.Post("/", h.CreateTopic)
		r.Route("/{topicID}", func(r chi.Router) {
			r.Get("/", h.GetTopic)
			r.Put("/", h.UpdateTopic)
			r.Delete("/", h.DeleteTopic)
			r.Post("/sentences", h.CreateSentence)
			r.Route("/sentences/{sentenceID}", func(r chi.Router) {
				r.Put("/", h.UpdateSentence)
				r.Delete("/", h.DeleteSentence)
				r.Put("/selected", h.SelectSentence)
				r.Post("/count", h.IncrementCount)
			})
		})
	})
}

type topicRequest struct {
	Name      string            `json:"name"`
	Sentences *[]model.Sentence `json:"sentences,omitempty"`
}

type sentenceRequest struct {
	Text          string `json:"text"`
	Translation   string `json:"translation"`
	PracticeCount *int   `json:"practiceCount,omitempty"`
	Selected      *bool  `json:"selected,omitempty"`
}

type selectRequest struct {
	Selected *bool `json:"selected"`
}

type sessionRequest struct {
	DurationMs int64 `json:"durationMs"`
}

// ExportData handles GET /api/data. ?format=yaml returns a YAML document.
func (h *Handler) ExportData(w http.ResponseWriter, r *http.Request) {
	format, err := transfer.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.mu.Lock()
	data := h.store.Snapshot()
	h.mu.Unlock()

	if format == transfer.FormatJSON {
		h.RespondJSON(w, http.StatusOK, data)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.Header().Set("Content-Disposition", `attachment; filename="`+transfer.ExportFileName(h.now(), format)+`"`)
	if err := transfer.Export(w, data, format); err != nil {
		h.Logger.Error("failed to export data", zap.Error(err))
	}
}

// ImportData handles PUT /api/data. An invalid document leaves the state
// untouched.
func (h *Handler) ImportData(w http.ResponseWriter, r *http.Request) {
	data, err := transfer.Decode(r.Body)
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.mu.Lock()
	err = h.store.ReplaceAll(r.Context(), data)
	h.mu.Unlock()
	if !h.persisted(w, err) {
		return
	}
	h.RespondJSON(w, http.StatusOK, map[string]int{
		"topics":   len(data.Topics),
		"sessions": len(data.Sessions),
	})
}

// GetStatistics handles GET /api/stats.
func (h *Handler) GetStatistics(w http.ResponseWriter, _ *http.Request) {
	h.mu.Lock()
	st := h.store.Statistics()
	h.mu.Unlock()
	h.RespondJSON(w, http.StatusOK, st)
}

// GetSelected handles GET /api/selected.
func (h *Handler) GetSelected(w http.ResponseWriter, _ *http.Request) {
	h.mu.Lock()
	selected := h.store.SelectedSentences()
	h.mu.Unlock()
	if selected == nil {
		selected = []model.SelectedSentence{}
	}
	h.RespondJSON(w, http.StatusOK, selected)
}

// ListTopics handles GET /api/topics.
func (h *Handler) ListTopics(w http.ResponseWriter, _ *http.Request) {
	h.mu.Lock()
	data := h.store.Snapshot()
	h.mu.Unlock()
	h.RespondJSON(w, http.StatusOK, data.Topics)
}

// GetTopic handles GET /api/topics/{topicID}.
func (h *Handler) GetTopic(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	topic, ok := h.store.Topic(chi.URLParam(r, "topicID"))
	h.mu.Unlock()
	if !ok {
		h.RespondError(w, http.StatusNotFound, "topic not found")
		return
	}
	h.RespondJSON(w, http.StatusOK, topic)
}

// CreateTopic handles POST /api/topics.
func (h *Handler) CreateTopic(w http.ResponseWriter, r *http.Request) {
	var req topicRequest
	if !h.decode(w, r, &req) {
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		h.RespondError(w, http.StatusBadRequest, "name is required")
		return
	}
	topic := model.Topic{ID: model.NewTopicID(), Name: name, Sentences: []model.Sentence{}}
	if req.Sentences != nil {
		topic.Sentences = withIDs(*req.Sentences)
	}

	h.mu.Lock()
	err := h.store.AddTopic(r.Context(), topic)
	saved, _ := h.store.Topic(topic.ID)
	h.mu.Unlock()
	if !h.persisted(w, err) {
		return
	}
	h.RespondJSON(w, http.StatusCreated, saved)
}

// UpdateTopic handles PUT /api/topics/{topicID}. Omitted sentences are kept.
func (h *Handler) UpdateTopic(w http.ResponseWriter, r *http.Request) {
	var req topicRequest
	if !h.decode(w, r, &req) {
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		h.RespondError(w, http.StatusBadRequest, "name is required")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	topic, ok := h.store.Topic(chi.URLParam(r, "topicID"))
	if !ok {
		h.RespondError(w, http.StatusNotFound, "topic not found")
		return
	}
	topic.Name = name
	if req.Sentences != nil {
		topic.Sentences = withIDs(*req.Sentences)
	}
	if !h.persisted(w, h.store.UpdateTopic(r.Context(), topic)) {
		return
	}
	saved, _ := h.store.Topic(topic.ID)
	h.RespondJSON(w, http.StatusOK, saved)
}

// DeleteTopic handles DELETE /api/topics/{topicID}.
func (h *Handler) DeleteTopic(w http.ResponseWriter, r *http.Request) {
	topicID := chi.URLParam(r, "topicID")
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.store.Topic(topicID); !ok {
		h.RespondError(w, http.StatusNotFound, "topic not found")
		return
	}
	if !h.persisted(w, h.store.DeleteTopic(r.Context(), topicID)) {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateSentence handles POST /api/topics/{topicID}/sentences.
func (h *Handler) CreateSentence(w http.ResponseWriter, r *http.Request) {
	var req sentenceRequest
	if !h.decode(w, r, &req) {
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		h.RespondError(w, http.StatusBadRequest, "text is required")
		return
	}
	sentence := model.Sentence{
		ID:          model.NewSentenceID(),
		Text:        text,
		Translation: strings.TrimSpace(req.Translation),
	}
	if req.Selected != nil {
		sentence.Selected = *req.Selected
	}

	topicID := chi.URLParam(r, "topicID")
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.store.Topic(topicID); !ok {
		h.RespondError(w, http.StatusNotFound, "topic not found")
		return
	}
	if !h.persisted(w, h.store.AddSentence(r.Context(), topicID, sentence)) {
		return
	}
	h.RespondJSON(w, http.StatusCreated, sentence)
}

// UpdateSentence handles PUT /api/topics/{topicID}/sentences/{sentenceID}.
func (h *Handler) UpdateSentence(w http.ResponseWriter, r *http.Request) {
	var req sentenceRequest
	if !h.decode(w, r, &req) {
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		h.RespondError(w, http.StatusBadRequest, "text is required")
		return
	}
	if req.PracticeCount != nil && *req.PracticeCount < 0 {
		h.RespondError(w, http.StatusBadRequest, "practiceCount must not be negative")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	topicID, sentence, ok := h.lookupSentence(w, r)
	if !ok {
		return
	}
	sentence.Text = text
	sentence.Translation = strings.TrimSpace(req.Translation)
	if req.PracticeCount != nil {
		sentence.PracticeCount = *req.PracticeCount
	}
	if req.Selected != nil {
		sentence.Selected = *req.Selected
	}
	if !h.persisted(w, h.store.UpdateSentence(r.Context(), topicID, sentence)) {
		return
	}
	h.RespondJSON(w, http.StatusOK, sentence)
}

// DeleteSentence handles DELETE /api/topics/{topicID}/sentences/{sentenceID}.
func (h *Handler) DeleteSentence(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	topicID, sentence, ok := h.lookupSentence(w, r)
	if !ok {
		return
	}
	if !h.persisted(w, h.store.DeleteSentence(r.Context(), topicID, sentence.ID)) {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SelectSentence handles PUT .../sentences/{sentenceID}/selected.
func (h *Handler) SelectSentence(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Selected == nil {
		h.RespondError(w, http.StatusBadRequest, "selected is required")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	topicID, sentence, ok := h.lookupSentence(w, r)
	if !ok {
		return
	}
	if !h.persisted(w, h.store.ToggleSentenceSelection(r.Context(), topicID, sentence.ID, *req.Selected)) {
		return
	}
	sentence.Selected = *req.Selected
	h.RespondJSON(w, http.StatusOK, sentence)
}

// IncrementCount handles POST .../sentences/{sentenceID}/count.
func (h *Handler) IncrementCount(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	topicID, sentence, ok := h.lookupSentence(w, r)
	if !ok {
		return
	}
	if !h.persisted(w, h.store.IncrementSentenceCount(r.Context(), topicID, sentence.ID)) {
		return
	}
	sentence.PracticeCount++
	h.RespondJSON(w, http.StatusOK, sentence)
}

// RecordSession handles POST /api/sessions. Non-positive durations are
// accepted and ignored.
func (h *Handler) RecordSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.DurationMs <= 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if req.DurationMs > maxSessionMs {
		h.RespondError(w, http.StatusBadRequest, "durationMs is too large")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	before := len(h.store.Snapshot().Sessions)
	if !h.persisted(w, h.store.RecordPracticeSession(r.Context(), time.Duration(req.DurationMs)*time.Millisecond)) {
		return
	}
	sessions := h.store.Snapshot().Sessions
	if len(sessions) == before {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.RespondJSON(w, http.StatusCreated, sessions[len(sessions)-1])
}

// Speak handles POST /api/speech. No state is touched.
func (h *Handler) Speak(w http.ResponseWriter, r *http.Request) {
	var req speech.Request
	if !h.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		h.RespondError(w, http.StatusBadRequest, "text is required")
		return
	}
	if h.speaker == nil {
		h.RespondError(w, http.StatusServiceUnavailable, "speech is not configured")
		return
	}
	res, err := h.speaker.Synthesize(r.Context(), req)
	if err != nil {
		h.Logger.Warn("speech synthesis failed",
			zap.String("request_id", GetRequestID(r.Context())),
			zap.Error(err),
		)
		status := http.StatusBadGateway
		if errors.Is(err, speech.ErrMissingCredential) {
			status = http.StatusBadRequest
		}
		h.RespondError(w, status, err.Error())
		return
	}
	h.RespondJSON(w, http.StatusOK, res)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// persisted reports whether a mutation was saved. The state change stands
// either way; the client learns the write failed.
func (h *Handler) persisted(w http.ResponseWriter, err error) bool {
	if err == nil {
		return true
	}
	h.Logger.Error("failed to persist change", zap.Error(err))
	h.RespondError(w, http.StatusInternalServerError, "change applied but not saved: "+err.Error())
	return false
}

// lookupSentence resolves the path ids. Callers hold mu.
func (h *Handler) lookupSentence(w http.ResponseWriter, r *http.Request) (string, model.Sentence, bool) {
	topicID := chi.URLParam(r, "topicID")
	sentenceID := chi.URLParam(r, "sentenceID")
	topic, ok := h.store.Topic(topicID)
	if !ok {
		h.RespondError(w, http.StatusNotFound, "topic not found")
		return "", model.Sentence{}, false
	}
	for _, s := range topic.Sentences {
		if s.ID == sentenceID {
			return topicID, s, true
		}
	}
	h.RespondError(w, http.StatusNotFound, "sentence not found")
	return "", model.Sentence{}, false
}

func withIDs(sentences []model.Sentence) []model.Sentence {
	out := make([]model.Sentence, 0, len(sentences))
	for _, s := range sentences {
		if s.ID == "" {
			s.ID = model.NewSentenceID()
		}
		out = append(out, s)
	}
	return out
}

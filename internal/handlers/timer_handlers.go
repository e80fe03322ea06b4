package handlers

import (
	"context"
	"net/http"
	"time"
	"workTracker/internal/handlers/dto"
	"workTracker/internal/logger"
	"workTracker/internal/models/timeentry"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TimerHandler struct {
	TimerService TimerService
}

func NewTimerHandler(timerService TimerService) TimerHandler {
	return TimerHandler{
		TimerService: timerService,
	}
}

// GetActive - GET /timer
func (h *TimerHandler) GetActive(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	entry, err := h.TimerService.GetActive(r.Context(), actor.UserID)
	if err != nil {
		handleServiceError(w, r, err, "get_active_timer")
		return
	}
	responseWithData(w, http.StatusOK, dto.FromEntry(entry))
}

// Start - POST /timer/start, тело необязательно
func (h *TimerHandler) Start(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var request dto.StartTimerRequest
	if r.ContentLength != 0 {
		if !decodeJSON(w, r, &request) {
			return
		}
	}

	entry, err := h.TimerService.Start(r.Context(), actor.UserID, request.Links())
	if err != nil {
		handleServiceError(w, r, err, "start_timer")
		return
	}

	logger.Info("HTTP_OUT: Таймер запущен",
		zap.String("entry_id", entry.UUID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	responseWithData(w, http.StatusCreated, dto.FromEntry(entry))
}

func (h *TimerHandler) Pause(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "pause_timer", h.TimerService.Pause)
}

func (h *TimerHandler) Resume(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "resume_timer", h.TimerService.Resume)
}

func (h *TimerHandler) Stop(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "stop_timer", h.TimerService.Stop)
}

func (h *TimerHandler) transition(w http.ResponseWriter, r *http.Request, operation string,
	call func(ctx context.Context, userID uuid.UUID) (*timeentry.Entry, error)) {

	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	entry, err := call(r.Context(), actor.UserID)
	if err != nil {
		handleServiceError(w, r, err, operation)
		return
	}

	logger.Info("HTTP_OUT: Состояние таймера изменено",
		zap.String("operation", operation),
		zap.String("entry_id", entry.UUID.String()),
		zap.String("status", string(entry.Status)))

	responseWithData(w, http.StatusOK, dto.FromEntry(entry))
}

// PostManualEntry - POST /time-entries
func (h *TimerHandler) PostManualEntry(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var request dto.ManualEntryRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	if request.StartTime.IsZero() {
		logger.Warn("HTTP: Ошибка валидации",
			zap.String("field", "start_time"),
			zap.String("error", "empty_field"),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "время начала должно быть задано")
		return
	}

	entry, err := h.TimerService.CreateManual(r.Context(), actor.UserID, request.Manual())
	if err != nil {
		handleServiceError(w, r, err, "create_manual_entry")
		return
	}
	responseWithData(w, http.StatusCreated, dto.FromEntry(entry))
}

// SyncOffline - POST /time-entries/sync
func (h *TimerHandler) SyncOffline(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var request dto.SyncRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	manual := make([]timeentry.Manual, len(request.Entries))
	for i, e := range request.Entries {
		manual[i] = e.Manual()
	}

	result, err := h.TimerService.SyncOffline(r.Context(), actor.UserID, manual)
	if err != nil {
		handleServiceError(w, r, err, "sync_offline")
		return
	}

	logger.Info("HTTP_OUT: Офлайн-записи синхронизированы",
		zap.Int("created", len(result.Created)),
		zap.Int("skipped", len(result.Skipped)),
		zap.Duration("ms", time.Since(start)))

	responseWithData(w, http.StatusOK, dto.SyncResponse{
		Created: dto.FromEntryList(result.Created),
		Skipped: result.Skipped,
	})
}

// UpdateEntry - PUT /time-entries/{id}
func (h *TimerHandler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	var request dto.UpdateEntryRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	entry, err := h.TimerService.UpdateEntry(r.Context(), id, actor.UserID, request.Options()...)
	if err != nil {
		handleServiceError(w, r, err, "update_entry")
		return
	}
	responseWithData(w, http.StatusOK, dto.FromEntry(entry))
}

// DeleteEntry - DELETE /time-entries/{id}
func (h *TimerHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.TimerService.DeleteEntry(r.Context(), id, actor.UserID); err != nil {
		handleServiceError(w, r, err, "delete_entry")
		return
	}
	responseNoContent(w)
}

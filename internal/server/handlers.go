package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"carpark-gate/internal/gate"
	"carpark-gate/internal/logging"
)

type Handler struct {
	processor   *gate.InstrumentedProcessor
	serviceName string
}

func NewHandler(processor *gate.InstrumentedProcessor, serviceName string) *Handler {
	return &Handler{
		processor:   processor,
		serviceName: serviceName,
	}
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Service: h.serviceName,
		Meta:    extractMeta(r.Context()),
	})
}

func (h *Handler) Arrival(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, gate.Arrival{}, "Arrival recorded")
}

func (h *Handler) Departure(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, gate.Departure{}, "Departure recorded")
}

func (h *Handler) RequestEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req EntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	h.apply(w, r, gate.RequestEntry{GateID: req.GateID}, "Entry request recorded")
}

func (h *Handler) apply(w http.ResponseWriter, r *http.Request, ev gate.Event, message string) {
	ctx := r.Context()

	transitions, err := h.processor.OnEvent(ctx, ev)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, gate.ErrValidation):
			status = http.StatusBadRequest
		case errors.Is(err, gate.ErrConfiguration):
			status = http.StatusServiceUnavailable
		}
		logging.Warn(ctx).Err(err).Str("event", ev.Kind().String()).Msg("event rejected")
		WriteError(ctx, w, status, err.Error())
		return
	}

	if transitions == nil {
		transitions = []gate.Transition{}
	}

	WriteSuccess(ctx, w, message, EventResponse{
		Event:       ev.Kind().String(),
		Transitions: transitions,
		Status:      h.processor.Snapshot(),
	})
}

func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(r.Context(), w, "Status retrieved successfully", h.processor.Snapshot())
}

func (h *Handler) GetTransitions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			WriteError(ctx, w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	WriteSuccess(ctx, w, "Transitions retrieved successfully", JournalResponse{
		Records: h.processor.Journal(limit),
	})
}

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	service "github.com/okian/ltrc/internal/app"
	"github.com/okian/ltrc/internal/domain/model"
	"github.com/okian/ltrc/pkg/logger"
)

const maxEventBody = 1 << 20

// EventDependencies defines the interface for event processing dependencies.
type EventDependencies interface {
	Submit(ctx context.Context, ev model.Event) (service.Receipt, error)
	Preview(ctx context.Context, ev model.Event) (model.Report, error)
	Result(ctx context.Context, id string) (service.Result, error)
}

// eventRequest mirrors the OpenAPI schema for POST /events.
type eventRequest struct {
	EventID   string          `json:"event_id"`
	Mode      string          `json:"mode"`
	Results   []resultRequest `json:"results"`
	Modifiers model.Modifiers `json:"modifiers"`
	Bonus     map[string]int  `json:"bonus_accolades"`
}

type resultRequest struct {
	Competitor string    `json:"competitor"`
	RawScore   *int      `json:"raw_score"`
	MMR        model.MMR `json:"mmr"`
}

func (e eventRequest) event() (model.Event, error) { //nolint:gocritic // hugeParam: decoded once
	if strings.TrimSpace(e.Mode) == "" {
		return model.Event{}, fmt.Errorf("%w: missing mode", ErrBadRequest)
	}
	mode, err := model.ParseMode(e.Mode)
	if err != nil {
		return model.Event{}, err
	}
	ev := model.Event{
		ID:        strings.TrimSpace(e.EventID),
		Mode:      mode,
		Results:   make([]model.EventResult, len(e.Results)),
		Modifiers: e.Modifiers,
		Bonus:     e.Bonus,
	}
	for i, r := range e.Results {
		if r.RawScore == nil {
			return model.Event{}, fmt.Errorf("%w: %d racers but result %d has no raw_score",
				model.ErrShapeMismatch, len(e.Results), i+1)
		}
		ev.Results[i] = model.EventResult{
			Competitor: strings.TrimSpace(r.Competitor),
			RawScore:   *r.RawScore,
			MMR:        r.MMR,
		}
	}
	return ev, nil
}

// EventsHandler handles event requests.
type EventsHandler struct {
	deps   EventDependencies
	logger logger.Logger
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps EventDependencies, log logger.Logger) *EventsHandler {
	return &EventsHandler{deps: deps, logger: log}
}

func (h *EventsHandler) decode(w http.ResponseWriter, r *http.Request, op string) (model.Event, error) {
	var req eventRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEventBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return model.Event{}, WrapKind(op, ErrBadRequest, err)
	}
	ev, err := req.event()
	if err != nil {
		return model.Event{}, Wrap(op, err)
	}
	return ev, nil
}

// HandlePostEvent handles POST /events. The event is validated, checked for
// a repeated ID and queued; the response is 202 for new events and 200 for
// duplicates.
func (h *EventsHandler) HandlePostEvent(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_event"
	ev, err := h.decode(w, r, op)
	if err != nil {
		writeFailure(w, err)
		return
	}
	receipt, err := h.deps.Submit(r.Context(), ev)
	if err != nil {
		h.logger.Warn(r.Context(), "event not accepted",
			logger.String("event_id", ev.ID),
			logger.Error(err),
		)
		writeFailure(w, Wrap(op, err))
		return
	}
	status := http.StatusAccepted
	if receipt.Duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, receipt)
}

// HandlePreview handles POST /events/preview: the report is computed but
// nothing is written.
func (h *EventsHandler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	const op = "api.preview_event"
	ev, err := h.decode(w, r, op)
	if err != nil {
		writeFailure(w, err)
		return
	}
	report, err := h.deps.Preview(r.Context(), ev)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// HandleGetEvent handles GET /events/{id}.
func (h *EventsHandler) HandleGetEvent(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_event"
	id := r.PathValue("id")
	if id == "" {
		writeFailure(w, NewKind(op, ErrBadRequest))
		return
	}
	res, err := h.deps.Result(r.Context(), id)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/tubesense/internal/domain/model"
	"github.com/okian/tubesense/internal/domain/pipeline"
)

// runRequest is the body of POST /runs.
type runRequest struct {
	ChannelID   string   `json:"channel_id"`
	Mode        string   `json:"mode"`
	Since       string   `json:"since"`
	Days        *int     `json:"days"`
	LikeWeight  *float64 `json:"like_weight"`
	ReplyWeight *float64 `json:"reply_weight"`
}

func (r runRequest) toPipeline() (pipeline.Request, error) {
	if strings.TrimSpace(r.ChannelID) == "" {
		return pipeline.Request{}, errors.New("missing channel_id")
	}
	mode, err := model.ParseMode(r.Mode)
	if err != nil {
		return pipeline.Request{}, err
	}
	if r.Days != nil && *r.Days < 0 {
		return pipeline.Request{}, errors.New("days must be non-negative")
	}
	return pipeline.Request{
		ChannelID:   r.ChannelID,
		Mode:        mode,
		Since:       r.Since,
		Days:        r.Days,
		LikeWeight:  r.LikeWeight,
		ReplyWeight: r.ReplyWeight,
	}, nil
}

type acceptedResponse struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`
}

// RunsHandler handles run submission and lookup.
type RunsHandler struct {
	deps Dependencies
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(deps Dependencies) *RunsHandler {
	return &RunsHandler{deps: deps}
}

// HandlePostRun handles POST /runs requests.
func (h *RunsHandler) HandlePostRun(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_run"
	var body runRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		writeErrorFor(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	req, err := body.toPipeline()
	if err != nil {
		writeErrorFor(w, WrapKind(op, ErrBadRequest, err))
		return
	}

	run, err := h.deps.Submit(r.Context(), req)
	if err != nil {
		writeErrorFor(w, Wrap(op, err))
		return
	}
	w.Header().Set("Location", "/runs/"+run.ID)
	writeJSON(w, http.StatusAccepted, acceptedResponse{RunID: run.ID, Status: run.Status})
}

// HandleGetRun handles GET /runs/{id} requests.
func (h *RunsHandler) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_run"
	id := r.PathValue("id")
	if strings.TrimSpace(id) == "" {
		writeErrorFor(w, NewKind(op, ErrBadRequest))
		return
	}
	run, err := h.deps.RunStatus(r.Context(), id)
	if err != nil {
		writeErrorFor(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, run)
}

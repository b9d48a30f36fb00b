package api

import (
	"net/http"
	"strconv"
)

const maxRunsLimit = 100

// ChannelsHandler serves per-channel run history and summaries.
type ChannelsHandler struct {
	deps     Dependencies
	maxLimit int
}

// NewChannelsHandler creates a new channels handler.
func NewChannelsHandler(deps Dependencies, maxLimit int) *ChannelsHandler {
	return &ChannelsHandler{deps: deps, maxLimit: maxLimit}
}

// HandleGetRuns handles GET /channels/{id}/runs?limit=N requests.
func (h *ChannelsHandler) HandleGetRuns(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_channel_runs"
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			writeErrorFor(w, NewKind(op, ErrBadRequest))
			return
		}
		if n > h.maxLimit {
			writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
			return
		}
		limit = n
	}
	runs, err := h.deps.ChannelRuns(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		writeErrorFor(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

// HandleGetSummary handles GET /channels/{id}/summary requests.
func (h *ChannelsHandler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_channel_summary"
	sum, err := h.deps.ChannelSummary(r.Context(), r.PathValue("id"))
	if err != nil {
		writeErrorFor(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

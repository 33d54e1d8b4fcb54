package api

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"shimwrapper-dashboard/runlog"
	"shimwrapper-dashboard/runner"
)

func (h *handler) getRunLog(w http.ResponseWriter, r *http.Request) {
	lg, err := runlog.Load(h.store.Root(), h.markers)
	if err != nil {
		h.logger.Warn("load last run", zap.Error(err))
	}
	writeJSON(w, http.StatusOK, lg)
}

func (h *handler) runChecks(w http.ResponseWriter, r *http.Request) {
	if h.runner == nil {
		writeError(w, http.StatusServiceUnavailable, "runner not configured")
		return
	}
	key := clientKey(r)
	ok, left := h.cooldown.reserve(key)
	if !ok {
		retry := int(math.Ceil(left.Seconds()))
		w.Header().Set("Retry-After", strconv.Itoa(retry))
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"error":      "check run requested too recently",
			"retryAfter": retry,
		})
		return
	}

	run, err := h.runner.Start()
	if err != nil {
		h.cooldown.release(key)
		if errors.Is(err, runner.ErrRunInProgress) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		h.logger.Error("start check run", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to start check run")
		return
	}
	writeJSON(w, http.StatusAccepted, run.Info())
}

// getRun reports the most recent run, or 404 before the first one.
func (h *handler) getRun(w http.ResponseWriter, r *http.Request) {
	var run *runner.Run
	if h.runner != nil {
		run = h.runner.Current()
	}
	if run == nil {
		writeError(w, http.StatusNotFound, "no run yet")
		return
	}
	writeJSON(w, http.StatusOK, run.Info())
}

package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/riskibarqy/prediction-league/internal/usecase"
)

func (h *Handler) GetLivePoller(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetLivePoller")
	defer span.End()

	if h.livePoller == nil {
		writeError(ctx, w, fmt.Errorf("%w: live poller is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	writeSuccess(ctx, w, http.StatusOK, pollerStatusToDTO(h.livePoller.Status(), h.liveSubscribers()))
}

func (h *Handler) UpdateLivePoller(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdateLivePoller")
	defer span.End()

	if h.livePoller == nil {
		writeError(ctx, w, fmt.Errorf("%w: live poller is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	var req livePollerIntervalRequest
	if err := h.decodeAndValidate(ctx, w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	interval, err := time.ParseDuration(strings.TrimSpace(req.Interval))
	if err != nil {
		writeError(ctx, w, fmt.Errorf("%w: interval must be a duration such as 30s", usecase.ErrInvalidInput))
		return
	}
	if err := h.livePoller.SetInterval(interval); err != nil {
		writeError(ctx, w, err)
		return
	}

	h.logger.InfoContext(ctx, "live poll interval updated", "interval", interval.String())
	writeSuccess(ctx, w, http.StatusOK, pollerStatusToDTO(h.livePoller.Status(), h.liveSubscribers()))
}

func (h *Handler) RefreshLivePoller(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RefreshLivePoller")
	defer span.End()

	if h.livePoller == nil {
		writeError(ctx, w, fmt.Errorf("%w: live poller is not configured", usecase.ErrDependencyUnavailable))
		return
	}
	if err := h.livePoller.Trigger(); err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccessMessage(ctx, w, http.StatusAccepted, "Live refresh requested", true)
}

func (h *Handler) SyncFixtures(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SyncFixtures")
	defer span.End()

	var req syncFixturesRequest
	if err := h.decodeAndValidate(ctx, w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	from, err := parseTimeParam("from", req.From)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	to, err := parseTimeParam("to", req.To)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.fixtureService.SyncLeagues(ctx, usecase.SyncFixturesInput{
		Leagues:    req.Leagues,
		Season:     req.Season,
		From:       from,
		To:         to,
		MaxWorkers: req.MaxWorkers,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "sync fixtures failed", "leagues", req.Leagues, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, syncResultToDTO(result))
}

func (h *Handler) liveSubscribers() int {
	if h.liveBroker == nil {
		return 0
	}
	return h.liveBroker.Subscribers()
}

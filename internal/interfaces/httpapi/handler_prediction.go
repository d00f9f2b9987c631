package httpapi

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/riskibarqy/prediction-league/internal/domain/prediction"
	"github.com/riskibarqy/prediction-league/internal/usecase"
)

// withStore acquires the caller's prediction store for the duration of fn.
func (h *Handler) withStore(w http.ResponseWriter, r *http.Request, fn func(store *usecase.PredictionStore)) {
	ctx := r.Context()
	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	store, release, err := h.predictionStores.Acquire(ctx, principal.UserID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	defer release()

	fn(store)
}

func (h *Handler) SubmitPrediction(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SubmitPrediction")
	defer span.End()
	r = r.WithContext(ctx)

	var req submitPredictionRequest
	if err := h.decodeAndValidate(ctx, w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	h.withStore(w, r, func(store *usecase.PredictionStore) {
		created, err := store.Submit(ctx, req.FixtureID, *req.Score1, *req.Score2)
		if err != nil {
			h.logger.WarnContext(ctx, "submit prediction failed", "user_id", store.UserID(), "fixture_id", req.FixtureID, "error", err)
			writeError(ctx, w, err)
			return
		}
		writeSuccessMessage(ctx, w, http.StatusCreated, "Prediction submitted successfully", predictionToDTO(created))
	})
}

func (h *Handler) ResetPrediction(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ResetPrediction")
	defer span.End()
	r = r.WithContext(ctx)

	predictionID, err := pathInt64(r, "predictionID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	h.withStore(w, r, func(store *usecase.PredictionStore) {
		if err := store.Reset(ctx, predictionID); err != nil {
			h.logger.WarnContext(ctx, "reset prediction failed", "user_id", store.UserID(), "prediction_id", predictionID, "error", err)
			writeError(ctx, w, err)
			return
		}
		writeSuccessMessage(ctx, w, http.StatusOK, "Prediction reset successfully", true)
	})
}

func (h *Handler) ListMyPredictions(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMyPredictions")
	defer span.End()
	r = r.WithContext(ctx)

	filter, err := parsePredictionFilter(r.URL.Query())
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	h.withStore(w, r, func(store *usecase.PredictionStore) {
		items := make([]predictionDTO, 0)
		for item := range store.List(ctx, filter) {
			items = append(items, predictionToDTO(item))
		}
		writeSuccess(ctx, w, http.StatusOK, items)
	})
}

func (h *Handler) RefreshPredictions(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RefreshPredictions")
	defer span.End()
	r = r.WithContext(ctx)

	filter, err := parsePredictionFilter(r.URL.Query())
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	h.withStore(w, r, func(store *usecase.PredictionStore) {
		if err := store.Refresh(ctx, filter); err != nil {
			h.logger.WarnContext(ctx, "refresh predictions failed", "user_id", store.UserID(), "error", err)
			writeError(ctx, w, err)
			return
		}
		items := make([]predictionDTO, 0)
		for item := range store.List(ctx, filter) {
			items = append(items, predictionToDTO(item))
		}
		writeSuccess(ctx, w, http.StatusOK, items)
	})
}

func (h *Handler) GetPredictionAvailability(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetPredictionAvailability")
	defer span.End()
	r = r.WithContext(ctx)

	fixtureID, err := pathInt64(r, "fixtureID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	h.withStore(w, r, func(store *usecase.PredictionStore) {
		availability, err := store.Availability(ctx, fixtureID)
		if err != nil {
			writeError(ctx, w, err)
			return
		}
		writeSuccess(ctx, w, http.StatusOK, availabilityToDTO(availability))
	})
}

func parsePredictionFilter(values url.Values) (prediction.Filter, error) {
	filter := prediction.Filter{Season: strings.TrimSpace(values.Get("season"))}

	if raw := strings.TrimSpace(values.Get("week")); raw != "" {
		week, err := strconv.Atoi(raw)
		if err != nil || week <= 0 {
			return prediction.Filter{}, fmt.Errorf("%w: week must be a positive integer", usecase.ErrInvalidInput)
		}
		filter.Week = week
	}

	if raw := strings.ToUpper(strings.TrimSpace(values.Get("status"))); raw != "" {
		switch status := prediction.Status(raw); status {
		case prediction.StatusSubmitted, prediction.StatusLocked, prediction.StatusProcessed:
			filter.Status = status
		default:
			return prediction.Filter{}, fmt.Errorf("%w: unknown prediction status %q", usecase.ErrInvalidInput, raw)
		}
	}

	return filter, nil
}

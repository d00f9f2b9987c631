package httpapi

import (
	"context"
	"errors"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/prediction-league/internal/domain/user"
	"github.com/riskibarqy/prediction-league/internal/usecase"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// responseEnvelope mirrors the backend envelope so the UI handles a single
// convention for both.
type responseEnvelope struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data"`
	Reason  string `json:"reason,omitempty"`
	Class   string `json:"class,omitempty"`
}

type mappedError struct {
	HTTPStatus int
	Reason     string
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	ctx, span := startSpan(ctx, "httpapi.writeJSON")
	defer span.End()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(payload)
}

func writeSuccess(ctx context.Context, w http.ResponseWriter, status int, data any) {
	writeSuccessMessage(ctx, w, status, "", data)
}

func writeSuccessMessage(ctx context.Context, w http.ResponseWriter, status int, message string, data any) {
	ctx, span := startSpan(ctx, "httpapi.writeSuccess")
	defer span.End()

	writeJSON(ctx, w, status, responseEnvelope{
		Status:  statusSuccess,
		Message: message,
		Data:    data,
	})
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	ctx, span := startSpan(ctx, "httpapi.writeError")
	defer span.End()

	mapped := mapError(ctx, err)
	writeJSON(ctx, w, mapped.HTTPStatus, responseEnvelope{
		Status:  statusError,
		Message: errorMessage(err),
		Reason:  mapped.Reason,
		Class:   string(usecase.ClassifyError(err)),
	})
}

func writeInternalError(ctx context.Context, w http.ResponseWriter) {
	ctx, span := startSpan(ctx, "httpapi.writeInternalError")
	defer span.End()

	writeJSON(ctx, w, http.StatusInternalServerError, responseEnvelope{
		Status:  statusError,
		Message: "internal server error",
		Reason:  "internalError",
	})
}

// errorMessage prefers the backend's own wording for application errors.
func errorMessage(err error) string {
	if msg, ok := usecase.UserMessage(err); ok && msg != "" {
		return msg
	}
	return err.Error()
}

func mapError(ctx context.Context, err error) mappedError {
	ctx, span := startSpan(ctx, "httpapi.mapError")
	defer span.End()

	switch {
	case errors.Is(err, usecase.ErrSessionExpired):
		return mappedError{HTTPStatus: http.StatusUnauthorized, Reason: "sessionExpired"}
	case errors.Is(err, usecase.ErrUnauthorized):
		// An authenticated caller hitting a permission check is forbidden,
		// not unauthenticated.
		if _, ok := user.PrincipalFromContext(ctx); ok {
			return mappedError{HTTPStatus: http.StatusForbidden, Reason: "forbidden"}
		}
		return mappedError{HTTPStatus: http.StatusUnauthorized, Reason: "unauthorized"}
	case errors.Is(err, usecase.ErrInvalidInput):
		return mappedError{HTTPStatus: http.StatusBadRequest, Reason: "invalidInput"}
	case errors.Is(err, usecase.ErrPredictionLocked):
		return mappedError{HTTPStatus: http.StatusConflict, Reason: "predictionLocked"}
	case errors.Is(err, usecase.ErrAlreadyPredicted):
		return mappedError{HTTPStatus: http.StatusConflict, Reason: "alreadyPredicted"}
	case errors.Is(err, usecase.ErrPredictionNotResettable):
		return mappedError{HTTPStatus: http.StatusConflict, Reason: "notResettable"}
	case errors.Is(err, usecase.ErrPollerRunning), errors.Is(err, usecase.ErrPollerStopped):
		return mappedError{HTTPStatus: http.StatusConflict, Reason: "pollerState"}
	case errors.Is(err, usecase.ErrNotFound):
		return mappedError{HTTPStatus: http.StatusNotFound, Reason: "notFound"}
	case errors.Is(err, usecase.ErrApplication):
		return mappedError{HTTPStatus: http.StatusUnprocessableEntity, Reason: "applicationError"}
	case errors.Is(err, usecase.ErrTransport):
		return mappedError{HTTPStatus: http.StatusBadGateway, Reason: "backendUnreachable"}
	case errors.Is(err, usecase.ErrDependencyUnavailable), errors.Is(err, usecase.ErrStoreClosed):
		return mappedError{HTTPStatus: http.StatusServiceUnavailable, Reason: "dependencyUnavailable"}
	default:
		return mappedError{HTTPStatus: http.StatusInternalServerError, Reason: "internalError"}
	}
}

package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerAuthorizedRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier, cfg RouterConfig) {
	read := func(fn http.HandlerFunc) http.Handler {
		return RequireAuth(verifier, fn)
	}
	write := func(fn http.HandlerFunc) http.Handler {
		return RequireAuth(verifier, RateLimit(cfg.MutationRateLimit, cfg.MutationRateWindow, fn))
	}

	registerGroupRoutes(mux, handler, read, write)
	registerPredictionRoutes(mux, handler, read, write)
	registerMatchRoutes(mux, handler, read)
}

func registerGroupRoutes(mux *http.ServeMux, handler *Handler, read, write func(http.HandlerFunc) http.Handler) {
	mux.Handle("POST /v1/groups", write(handler.CreateGroup))
	mux.Handle("GET /v1/groups", read(handler.ListMyGroups))
	mux.Handle("POST /v1/groups/join", write(handler.JoinGroup))
	mux.Handle("GET /v1/groups/{groupID}/overview", read(handler.GetGroupOverview))
	mux.Handle("GET /v1/groups/{groupID}/members", read(handler.ListGroupMembers))
	mux.Handle("POST /v1/groups/{groupID}/members", write(handler.ManageGroupMember))
	mux.Handle("POST /v1/groups/{groupID}/regenerate-code", write(handler.RegenerateInviteCode))
	mux.Handle("GET /v1/teams/{league}", read(handler.ListTeamsByLeague))
}

func registerPredictionRoutes(mux *http.ServeMux, handler *Handler, read, write func(http.HandlerFunc) http.Handler) {
	mux.Handle("POST /v1/predictions", write(handler.SubmitPrediction))
	mux.Handle("POST /v1/predictions/reset/{predictionID}", write(handler.ResetPrediction))
	mux.Handle("GET /v1/predictions", read(handler.ListMyPredictions))
	mux.Handle("POST /v1/predictions/refresh", read(handler.RefreshPredictions))
	mux.Handle("GET /v1/predictions/availability/{fixtureID}", read(handler.GetPredictionAvailability))
}

func registerMatchRoutes(mux *http.ServeMux, handler *Handler, read func(http.HandlerFunc) http.Handler) {
	mux.Handle("GET /v1/matches/live", read(handler.ListLiveMatches))
	mux.Handle("GET /v1/matches/fixtures", read(handler.ListFixtures))
	mux.Handle("GET /v1/matches/live/stream", read(handler.StreamLiveMatches))
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, cfg RouterConfig) {
	internal := func(fn http.HandlerFunc) http.Handler {
		return RequireInternalJobToken(cfg.InternalJobToken, WithServicePrincipal(cfg.ServiceToken, fn))
	}

	mux.Handle("GET /v1/internal/live-poller", internal(handler.GetLivePoller))
	mux.Handle("PUT /v1/internal/live-poller", internal(handler.UpdateLivePoller))
	mux.Handle("POST /v1/internal/live-poller/refresh", internal(handler.RefreshLivePoller))
	mux.Handle("POST /v1/internal/fixtures/sync", internal(handler.SyncFixtures))
}

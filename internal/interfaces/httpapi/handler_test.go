package httpapi

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/riskibarqy/prediction-league/internal/domain/fixture"
	"github.com/riskibarqy/prediction-league/internal/domain/prediction"
	"github.com/riskibarqy/prediction-league/internal/infrastructure/backend/memory"
	"github.com/riskibarqy/prediction-league/internal/infrastructure/events"
	cachememory "github.com/riskibarqy/prediction-league/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/prediction-league/internal/platform/logging"
	"github.com/riskibarqy/prediction-league/internal/usecase"
)

const (
	aliceToken = "dev-token-alice"
	bobToken   = "dev-token-bob"
	jobToken   = "job-secret"
)

type testEnvelope[T any] struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Reason  string `json:"reason"`
	Data    T      `json:"data"`
}

type testServer struct {
	router http.Handler
	broker *events.Broker
}

func newTestServer(t *testing.T, cfg RouterConfig) *testServer {
	t.Helper()

	now := time.Now()
	logger := logging.NewNop()
	backend := memory.NewBackend(memory.DefaultSeed(now), nil)
	cache := cachememory.NewFixtureRepository(memory.SeedFixtures(now))
	broker := events.NewBroker(4, logger)
	t.Cleanup(broker.Close)

	stores := usecase.NewPredictionStores(backend, cache, time.Minute, logger)
	t.Cleanup(stores.Close)

	handler := NewHandler(
		usecase.NewGroupService(backend, backend, time.Minute),
		usecase.NewFixtureService(backend, cache, logger),
		stores,
		usecase.NewLivePoller(backend, cache, broker, usecase.LivePollerConfig{Interval: time.Minute}, logger),
		broker,
		logger,
	)
	if cfg.InternalJobToken == "" {
		cfg.InternalJobToken = jobToken
	}

	return &testServer{
		router: NewRouter(handler, backend, logger, cfg),
		broker: broker,
	}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := sonic.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeAs[T any](t *testing.T, rec *httptest.ResponseRecorder) testEnvelope[T] {
	t.Helper()

	var out testEnvelope[T]
	if err := sonic.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body: %v (%s)", err, rec.Body.String())
	}
	return out
}

func TestHandler_RequiresBearerToken(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, RouterConfig{})

	rec := server.do(t, http.MethodGet, "/v1/groups", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
	if env := decodeAs[any](t, rec); env.Status != statusError || env.Reason != "unauthorized" {
		t.Fatalf("unexpected envelope: %+v", env)
	}

	rec = server.do(t, http.MethodGet, "/v1/groups", "not-a-token", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with unknown token, got %d", rec.Code)
	}
}

func TestHandler_SubmitPredictionLifecycle(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, RouterConfig{})

	rec := server.do(t, http.MethodPost, "/v1/groups", aliceToken, map[string]any{"name": "Weekend", "league": "PL"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create group: %d %s", rec.Code, rec.Body.String())
	}

	rec = server.do(t, http.MethodPost, "/v1/predictions", aliceToken, map[string]any{"fixture_id": 1003, "score1": 2, "score2": 1})
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit: %d %s", rec.Code, rec.Body.String())
	}
	created := decodeAs[predictionDTO](t, rec)
	if created.Message != "Prediction submitted successfully" || created.Data.Score1 != 2 || created.Data.Status != string(prediction.StatusSubmitted) {
		t.Fatalf("unexpected submit response: %+v", created)
	}

	rec = server.do(t, http.MethodPost, "/v1/predictions", aliceToken, map[string]any{"fixture_id": 1003, "score1": 0, "score2": 0})
	if rec.Code != http.StatusConflict || decodeAs[any](t, rec).Reason != "alreadyPredicted" {
		t.Fatalf("expected alreadyPredicted conflict, got %d %s", rec.Code, rec.Body.String())
	}

	rec = server.do(t, http.MethodPost, "/v1/predictions", aliceToken, map[string]any{"fixture_id": 1002, "score1": 1, "score2": 1})
	if rec.Code != http.StatusConflict || decodeAs[any](t, rec).Reason != "predictionLocked" {
		t.Fatalf("expected predictionLocked conflict, got %d %s", rec.Code, rec.Body.String())
	}

	rec = server.do(t, http.MethodGet, "/v1/predictions/availability/1003", aliceToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("availability: %d %s", rec.Code, rec.Body.String())
	}
	availability := decodeAs[availabilityDTO](t, rec).Data
	if availability.Window != string(fixture.WindowOpen) || availability.CanSubmit || !availability.CanReset || availability.Prediction == nil {
		t.Fatalf("unexpected availability: %+v", availability)
	}

	rec = server.do(t, http.MethodPost, "/v1/predictions/reset/"+itoa(created.Data.ID), aliceToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("reset: %d %s", rec.Code, rec.Body.String())
	}

	rec = server.do(t, http.MethodGet, "/v1/predictions?season="+memory.SeedSeason, aliceToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: %d %s", rec.Code, rec.Body.String())
	}
	if items := decodeAs[[]predictionDTO](t, rec).Data; len(items) != 0 {
		t.Fatalf("expected no predictions after reset, got %+v", items)
	}
}

func TestHandler_SubmitPredictionValidatesScores(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, RouterConfig{})

	cases := []map[string]any{
		{"fixture_id": 1003, "score1": 1},
		{"fixture_id": 1003, "score1": -1, "score2": 0},
		{"fixture_id": 1003, "score1": 100, "score2": 0},
		{"fixture_id": 0, "score1": 1, "score2": 0},
		{"fixture_id": 1003, "score1": 1, "score2": 0, "extra": true},
	}
	for _, body := range cases {
		rec := server.do(t, http.MethodPost, "/v1/predictions", aliceToken, body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %v: expected 400, got %d %s", body, rec.Code, rec.Body.String())
		}
	}
}

func TestHandler_SemiPrivateJoinAndRegenerate(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, RouterConfig{})

	rec := server.do(t, http.MethodPost, "/v1/groups", aliceToken, map[string]any{
		"name": "Sunday League", "league": "PL", "privacy_type": "SEMI_PRIVATE",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create group: %d %s", rec.Code, rec.Body.String())
	}
	created := decodeAs[groupDTO](t, rec).Data
	if created.InviteCodeDisplay == "" || !strings.Contains(created.InviteCodeDisplay, "-") {
		t.Fatalf("expected formatted invite code, got %+v", created)
	}

	rec = server.do(t, http.MethodPost, "/v1/groups/join", bobToken, map[string]any{"invite_code": strings.ToLower(created.InviteCodeDisplay)})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("join: %d %s", rec.Code, rec.Body.String())
	}
	if joined := decodeAs[joinResultDTO](t, rec); joined.Message != "Join request sent to group admin" || joined.Data.Status != "PENDING" {
		t.Fatalf("unexpected join response: %+v", joined)
	}

	groupPath := "/v1/groups/" + itoa(created.ID)
	rec = server.do(t, http.MethodPost, groupPath+"/members", bobToken, map[string]any{"user_id": "2", "action": "APPROVE"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected non-admin approval to be forbidden, got %d %s", rec.Code, rec.Body.String())
	}
	rec = server.do(t, http.MethodPost, groupPath+"/members", aliceToken, map[string]any{"user_id": "2", "action": "APPROVE"})
	if rec.Code != http.StatusOK {
		t.Fatalf("approve: %d %s", rec.Code, rec.Body.String())
	}

	rec = server.do(t, http.MethodGet, groupPath+"/overview", bobToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("overview: %d %s", rec.Code, rec.Body.String())
	}
	if overview := decodeAs[groupOverviewDTO](t, rec).Data; overview.Group.ID != created.ID || len(overview.Members) != 2 {
		t.Fatalf("unexpected overview: %+v", overview)
	}

	rec = server.do(t, http.MethodPost, groupPath+"/regenerate-code", aliceToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("regenerate: %d %s", rec.Code, rec.Body.String())
	}
	if fresh := decodeAs[inviteCodeDTO](t, rec).Data; fresh.InviteCode == created.InviteCode {
		t.Fatalf("expected a new invite code")
	}

	rec = server.do(t, http.MethodPost, "/v1/groups/join", "dev-token-carol", map[string]any{"invite_code": created.InviteCode})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected old code to be rejected, got %d %s", rec.Code, rec.Body.String())
	}
	if env := decodeAs[any](t, rec); env.Message != "Invalid invite code" {
		t.Fatalf("expected backend message, got %+v", env)
	}
}

func TestHandler_RateLimitsMutations(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, RouterConfig{MutationRateLimit: 1, MutationRateWindow: time.Minute})

	body := map[string]any{"name": "Weekend", "league": "PL"}
	if rec := server.do(t, http.MethodPost, "/v1/groups", aliceToken, body); rec.Code != http.StatusCreated {
		t.Fatalf("first create: %d %s", rec.Code, rec.Body.String())
	}
	rec := server.do(t, http.MethodPost, "/v1/groups", aliceToken, body)
	if rec.Code != http.StatusTooManyRequests || decodeAs[any](t, rec).Reason != "rateLimited" {
		t.Fatalf("expected 429, got %d %s", rec.Code, rec.Body.String())
	}

	if rec := server.do(t, http.MethodPost, "/v1/groups", bobToken, body); rec.Code != http.StatusCreated {
		t.Fatalf("other users keep their own budget, got %d", rec.Code)
	}
	if rec := server.do(t, http.MethodGet, "/v1/groups", aliceToken, nil); rec.Code != http.StatusOK {
		t.Fatalf("reads are not rate limited, got %d", rec.Code)
	}
}

func TestHandler_RequestIDHeader(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, RouterConfig{})

	rec := server.do(t, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK || rec.Header().Get(requestIDHeader) == "" {
		t.Fatalf("expected generated request id, got %d %q", rec.Code, rec.Header().Get(requestIDHeader))
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "req-123")
	rec = httptest.NewRecorder()
	server.router.ServeHTTP(rec, req)
	if got := rec.Header().Get(requestIDHeader); got != "req-123" {
		t.Fatalf("expected caller request id echoed, got %q", got)
	}
}

func TestHandler_InternalRoutesRequireJobToken(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, RouterConfig{})

	if rec := server.do(t, http.MethodGet, "/v1/internal/live-poller", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without job token, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/internal/live-poller", nil)
	req.Header.Set("X-Internal-Job-Token", jobToken)
	rec := httptest.NewRecorder()
	server.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("poller status: %d %s", rec.Code, rec.Body.String())
	}
	if status := decodeAs[livePollerStatusDTO](t, rec).Data; status.Running || status.Interval != time.Minute.String() {
		t.Fatalf("unexpected poller status: %+v", status)
	}
}

func TestParsePredictionFilter(t *testing.T) {
	t.Parallel()

	filter, err := parsePredictionFilter(url.Values{"season": {"2025"}, "week": {"29"}, "status": {"locked"}})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if filter.Season != "2025" || filter.Week != 29 || filter.Status != prediction.StatusLocked {
		t.Fatalf("unexpected filter: %+v", filter)
	}

	for _, values := range []url.Values{
		{"week": {"0"}},
		{"week": {"abc"}},
		{"status": {"PENDING"}},
	} {
		if _, err := parsePredictionFilter(values); err == nil {
			t.Fatalf("expected %v to be rejected", values)
		}
	}
}

func TestHandler_StreamLiveMatches(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, RouterConfig{})
	httpServer := httptest.NewServer(server.router)
	t.Cleanup(httpServer.Close)

	score := 1
	update := fixture.LiveUpdate{
		Fixtures: []fixture.Fixture{{
			ID:        1002,
			League:    memory.LeaguePremierLeague,
			Season:    memory.SeedSeason,
			KickoffAt: time.Now().Add(-30 * time.Minute),
			Status:    fixture.StatusFirstHalf,
			HomeScore: &score,
			AwayScore: &score,
		}},
		FetchedAt: time.Now(),
	}
	if err := server.broker.PublishLive(context.Background(), update); err != nil {
		t.Fatalf("publish: %v", err)
	}

	wsURL := "ws" + strings.TrimPrefix(httpServer.URL, "http") + "/v1/matches/live/stream?access_token=" + aliceToken
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Fatalf("expected upgrade, got %d", resp.StatusCode)
	}

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var msg events.LiveMessage
	if err := sonic.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("decode message: %v", err)
	}
	if msg.Type != events.TypeLiveUpdate || len(msg.Fixtures) != 1 || msg.Fixtures[0].ID != 1002 {
		t.Fatalf("unexpected live message: %+v", msg)
	}
}

func TestHandler_StreamRejectsQueryTokenWithoutUpgrade(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, RouterConfig{})

	rec := server.do(t, http.MethodGet, "/v1/matches/live/stream?access_token="+aliceToken, "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected query token to be ignored on plain requests, got %d", rec.Code)
	}
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}

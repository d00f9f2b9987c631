package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/riskibarqy/prediction-league/internal/domain/fixture"
	"github.com/riskibarqy/prediction-league/internal/infrastructure/events"
	"github.com/riskibarqy/prediction-league/internal/usecase"
)

const (
	streamWriteDeadline = 5 * time.Second
	streamPongWait      = 60 * time.Second
	streamPingInterval  = 25 * time.Second
)

// Stream clients authenticate with a bearer token, so origin is not checked.
var streamUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

func (h *Handler) ListLiveMatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListLiveMatches")
	defer span.End()

	items, err := h.fixtureService.ListLive(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "list live matches failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, events.NewFixturePayloads(items, h.now()))
}

func (h *Handler) ListFixtures(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListFixtures")
	defer span.End()

	values := r.URL.Query()
	from, err := parseTimeParam("from", values.Get("from"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	to, err := parseTimeParam("to", values.Get("to"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	items, err := h.fixtureService.ListFixtures(ctx, fixture.Query{
		League: values.Get("league"),
		Season: values.Get("season"),
		Status: fixture.Status(values.Get("status")),
		From:   from,
		To:     to,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "list fixtures failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, events.NewFixturePayloads(items, h.now()))
}

// StreamLiveMatches upgrades to a websocket and forwards every live update.
// The latest update is sent right after connecting.
func (h *Handler) StreamLiveMatches(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.liveBroker == nil {
		writeError(ctx, w, fmt.Errorf("%w: live stream is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	conn, err := streamUpgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WarnContext(ctx, "live stream upgrade failed", "error", err)
		return
	}

	updates, cancel := h.liveBroker.Subscribe()
	done := make(chan struct{})
	go h.readStream(conn, done)
	h.writeStream(conn, updates, done)

	cancel()
	_ = conn.Close()
}

// writeStream owns the connection writes. It returns when the client goes
// away, a write fails or the broker closes the subscription.
func (h *Handler) writeStream(conn *websocket.Conn, updates <-chan []byte, done <-chan struct{}) {
	ticker := time.NewTicker(streamPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case msg, ok := <-updates:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
					time.Now().Add(streamWriteDeadline))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteDeadline))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.logger.Debug("live stream write failed", "error", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteDeadline))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readStream drains client frames so pongs and close frames are processed.
func (h *Handler) readStream(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

package events

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/riskibarqy/prediction-league/internal/domain/fixture"
	"github.com/riskibarqy/prediction-league/internal/domain/team"
	fixturemock "github.com/riskibarqy/prediction-league/internal/mocks/domain/fixture"
	"github.com/stretchr/testify/mock"
)

func liveUpdate(fetchedAt time.Time) fixture.LiveUpdate {
	home, away := 1, 0
	return fixture.LiveUpdate{
		FetchedAt: fetchedAt,
		Fixtures: []fixture.Fixture{{
			ID:        1002,
			League:    "Premier League",
			Home:      team.Team{ID: 50, Name: "Manchester City"},
			Away:      team.Team{ID: 49, Name: "Chelsea"},
			KickoffAt: fetchedAt.Add(-40 * time.Minute),
			Status:    fixture.StatusFirstHalf,
			HomeScore: &home,
			AwayScore: &away,
		}},
	}
}

func TestEncodeLiveUpdate(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 14, 15, 40, 0, 0, time.UTC)
	data, err := EncodeLiveUpdate(liveUpdate(now))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	var msg LiveMessage
	if err := sonic.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Type != TypeLiveUpdate || len(msg.Fixtures) != 1 {
		t.Fatalf("unexpected message: %+v", msg)
	}
	got := msg.Fixtures[0]
	if got.ID != 1002 || got.Status != "FIRST_HALF" || got.Window != "LOCKED" || *got.HomeScore != 1 {
		t.Fatalf("unexpected fixture payload: %+v", got)
	}
	if !strings.Contains(string(data), `"fixture_id":1002`) {
		t.Fatalf("unexpected wire format: %s", data)
	}
}

func TestBroker_LatestMessageOnSubscribe(t *testing.T) {
	t.Parallel()

	broker := NewBroker(4, nil)
	ctx := context.Background()
	if err := broker.PublishLive(ctx, liveUpdate(time.Now())); err != nil {
		t.Fatalf("publish: %v", err)
	}

	ch, cancel := broker.Subscribe()
	defer cancel()

	select {
	case data := <-ch:
		if !strings.Contains(string(data), TypeLiveUpdate) {
			t.Fatalf("unexpected replay: %s", data)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected latest message on subscribe")
	}
}

func TestBroker_DropsForSlowSubscriber(t *testing.T) {
	t.Parallel()

	broker := NewBroker(1, nil)
	ch, cancel := broker.Subscribe()
	ctx := context.Background()

	broker.Broadcast(ctx, []byte("first"))
	broker.Broadcast(ctx, []byte("second"))

	if got := string(<-ch); got != "first" {
		t.Fatalf("expected first message, got %s", got)
	}
	if broker.Dropped() != 1 {
		t.Fatalf("expected one dropped message, got %d", broker.Dropped())
	}

	cancel()
	cancel()
	if _, ok := <-ch; ok {
		t.Fatalf("expected channel closed after cancel")
	}
	if broker.Subscribers() != 0 {
		t.Fatalf("expected no subscribers, got %d", broker.Subscribers())
	}
}

func TestBroker_CloseEndsSubscriptions(t *testing.T) {
	t.Parallel()

	broker := NewBroker(0, nil)
	ch, cancel := broker.Subscribe()
	broker.Close()

	if _, ok := <-ch; ok {
		t.Fatalf("expected channel closed")
	}
	cancel()
}

func TestFanout_PublishesToEveryTarget(t *testing.T) {
	t.Parallel()

	update := liveUpdate(time.Now())
	failing := fixturemock.NewLivePublisher(t)
	failing.On("PublishLive", mock.Anything, update).Return(errors.New("nats down")).Once()
	healthy := fixturemock.NewLivePublisher(t)
	healthy.On("PublishLive", mock.Anything, update).Return(nil).Once()

	err := NewFanout(failing, nil, healthy).PublishLive(context.Background(), update)
	if err == nil || !strings.Contains(err.Error(), "nats down") {
		t.Fatalf("expected combined error, got %v", err)
	}
}

func TestNewNATSPublisherDefaultsSubject(t *testing.T) {
	t.Parallel()

	if got := NewNATSPublisher(nil, " ").Subject(); got != DefaultLiveSubject {
		t.Fatalf("unexpected subject: %s", got)
	}
	if got := NewNATSPublisher(nil, "staging.live").Subject(); got != "staging.live" {
		t.Fatalf("unexpected subject: %s", got)
	}
}

package events

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/riskibarqy/prediction-league/internal/domain/fixture"
	"github.com/riskibarqy/prediction-league/internal/platform/logging"
)

const DefaultLiveSubject = "prediction-league.fixtures.live"

type NATSConfig struct {
	URL     string
	Token   string
	Name    string
	Subject string
}

// ConnectNATS dials the server. Reconnects are handled by the client.
func ConnectNATS(cfg NATSConfig, logger *logging.Logger) (*nats.Conn, error) {
	if logger == nil {
		logger = logging.Default()
	}
	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		name = "prediction-league"
	}

	opts := []nats.Option{
		nats.Name(name),
		nats.NoEcho(),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(conn *nats.Conn) {
			logger.Info("nats reconnected", "url", conn.ConnectedUrl())
		}),
	}
	if cfg.Token != "" {
		opts = append(opts, nats.Token(cfg.Token))
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", cfg.URL, err)
	}
	return conn, nil
}

// NATSPublisher publishes live updates on a subject so other gateway
// instances and workers see the same live set.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
}

func NewNATSPublisher(conn *nats.Conn, subject string) *NATSPublisher {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		subject = DefaultLiveSubject
	}
	return &NATSPublisher{conn: conn, subject: subject}
}

func (p *NATSPublisher) Subject() string {
	return p.subject
}

func (p *NATSPublisher) PublishLive(_ context.Context, update fixture.LiveUpdate) error {
	data, err := EncodeLiveUpdate(update)
	if err != nil {
		return fmt.Errorf("encode live update: %w", err)
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", p.subject, err)
	}
	return nil
}

// Relay forwards messages published on subject by other instances into the
// local broker. Messages from this connection are not echoed back.
func Relay(conn *nats.Conn, subject string, broker *Broker) (*nats.Subscription, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		subject = DefaultLiveSubject
	}
	sub, err := conn.Subscribe(subject, func(msg *nats.Msg) {
		broker.Broadcast(context.Background(), msg.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", subject, err)
	}
	return sub, nil
}

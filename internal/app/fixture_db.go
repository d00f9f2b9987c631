package app

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jmoiron/sqlx"
	cachepostgres "github.com/riskibarqy/prediction-league/internal/infrastructure/repository/postgres"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
)

const (
	maxTracedQueryLength = 512
	fixtureDBPingTimeout = 5 * time.Second
)

func openFixtureDB(ctx context.Context, settings cachepostgres.Settings) (*sqlx.DB, error) {
	db, err := otelsqlx.Open("postgres", settings.URL,
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(settings.Name),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("open fixture database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, fixtureDBPingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping fixture database: %w", err)
	}
	return db, nil
}

// formatDBQueryForTrace collapses whitespace and caps the statement length
// recorded on db spans.
func formatDBQueryForTrace(query string) string {
	normalized := strings.Join(strings.Fields(query), " ")
	if len(normalized) <= maxTracedQueryLength {
		return normalized
	}

	cut := maxTracedQueryLength
	for cut > 0 && !utf8.RuneStart(normalized[cut]) {
		cut--
	}
	return normalized[:cut] + "..."
}

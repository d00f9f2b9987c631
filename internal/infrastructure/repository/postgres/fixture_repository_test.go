package postgres

import (
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/riskibarqy/prediction-league/internal/domain/fixture"
	"github.com/riskibarqy/prediction-league/internal/domain/team"
)

func TestBuildListFixturesQuery(t *testing.T) {
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(7 * 24 * time.Hour)

	query, args, err := buildListFixturesQuery(fixture.Query{
		League: "Premier League",
		Status: fixture.StatusNotStarted,
		From:   from,
		To:     to,
	})
	if err != nil {
		t.Fatalf("build query: %v", err)
	}

	wantWhere := "WHERE league = $1 AND status = $2 AND kickoff_at >= $3 AND kickoff_at <= $4 ORDER BY kickoff_at, id"
	if !strings.HasPrefix(query, "SELECT id, league, season,") || !strings.HasSuffix(query, wantWhere) {
		t.Fatalf("unexpected query: %s", query)
	}
	if len(args) != 4 || args[0] != "Premier League" || args[1] != "NOT_STARTED" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestBuildUpsertFixturesQuery(t *testing.T) {
	items := dedupeFixtures([]fixture.Fixture{
		{ID: 1, League: "La Liga", Status: fixture.StatusNotStarted},
		{ID: 0, League: "ignored"},
		{ID: 1, League: "La Liga", Status: fixture.StatusFirstHalf},
		{ID: 2, League: "La Liga", Status: fixture.StatusNotStarted},
	})
	if len(items) != 2 || items[0].Status != fixture.StatusFirstHalf {
		t.Fatalf("unexpected dedupe result: %+v", items)
	}

	query, args, err := buildUpsertFixturesQuery(items, false)
	if err != nil {
		t.Fatalf("build upsert: %v", err)
	}
	if len(args) != 2*len(fixtureColumns) {
		t.Fatalf("unexpected arg count: %d", len(args))
	}
	if !strings.Contains(query, "ON CONFLICT (id) DO UPDATE SET") {
		t.Fatalf("missing conflict clause: %s", query)
	}
	if strings.Contains(query, "is_live = EXCLUDED.is_live") {
		t.Fatalf("plain upsert must not touch the live flag: %s", query)
	}

	liveQuery, _, err := buildUpsertFixturesQuery(items, true)
	if err != nil {
		t.Fatalf("build live upsert: %v", err)
	}
	if !strings.Contains(liveQuery, "is_live = EXCLUDED.is_live") {
		t.Fatalf("live upsert must set the live flag: %s", liveQuery)
	}
}

func TestFixtureRowRoundTrip(t *testing.T) {
	home := 2
	item := fixture.Fixture{
		ID:        1002,
		League:    "Premier League",
		Season:    "2025",
		Round:     "Regular Season - 29",
		Home:      team.Team{ID: 50, League: "Premier League", Name: "Manchester City"},
		Away:      team.Team{ID: 49, League: "Premier League", Name: "Chelsea"},
		KickoffAt: time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC),
		Status:    fixture.StatusFirstHalf,
		HomeScore: &home,
	}

	row := fixtureToRow(item, true)
	if !row.IsLive || row.HomeScore != (sql.NullInt64{Int64: 2, Valid: true}) || row.AwayScore.Valid {
		t.Fatalf("unexpected row: %+v", row)
	}
	if fixtureColumns[0] != "id" || fixtureColumns[len(fixtureColumns)-1] != "updated_at" {
		t.Fatalf("unexpected fixture columns: %v", fixtureColumns)
	}

	back := row.toDomain()
	if back.ID != item.ID || back.Home.Name != "Manchester City" || *back.HomeScore != 2 || back.AwayScore != nil {
		t.Fatalf("unexpected domain fixture: %+v", back)
	}
}

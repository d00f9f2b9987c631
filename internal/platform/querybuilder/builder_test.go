package querybuilder

import (
	"strings"
	"testing"
	"time"
)

func TestSelectBuilder(t *testing.T) {
	query, args, err := Select("id", "league").
		From("fixture_cache").
		Where(Eq("league", "Premier League"), Gte("kickoff_at", 10), Lte("kickoff_at", 20)).
		OrderBy("kickoff_at", "id").
		Limit(10).
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT id, league FROM fixture_cache WHERE league = $1 AND kickoff_at >= $2 AND kickoff_at <= $3 ORDER BY kickoff_at, id LIMIT 10"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 3 || args[0] != "Premier League" || args[2] != 20 {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertBuilder(t *testing.T) {
	query, args, err := InsertInto("fixture_cache").
		Columns("id", "league").
		Values(int64(1), "La Liga").
		Values(int64(2), "Serie A").
		Suffix("ON CONFLICT (id) DO NOTHING").
		ToSQL()
	if err != nil {
		t.Fatalf("build insert query: %v", err)
	}

	wantQuery := "INSERT INTO fixture_cache (id, league) VALUES ($1, $2), ($3, $4) ON CONFLICT (id) DO NOTHING"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 4 || args[3] != "Serie A" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

type cacheRow struct {
	ID       int64     `db:"id"`
	League   string    `db:"league,omitempty"`
	Note     string    `db:"-"`
	CachedAt time.Time `db:"cached_at"`
	Label    string
}

func TestInsertBuilderRows(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	query, args, err := InsertInto("fixture_cache").
		Row(cacheRow{ID: 1, League: "Bundesliga", CachedAt: now}).
		Row(&cacheRow{ID: 2, League: "Ligue 1", CachedAt: now}).
		ToSQL()
	if err != nil {
		t.Fatalf("build insert query: %v", err)
	}

	wantQuery := "INSERT INTO fixture_cache (id, league, cached_at) VALUES ($1, $2, $3), ($4, $5, $6)"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 6 || args[4] != "Ligue 1" {
		t.Fatalf("unexpected args: %+v", args)
	}

	if _, _, err := InsertInto("fixture_cache").Row(42).ToSQL(); err == nil {
		t.Fatalf("expected error for non-struct row")
	}
}

func TestUpdateBuilder(t *testing.T) {
	query, args, err := Update("fixture_cache").
		Set("is_live", false).
		Where(Eq("is_live", true), Expr("NOT (id = ANY(?))", []int64{1, 2})).
		ToSQL()
	if err != nil {
		t.Fatalf("build update query: %v", err)
	}

	wantQuery := "UPDATE fixture_cache SET is_live = $1 WHERE is_live = $2 AND NOT (id = ANY($3))"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 3 || args[0] != false || args[1] != true {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestExprArgCountMismatch(t *testing.T) {
	_, _, err := Select("id").From("fixture_cache").Where(Expr("id = ? OR id = ?", 1)).ToSQL()
	if err == nil || !strings.Contains(err.Error(), "expects 2 args") {
		t.Fatalf("expected arg count error, got %v", err)
	}
}

func TestMustColumns(t *testing.T) {
	cols := MustColumns(cacheRow{})
	if strings.Join(cols, ",") != "id,league,cached_at" {
		t.Fatalf("unexpected columns: %v", cols)
	}
}

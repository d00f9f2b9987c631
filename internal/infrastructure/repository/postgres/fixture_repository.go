package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/riskibarqy/prediction-league/internal/domain/fixture"
	qb "github.com/riskibarqy/prediction-league/internal/platform/querybuilder"
)

const fixtureTable = "fixture_cache"

const upsertFixtureSuffix = `ON CONFLICT (id) DO UPDATE SET
    league = EXCLUDED.league,
    season = EXCLUDED.season,
    round = EXCLUDED.round,
    home_team_id = EXCLUDED.home_team_id,
    home_team_name = EXCLUDED.home_team_name,
    home_team_logo = EXCLUDED.home_team_logo,
    away_team_id = EXCLUDED.away_team_id,
    away_team_name = EXCLUDED.away_team_name,
    away_team_logo = EXCLUDED.away_team_logo,
    kickoff_at = EXCLUDED.kickoff_at,
    status = EXCLUDED.status,
    home_score = EXCLUDED.home_score,
    away_score = EXCLUDED.away_score,
    updated_at = EXCLUDED.updated_at,
    cached_at = NOW()`

// FixtureRepository is the postgres-backed fixture cache shared by gateway
// instances.
type FixtureRepository struct {
	db *sqlx.DB
}

func NewFixtureRepository(db *sqlx.DB) *FixtureRepository {
	return &FixtureRepository{db: db}
}

func (r *FixtureRepository) GetByID(ctx context.Context, id int64) (fixture.Fixture, bool, error) {
	query, args, err := qb.Select(fixtureColumns...).From(fixtureTable).
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return fixture.Fixture{}, false, fmt.Errorf("build get fixture query: %w", err)
	}

	var row fixtureTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return fixture.Fixture{}, false, nil
		}
		return fixture.Fixture{}, false, fmt.Errorf("get fixture: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *FixtureRepository) List(ctx context.Context, query fixture.Query) ([]fixture.Fixture, error) {
	sqlQuery, args, err := buildListFixturesQuery(query)
	if err != nil {
		return nil, fmt.Errorf("build list fixtures query: %w", err)
	}
	return r.selectFixtures(ctx, sqlQuery, args)
}

func (r *FixtureRepository) ListLive(ctx context.Context) ([]fixture.Fixture, error) {
	query, args, err := qb.Select(fixtureColumns...).From(fixtureTable).
		Where(qb.Eq("is_live", true)).
		OrderBy("kickoff_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list live fixtures query: %w", err)
	}
	return r.selectFixtures(ctx, query, args)
}

func (r *FixtureRepository) Upsert(ctx context.Context, fixtures []fixture.Fixture) error {
	fixtures = dedupeFixtures(fixtures)
	if len(fixtures) == 0 {
		return nil
	}

	query, args, err := buildUpsertFixturesQuery(fixtures, false)
	if err != nil {
		return fmt.Errorf("build upsert fixtures query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert fixtures: %w", err)
	}
	return nil
}

// ReplaceLive upserts the live fixtures and clears the live flag on every
// other row in one transaction.
func (r *FixtureRepository) ReplaceLive(ctx context.Context, live []fixture.Fixture) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx replace live fixtures: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	live = dedupeFixtures(live)
	ids := make([]int64, 0, len(live))
	if len(live) > 0 {
		query, args, err := buildUpsertFixturesQuery(live, true)
		if err != nil {
			return fmt.Errorf("build upsert live fixtures query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert live fixtures: %w", err)
		}
		for _, item := range live {
			ids = append(ids, item.ID)
		}
	}

	clearQuery, clearArgs, err := qb.Update(fixtureTable).
		Set("is_live", false).
		Where(
			qb.Eq("is_live", true),
			qb.Expr("NOT (id = ANY(?))", pq.Array(ids)),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build clear live fixtures query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, clearQuery, clearArgs...); err != nil {
		return fmt.Errorf("clear live fixtures: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace live fixtures tx: %w", err)
	}
	return nil
}

func (r *FixtureRepository) selectFixtures(ctx context.Context, query string, args []any) ([]fixture.Fixture, error) {
	var rows []fixtureTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select fixtures: %w", err)
	}

	out := make([]fixture.Fixture, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func buildListFixturesQuery(query fixture.Query) (string, []any, error) {
	conditions := make([]qb.Condition, 0, 5)
	if query.League != "" {
		conditions = append(conditions, qb.Eq("league", query.League))
	}
	if query.Season != "" {
		conditions = append(conditions, qb.Eq("season", query.Season))
	}
	if query.Status != "" {
		conditions = append(conditions, qb.Eq("status", string(query.Status)))
	}
	if !query.From.IsZero() {
		conditions = append(conditions, qb.Gte("kickoff_at", query.From.UTC()))
	}
	if !query.To.IsZero() {
		conditions = append(conditions, qb.Lte("kickoff_at", query.To.UTC()))
	}

	return qb.Select(fixtureColumns...).From(fixtureTable).
		Where(conditions...).
		OrderBy("kickoff_at", "id").
		ToSQL()
}

// dedupeFixtures drops invalid ids and keeps the last occurrence of each
// fixture; postgres rejects a multi-row upsert touching one row twice.
func dedupeFixtures(items []fixture.Fixture) []fixture.Fixture {
	index := make(map[int64]int, len(items))
	out := make([]fixture.Fixture, 0, len(items))
	for _, item := range items {
		if item.ID <= 0 {
			continue
		}
		if idx, ok := index[item.ID]; ok {
			out[idx] = item
			continue
		}
		index[item.ID] = len(out)
		out = append(out, item)
	}
	return out
}

// buildUpsertFixturesQuery writes all rows in one statement. The live flag
// is only overwritten when live is true, so a plain listing refresh never
// drops a fixture from the live set.
func buildUpsertFixturesQuery(fixtures []fixture.Fixture, live bool) (string, []any, error) {
	builder := qb.InsertInto(fixtureTable)
	for _, item := range fixtures {
		builder.Row(fixtureToRow(item, live))
	}

	suffix := upsertFixtureSuffix
	if live {
		suffix += ",\n    is_live = EXCLUDED.is_live"
	}
	return builder.Suffix(suffix).ToSQL()
}

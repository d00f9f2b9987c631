package postgres

import (
	"database/sql"
	"time"

	"github.com/riskibarqy/prediction-league/internal/domain/fixture"
	"github.com/riskibarqy/prediction-league/internal/domain/team"
	qb "github.com/riskibarqy/prediction-league/internal/platform/querybuilder"
)

type fixtureTableModel struct {
	ID           int64         `db:"id"`
	League       string        `db:"league"`
	Season       string        `db:"season"`
	Round        string        `db:"round"`
	HomeTeamID   int64         `db:"home_team_id"`
	HomeTeamName string        `db:"home_team_name"`
	HomeTeamLogo string        `db:"home_team_logo"`
	AwayTeamID   int64         `db:"away_team_id"`
	AwayTeamName string        `db:"away_team_name"`
	AwayTeamLogo string        `db:"away_team_logo"`
	KickoffAt    time.Time     `db:"kickoff_at"`
	Status       string        `db:"status"`
	HomeScore    sql.NullInt64 `db:"home_score"`
	AwayScore    sql.NullInt64 `db:"away_score"`
	IsLive       bool          `db:"is_live"`
	UpdatedAt    time.Time     `db:"updated_at"`
}

var fixtureColumns = qb.MustColumns(fixtureTableModel{})

func fixtureToRow(item fixture.Fixture, live bool) fixtureTableModel {
	return fixtureTableModel{
		ID:           item.ID,
		League:       item.League,
		Season:       item.Season,
		Round:        item.Round,
		HomeTeamID:   item.Home.ID,
		HomeTeamName: item.Home.Name,
		HomeTeamLogo: item.Home.LogoURL,
		AwayTeamID:   item.Away.ID,
		AwayTeamName: item.Away.Name,
		AwayTeamLogo: item.Away.LogoURL,
		KickoffAt:    item.KickoffAt.UTC(),
		Status:       string(item.Status),
		HomeScore:    intPtrToNull(item.HomeScore),
		AwayScore:    intPtrToNull(item.AwayScore),
		IsLive:       live,
		UpdatedAt:    item.UpdatedAt.UTC(),
	}
}

func (row fixtureTableModel) toDomain() fixture.Fixture {
	return fixture.Fixture{
		ID:        row.ID,
		League:    row.League,
		Season:    row.Season,
		Round:     row.Round,
		Home:      team.Team{ID: row.HomeTeamID, League: row.League, Name: row.HomeTeamName, LogoURL: row.HomeTeamLogo},
		Away:      team.Team{ID: row.AwayTeamID, League: row.League, Name: row.AwayTeamName, LogoURL: row.AwayTeamLogo},
		KickoffAt: row.KickoffAt,
		Status:    fixture.Status(row.Status),
		HomeScore: nullToIntPtr(row.HomeScore),
		AwayScore: nullToIntPtr(row.AwayScore),
		UpdatedAt: row.UpdatedAt,
	}
}

func intPtrToNull(value *int) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*value), Valid: true}
}

func nullToIntPtr(value sql.NullInt64) *int {
	if !value.Valid {
		return nil
	}
	v := int(value.Int64)
	return &v
}

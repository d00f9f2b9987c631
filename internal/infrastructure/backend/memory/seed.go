package memory

import (
	"time"

	"github.com/riskibarqy/prediction-league/internal/domain/fixture"
	"github.com/riskibarqy/prediction-league/internal/domain/team"
	"github.com/riskibarqy/prediction-league/internal/domain/user"
)

const (
	LeaguePremierLeague = "Premier League"
	LeagueLaLiga        = "La Liga"
	LeagueChampions     = "UEFA Champions League"

	SeedSeason = "2025"
)

// Seed is the initial dataset of a Backend.
type Seed struct {
	Users    []user.Principal
	Teams    []team.Team
	Fixtures []fixture.Fixture
}

// DefaultSeed returns demo users, clubs and a fixture list laid out around now.
func DefaultSeed(now time.Time) Seed {
	return Seed{
		Users:    SeedUsers(),
		Teams:    SeedTeams(),
		Fixtures: SeedFixtures(now),
	}
}

func SeedUsers() []user.Principal {
	return []user.Principal{
		{UserID: "1", Username: "alice", AccessToken: "dev-token-alice"},
		{UserID: "2", Username: "bob", AccessToken: "dev-token-bob"},
		{UserID: "3", Username: "carol", AccessToken: "dev-token-carol"},
	}
}

func SeedTeams() []team.Team {
	return []team.Team{
		{ID: 42, League: LeaguePremierLeague, Name: "Arsenal", LogoURL: "https://media.api-sports.io/football/teams/42.png"},
		{ID: 40, League: LeaguePremierLeague, Name: "Liverpool", LogoURL: "https://media.api-sports.io/football/teams/40.png"},
		{ID: 50, League: LeaguePremierLeague, Name: "Manchester City", LogoURL: "https://media.api-sports.io/football/teams/50.png"},
		{ID: 49, League: LeaguePremierLeague, Name: "Chelsea", LogoURL: "https://media.api-sports.io/football/teams/49.png"},
		{ID: 529, League: LeagueLaLiga, Name: "Barcelona", LogoURL: "https://media.api-sports.io/football/teams/529.png"},
		{ID: 541, League: LeagueLaLiga, Name: "Real Madrid", LogoURL: "https://media.api-sports.io/football/teams/541.png"},
		{ID: 157, League: LeagueChampions, Name: "Bayern Munich", LogoURL: "https://media.api-sports.io/football/teams/157.png"},
		{ID: 85, League: LeagueChampions, Name: "Paris Saint Germain", LogoURL: "https://media.api-sports.io/football/teams/85.png"},
	}
}

func SeedFixtures(now time.Time) []fixture.Fixture {
	teams := make(map[int64]team.Team)
	for _, item := range SeedTeams() {
		teams[item.ID] = item
	}
	build := func(id int64, league, round string, home, away int64, kickoff time.Time, status fixture.Status, homeScore, awayScore *int) fixture.Fixture {
		return fixture.Fixture{
			ID:        id,
			League:    league,
			Season:    SeedSeason,
			Round:     round,
			Home:      teams[home],
			Away:      teams[away],
			KickoffAt: kickoff.UTC().Truncate(time.Minute),
			Status:    status,
			HomeScore: homeScore,
			AwayScore: awayScore,
			UpdatedAt: now.UTC(),
		}
	}
	score := func(v int) *int { return &v }

	return []fixture.Fixture{
		build(1001, LeaguePremierLeague, "Regular Season - 28", 42, 40, now.Add(-26*time.Hour), fixture.StatusFinished, score(2), score(1)),
		build(1002, LeaguePremierLeague, "Regular Season - 29", 50, 49, now.Add(-40*time.Minute), fixture.StatusFirstHalf, score(0), score(0)),
		build(1003, LeaguePremierLeague, "Regular Season - 29", 40, 50, now.Add(2*time.Hour), fixture.StatusNotStarted, nil, nil),
		build(1004, LeaguePremierLeague, "Regular Season - 29", 49, 42, now.Add(26*time.Hour), fixture.StatusNotStarted, nil, nil),
		build(2001, LeagueLaLiga, "Regular Season - 27", 529, 541, now.Add(3*time.Hour), fixture.StatusNotStarted, nil, nil),
		build(2002, LeagueLaLiga, "Regular Season - 26", 541, 529, now.Add(-5*24*time.Hour), fixture.StatusPostponed, nil, nil),
		build(3001, LeagueChampions, "Round of 16", 157, 85, now.Add(50*time.Hour), fixture.StatusNotStarted, nil, nil),
	}
}

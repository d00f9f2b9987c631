package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/riskibarqy/prediction-league/internal/domain/fixture"
	"github.com/riskibarqy/prediction-league/internal/domain/team"
)

const defaultKeyPrefix = "prediction-league:"

// FixtureRepository keeps one hash per fixture (fixture:{id}) plus two id
// sets: every cached fixture and the current live subset.
type FixtureRepository struct {
	client *goredis.Client
	prefix string
	ttl    time.Duration
}

// NewFixtureRepository builds the cache. A positive ttl expires fixture
// hashes that have not been refreshed.
func NewFixtureRepository(client *goredis.Client, prefix string, ttl time.Duration) *FixtureRepository {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &FixtureRepository{client: client, prefix: prefix, ttl: ttl}
}

func (r *FixtureRepository) GetByID(ctx context.Context, id int64) (fixture.Fixture, bool, error) {
	fields, err := r.client.HGetAll(ctx, r.fixtureKey(id)).Result()
	if err != nil {
		return fixture.Fixture{}, false, fmt.Errorf("get fixture %d: %w", id, err)
	}
	if len(fields) == 0 {
		return fixture.Fixture{}, false, nil
	}

	item, err := fixtureFromHash(fields)
	if err != nil {
		return fixture.Fixture{}, false, fmt.Errorf("decode fixture %d: %w", id, err)
	}
	return item, true, nil
}

func (r *FixtureRepository) List(ctx context.Context, query fixture.Query) ([]fixture.Fixture, error) {
	items, err := r.loadSet(ctx, r.allKey())
	if err != nil {
		return nil, err
	}

	out := items[:0]
	for _, item := range items {
		if query.Matches(item) {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *FixtureRepository) ListLive(ctx context.Context) ([]fixture.Fixture, error) {
	return r.loadSet(ctx, r.liveKey())
}

func (r *FixtureRepository) Upsert(ctx context.Context, fixtures []fixture.Fixture) error {
	if len(fixtures) == 0 {
		return nil
	}

	_, err := r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		for _, item := range fixtures {
			r.writeFixture(ctx, pipe, item)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("upsert fixtures: %w", err)
	}
	return nil
}

// ReplaceLive writes the live fixtures and swaps the live id set atomically.
func (r *FixtureRepository) ReplaceLive(ctx context.Context, live []fixture.Fixture) error {
	_, err := r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, r.liveKey())
		for _, item := range live {
			if !r.writeFixture(ctx, pipe, item) {
				continue
			}
			pipe.SAdd(ctx, r.liveKey(), item.ID)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("replace live fixtures: %w", err)
	}
	return nil
}

func (r *FixtureRepository) writeFixture(ctx context.Context, pipe goredis.Pipeliner, item fixture.Fixture) bool {
	if item.ID <= 0 {
		return false
	}
	key := r.fixtureKey(item.ID)
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, fixtureToHash(item))
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	pipe.SAdd(ctx, r.allKey(), item.ID)
	return true
}

func (r *FixtureRepository) loadSet(ctx context.Context, setKey string) ([]fixture.Fixture, error) {
	ids, err := r.client.SMembers(ctx, setKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list fixture ids: %w", err)
	}
	if len(ids) == 0 {
		return []fixture.Fixture{}, nil
	}

	cmds := make([]*goredis.StringStringMapCmd, 0, len(ids))
	_, err = r.client.Pipelined(ctx, func(pipe goredis.Pipeliner) error {
		for _, raw := range ids {
			cmds = append(cmds, pipe.HGetAll(ctx, r.prefix+"fixture:"+raw))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load fixtures: %w", err)
	}

	out := make([]fixture.Fixture, 0, len(cmds))
	stale := make([]any, 0)
	for idx, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			stale = append(stale, ids[idx])
			continue
		}
		item, err := fixtureFromHash(fields)
		if err != nil {
			return nil, fmt.Errorf("decode fixture %s: %w", ids[idx], err)
		}
		out = append(out, item)
	}
	if len(stale) > 0 {
		_ = r.client.SRem(ctx, setKey, stale...).Err()
	}

	fixture.SortByKickoff(out)
	return out, nil
}

func (r *FixtureRepository) fixtureKey(id int64) string {
	return r.prefix + "fixture:" + strconv.FormatInt(id, 10)
}

func (r *FixtureRepository) allKey() string {
	return r.prefix + "fixtures:all"
}

func (r *FixtureRepository) liveKey() string {
	return r.prefix + "fixtures:live"
}

func fixtureToHash(item fixture.Fixture) map[string]interface{} {
	return map[string]interface{}{
		"id":         item.ID,
		"league":     item.League,
		"season":     item.Season,
		"round":      item.Round,
		"home_id":    item.Home.ID,
		"home_name":  item.Home.Name,
		"home_logo":  item.Home.LogoURL,
		"away_id":    item.Away.ID,
		"away_name":  item.Away.Name,
		"away_logo":  item.Away.LogoURL,
		"kickoff_at": item.KickoffAt.UTC().Format(time.RFC3339),
		"status":     string(item.Status),
		"home_score": formatScore(item.HomeScore),
		"away_score": formatScore(item.AwayScore),
		"updated_at": item.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func fixtureFromHash(fields map[string]string) (fixture.Fixture, error) {
	id, err := strconv.ParseInt(fields["id"], 10, 64)
	if err != nil {
		return fixture.Fixture{}, fmt.Errorf("parse id: %w", err)
	}
	kickoff, err := time.Parse(time.RFC3339, fields["kickoff_at"])
	if err != nil {
		return fixture.Fixture{}, fmt.Errorf("parse kickoff_at: %w", err)
	}
	updated, _ := time.Parse(time.RFC3339Nano, fields["updated_at"])
	homeID, _ := strconv.ParseInt(fields["home_id"], 10, 64)
	awayID, _ := strconv.ParseInt(fields["away_id"], 10, 64)

	league := fields["league"]
	return fixture.Fixture{
		ID:        id,
		League:    league,
		Season:    fields["season"],
		Round:     fields["round"],
		Home:      team.Team{ID: homeID, League: league, Name: fields["home_name"], LogoURL: fields["home_logo"]},
		Away:      team.Team{ID: awayID, League: league, Name: fields["away_name"], LogoURL: fields["away_logo"]},
		KickoffAt: kickoff,
		Status:    fixture.Status(fields["status"]),
		HomeScore: parseScore(fields["home_score"]),
		AwayScore: parseScore(fields["away_score"]),
		UpdatedAt: updated,
	}, nil
}

func formatScore(value *int) string {
	if value == nil {
		return ""
	}
	return strconv.Itoa(*value)
}

func parseScore(raw string) *int {
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &v
}

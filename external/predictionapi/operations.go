package predictionapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/riskibarqy/prediction-league/internal/domain/fixture"
	"github.com/riskibarqy/prediction-league/internal/domain/group"
	"github.com/riskibarqy/prediction-league/internal/domain/prediction"
	"github.com/riskibarqy/prediction-league/internal/domain/team"
	"github.com/riskibarqy/prediction-league/internal/domain/user"
	"github.com/riskibarqy/prediction-league/internal/usecase"
)

func (c *Client) Submit(ctx context.Context, fixtureID int64, homeScore, awayScore int) (prediction.Prediction, error) {
	var out predictionDTO
	req := submitPredictionRequest{FixtureID: fixtureID, Score1: homeScore, Score2: awayScore}
	if _, err := c.call(ctx, http.MethodPost, "/predictions", nil, req, &out); err != nil {
		return prediction.Prediction{}, err
	}
	if out.FixtureID == 0 {
		out.FixtureID = fixtureID
		out.Score1, out.Score2 = homeScore, awayScore
	}
	return out.toDomain(), nil
}

func (c *Client) Reset(ctx context.Context, predictionID int64) error {
	_, err := c.call(ctx, http.MethodPost, "/predictions/reset/"+strconv.FormatInt(predictionID, 10), nil, nil, nil)
	return err
}

func (c *Client) ListMine(ctx context.Context, filter prediction.Filter) ([]prediction.Prediction, error) {
	query := url.Values{}
	if filter.Season != "" {
		query.Set("season", filter.Season)
	}
	if filter.Week > 0 {
		query.Set("week", strconv.Itoa(filter.Week))
	}
	if filter.Status != "" {
		query.Set("status", string(filter.Status))
	}

	var out []predictionDTO
	if _, err := c.call(ctx, http.MethodGet, "/predictions/user", query, nil, &out); err != nil {
		return nil, err
	}
	return mapSlice(out, predictionDTO.toDomain), nil
}

func (c *Client) ListLiveMatches(ctx context.Context) ([]fixture.Fixture, error) {
	var out []fixtureDTO
	if _, err := c.call(ctx, http.MethodGet, "/matches/live", nil, nil, &out); err != nil {
		return nil, err
	}
	return mapSlice(out, fixtureDTO.toDomain), nil
}

func (c *Client) ListFixtures(ctx context.Context, q fixture.Query) ([]fixture.Fixture, error) {
	query := url.Values{}
	if q.League != "" {
		query.Set("league", q.League)
	}
	if q.Season != "" {
		query.Set("season", q.Season)
	}
	if q.Status != "" {
		query.Set("status", string(q.Status))
	}
	if from := formatTime(q.From); from != "" {
		query.Set("from", from)
	}
	if to := formatTime(q.To); to != "" {
		query.Set("to", to)
	}

	var out []fixtureDTO
	if _, err := c.call(ctx, http.MethodGet, "/matches/fixtures", query, nil, &out); err != nil {
		return nil, err
	}
	return mapSlice(out, fixtureDTO.toDomain), nil
}

func (c *Client) ListByLeague(ctx context.Context, league string) ([]team.Team, error) {
	var out []teamDTO
	if _, err := c.call(ctx, http.MethodGet, "/teams/"+url.PathEscape(league), nil, nil, &out); err != nil {
		return nil, err
	}
	return mapSlice(out, func(d teamDTO) team.Team { return d.toDomain(league) }), nil
}

func (c *Client) Create(ctx context.Context, req group.CreateRequest) (group.Group, error) {
	body := createGroupRequest{
		Name:         req.Name,
		League:       req.League,
		PrivacyType:  string(req.PrivacyType),
		TrackedTeams: req.TrackedTeams,
		Description:  req.Description,
	}
	if body.TrackedTeams == nil {
		body.TrackedTeams = []int64{}
	}

	var out groupDTO
	if _, err := c.call(ctx, http.MethodPost, "/groups", nil, body, &out); err != nil {
		return group.Group{}, err
	}
	return out.toDomain(), nil
}

func (c *Client) ListMyGroups(ctx context.Context) ([]group.Group, error) {
	var out []groupDTO
	if _, err := c.call(ctx, http.MethodGet, "/groups", nil, nil, &out); err != nil {
		return nil, err
	}
	return mapSlice(out, groupDTO.toDomain), nil
}

func (c *Client) Join(ctx context.Context, inviteCode string) (group.JoinResult, error) {
	var out joinResultDTO
	message, err := c.call(ctx, http.MethodPost, "/groups/join", nil, joinGroupRequest{InviteCode: inviteCode}, &out)
	if err != nil {
		return group.JoinResult{}, err
	}

	status := group.MembershipStatus(strings.ToUpper(out.Status))
	if status == "" {
		status = group.MembershipApproved
	}
	return group.JoinResult{GroupID: out.GroupID, Status: status, Message: message}, nil
}

func (c *Client) ListMembers(ctx context.Context, groupID int64) ([]group.Member, error) {
	var out []memberDTO
	if _, err := c.call(ctx, http.MethodGet, fmt.Sprintf("/groups/%d/members", groupID), nil, nil, &out); err != nil {
		return nil, err
	}
	return mapSlice(out, memberDTO.toDomain), nil
}

func (c *Client) ManageMember(ctx context.Context, groupID int64, userID string, action group.Action) error {
	body := manageMemberRequest{UserID: userID, Action: string(action)}
	_, err := c.call(ctx, http.MethodPost, fmt.Sprintf("/groups/%d/members", groupID), nil, body, nil)
	return err
}

func (c *Client) RegenerateInviteCode(ctx context.Context, groupID int64) (string, error) {
	var out inviteCodeDTO
	if _, err := c.call(ctx, http.MethodPost, fmt.Sprintf("/groups/%d/regenerate-code", groupID), nil, nil, &out); err != nil {
		return "", err
	}
	return out.InviteCode, nil
}

// VerifyAccessToken resolves a bearer token to a principal using the
// backend session endpoint.
func (c *Client) VerifyAccessToken(ctx context.Context, token string) (user.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return user.Principal{}, fmt.Errorf("%w: token is required", usecase.ErrUnauthorized)
	}

	ctx = user.WithPrincipal(ctx, user.Principal{AccessToken: token})
	var out authStatusDTO
	if _, err := c.call(ctx, http.MethodGet, authStatusPath, nil, nil, &out); err != nil {
		return user.Principal{}, err
	}
	if !out.Authenticated || strings.TrimSpace(out.UserID) == "" {
		return user.Principal{}, fmt.Errorf("%w: session is not authenticated", usecase.ErrUnauthorized)
	}

	return user.Principal{UserID: out.UserID, Username: out.Username, AccessToken: token}, nil
}

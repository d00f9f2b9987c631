package memory_test

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/riskibarqy/prediction-league/internal/domain/fixture"
	"github.com/riskibarqy/prediction-league/internal/domain/group"
	"github.com/riskibarqy/prediction-league/internal/domain/prediction"
	"github.com/riskibarqy/prediction-league/internal/domain/user"
	"github.com/riskibarqy/prediction-league/internal/infrastructure/backend/memory"
	cachememory "github.com/riskibarqy/prediction-league/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/prediction-league/internal/platform/logging"
	"github.com/riskibarqy/prediction-league/internal/usecase"
)

func newBackend(t *testing.T) (*memory.Backend, map[string]context.Context) {
	t.Helper()

	seed := memory.DefaultSeed(time.Now())
	backend := memory.NewBackend(seed, nil)

	ctxs := make(map[string]context.Context, len(seed.Users))
	for _, item := range seed.Users {
		principal, err := backend.VerifyAccessToken(context.Background(), item.AccessToken)
		if err != nil {
			t.Fatalf("verify %s: %v", item.Username, err)
		}
		ctxs[item.Username] = user.WithPrincipal(context.Background(), principal)
	}
	return backend, ctxs
}

func TestBackend_SemiPrivateJoinPendsUntilApproved(t *testing.T) {
	t.Parallel()

	backend, ctxs := newBackend(t)
	service := usecase.NewGroupService(backend, backend, time.Minute)

	created, err := service.CreateGroup(ctxs["alice"], usecase.CreateGroupInput{
		Name:        "Sunday League",
		League:      "PL",
		PrivacyType: "SEMI_PRIVATE",
	})
	if err != nil {
		t.Fatalf("create group: %v", err)
	}

	joined, err := service.JoinGroup(ctxs["bob"], group.FormatInviteCode(created.InviteCode))
	if err != nil {
		t.Fatalf("join group: %v", err)
	}
	if joined.Status != group.MembershipPending || joined.Message != "Join request sent to group admin" {
		t.Fatalf("unexpected join result: %+v", joined)
	}

	if _, err := service.JoinGroup(ctxs["bob"], created.InviteCode); !errors.Is(err, usecase.ErrApplication) {
		t.Fatalf("expected pending duplicate to be rejected, got %v", err)
	}
	if groups, _ := service.ListMyGroups(ctxs["bob"]); len(groups) != 0 {
		t.Fatalf("pending member must not see the group yet: %+v", groups)
	}

	if err := service.ManageMember(ctxs["bob"], created.ID, "2", "APPROVE"); !errors.Is(err, usecase.ErrUnauthorized) {
		t.Fatalf("expected non-admin approval to be unauthorized, got %v", err)
	}
	if err := service.ManageMember(ctxs["alice"], created.ID, "2", "APPROVE"); err != nil {
		t.Fatalf("approve: %v", err)
	}

	members, err := service.ListMembers(ctxs["alice"], created.ID)
	if err != nil {
		t.Fatalf("list members: %v", err)
	}
	idx := slices.IndexFunc(members, func(m group.Member) bool { return m.UserID == "2" })
	if idx < 0 || members[idx].Status != group.MembershipApproved || members[idx].Role != group.RoleMember {
		t.Fatalf("bob should be an approved member: %+v", members)
	}
	if _, err := service.JoinGroup(ctxs["bob"], created.InviteCode); !errors.Is(err, usecase.ErrApplication) {
		t.Fatalf("expected already-member to be rejected, got %v", err)
	}
}

func TestBackend_PrivateJoinIsImmediate(t *testing.T) {
	t.Parallel()

	backend, ctxs := newBackend(t)
	service := usecase.NewGroupService(backend, backend, time.Minute)

	created, err := service.CreateGroup(ctxs["alice"], usecase.CreateGroupInput{Name: "Office", League: "LL"})
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	if created.PrivacyType != group.PrivacyPrivate || created.League != "La Liga" {
		t.Fatalf("unexpected group: %+v", created)
	}

	joined, err := service.JoinGroup(ctxs["carol"], created.InviteCode)
	if err != nil {
		t.Fatalf("join group: %v", err)
	}
	if joined.Status != group.MembershipApproved {
		t.Fatalf("expected APPROVED, got %s", joined.Status)
	}
}

func TestBackend_RegenerateInvalidatesPreviousCode(t *testing.T) {
	t.Parallel()

	backend, ctxs := newBackend(t)
	service := usecase.NewGroupService(backend, backend, time.Minute)

	created, err := service.CreateGroup(ctxs["alice"], usecase.CreateGroupInput{Name: "Rivals", League: "UCL"})
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	oldCode := created.InviteCode

	newCode, err := service.RegenerateInviteCode(ctxs["alice"], created.ID)
	if err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if newCode == oldCode {
		t.Fatalf("expected a new invite code")
	}
	if _, err := group.NormalizeInviteCode(newCode); err != nil {
		t.Fatalf("new code is not well formed: %q", newCode)
	}

	_, err = service.JoinGroup(ctxs["bob"], oldCode)
	if !errors.Is(err, usecase.ErrApplication) {
		t.Fatalf("expected application error for old code, got %v", err)
	}
	if msg, _ := usecase.UserMessage(err); msg != "Invalid invite code" {
		t.Fatalf("unexpected message: %q", msg)
	}
	if _, err := service.JoinGroup(ctxs["bob"], newCode); err != nil {
		t.Fatalf("join with new code: %v", err)
	}
}

func TestBackend_PredictionLifecycleThroughStore(t *testing.T) {
	t.Parallel()

	backend, ctxs := newBackend(t)
	groups := usecase.NewGroupService(backend, backend, time.Minute)
	if _, err := groups.CreateGroup(ctxs["alice"], usecase.CreateGroupInput{Name: "Weekend", League: "PL"}); err != nil {
		t.Fatalf("create group: %v", err)
	}

	cache := cachememory.NewFixtureRepository(nil)
	fixtures := usecase.NewFixtureService(backend, cache, logging.NewNop())
	if _, err := fixtures.ListFixtures(ctxs["alice"], fixture.Query{League: "Premier League"}); err != nil {
		t.Fatalf("list fixtures: %v", err)
	}

	ctx := ctxs["alice"]
	store := usecase.NewPredictionStore("1", backend, cache, logging.NewNop())

	created, err := store.Submit(ctx, 1003, 2, 1)
	if err != nil {
		t.Fatalf("submit open fixture: %v", err)
	}
	if created.Status != prediction.StatusSubmitted || created.HomeScore != 2 || created.AwayScore != 1 || created.Week != 29 {
		t.Fatalf("unexpected prediction: %+v", created)
	}

	if _, err := store.Submit(ctx, 1002, 1, 1); !errors.Is(err, usecase.ErrPredictionLocked) {
		t.Fatalf("expected live fixture to be locked, got %v", err)
	}
	if _, err := backend.Submit(ctx, 1002, 1, 1); !errors.Is(err, usecase.ErrApplication) {
		t.Fatalf("backend must re-validate the window, got %v", err)
	}

	if err := store.Reset(ctx, created.ID); err != nil {
		t.Fatalf("reset: %v", err)
	}
	reset, err := backend.ListMine(ctx, prediction.Filter{})
	if err != nil {
		t.Fatalf("list mine after reset: %v", err)
	}
	if len(reset) != 1 || reset[0].Status != prediction.StatusEditable {
		t.Fatalf("expected the reset row to stay as EDITABLE: %+v", reset)
	}
	if err := store.Refresh(ctx, prediction.Filter{}); err != nil {
		t.Fatalf("refresh after reset: %v", err)
	}
	for item := range store.List(ctx, prediction.Filter{}) {
		if item.FixtureID == 1003 {
			t.Fatalf("reset prediction came back after refresh: %+v", item)
		}
	}

	resubmitted, err := store.Submit(ctx, 1003, 0, 0)
	if err != nil {
		t.Fatalf("resubmit after reset: %v", err)
	}
	if resubmitted.ID != created.ID {
		t.Fatalf("expected resubmit to reuse prediction %d, got %d", created.ID, resubmitted.ID)
	}

	items, err := backend.ListMine(ctx, prediction.Filter{Season: memory.SeedSeason})
	if err != nil {
		t.Fatalf("list mine: %v", err)
	}
	if len(items) != 1 || items[0].HomeScore != 0 {
		t.Fatalf("unexpected backend predictions: %+v", items)
	}
}

func TestBackend_SubmitRequiresTrackedLeague(t *testing.T) {
	t.Parallel()

	backend, ctxs := newBackend(t)

	_, err := backend.Submit(ctxs["bob"], 2001, 1, 0)
	if !errors.Is(err, usecase.ErrApplication) {
		t.Fatalf("expected application error without a La Liga group, got %v", err)
	}
	if _, err := backend.Submit(context.Background(), 2001, 1, 0); !errors.Is(err, usecase.ErrUnauthorized) {
		t.Fatalf("expected unauthorized without a principal, got %v", err)
	}
}

func TestBackend_ResetRules(t *testing.T) {
	t.Parallel()

	backend, ctxs := newBackend(t)
	groups := usecase.NewGroupService(backend, backend, time.Minute)
	created, err := groups.CreateGroup(ctxs["alice"], usecase.CreateGroupInput{Name: "Weekend", League: "PL"})
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	if _, err := groups.JoinGroup(ctxs["bob"], created.InviteCode); err != nil {
		t.Fatalf("join: %v", err)
	}

	item, err := backend.Submit(ctxs["alice"], 1004, 3, 3)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := backend.Reset(ctxs["bob"], item.ID); !errors.Is(err, usecase.ErrUnauthorized) {
		t.Fatalf("expected other user's reset to be unauthorized, got %v", err)
	}

	points := 3
	backend.SetPredictionStatus(item.ID, prediction.StatusProcessed, &points)
	if err := backend.Reset(ctxs["alice"], item.ID); !errors.Is(err, usecase.ErrApplication) {
		t.Fatalf("expected processed prediction reset to be rejected, got %v", err)
	}
	if err := backend.Reset(ctxs["alice"], 9999); !errors.Is(err, usecase.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestBackend_LiveMatchesAndTeams(t *testing.T) {
	t.Parallel()

	backend, ctxs := newBackend(t)

	live, err := backend.ListLiveMatches(ctxs["alice"])
	if err != nil {
		t.Fatalf("list live: %v", err)
	}
	if len(live) != 1 || live[0].ID != 1002 {
		t.Fatalf("unexpected live fixtures: %+v", live)
	}

	next := live[0]
	next.Status = fixture.StatusFinished
	backend.SetFixture(next)
	if live, _ := backend.ListLiveMatches(ctxs["alice"]); len(live) != 0 {
		t.Fatalf("finished fixture still live: %+v", live)
	}

	teams, err := backend.ListByLeague(ctxs["alice"], "PL")
	if err != nil {
		t.Fatalf("list teams: %v", err)
	}
	if len(teams) != 4 {
		t.Fatalf("unexpected team count: %d", len(teams))
	}

	if _, err := backend.VerifyAccessToken(context.Background(), "nope"); !errors.Is(err, usecase.ErrUnauthorized) {
		t.Fatalf("expected unknown token to be unauthorized, got %v", err)
	}
}

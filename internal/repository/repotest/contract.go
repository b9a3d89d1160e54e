// Package repotest is the shared behavioral contract for repository
// implementations. The in-memory store and the postgres store both run
// this suite, which keeps the unit-test store honest about the
// conditional-write semantics the services depend on.
package repotest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/crosswars/api/internal/model"
	"github.com/crosswars/api/internal/repository"
)

// Repos bundles the repository views under test.
type Repos struct {
	Invites repository.InviteRepository
	Battles repository.BattleRepository
	Stats   repository.StatsRepository
}

// Factory returns a fresh, empty store for one subtest.
type Factory func(t *testing.T) Repos

// Run exercises an implementation against the full contract.
func Run(t *testing.T, newRepos Factory) {
	t.Run("InviteRoundtrip", func(t *testing.T) { testInviteRoundtrip(t, newRepos(t)) })
	t.Run("InviteNotFound", func(t *testing.T) { testInviteNotFound(t, newRepos(t)) })
	t.Run("AcceptActiveOnce", func(t *testing.T) { testAcceptActiveOnce(t, newRepos(t)) })
	t.Run("AcceptActiveGuest", func(t *testing.T) { testAcceptActiveGuest(t, newRepos(t)) })
	t.Run("AcceptActiveConcurrent", func(t *testing.T) { testAcceptActiveConcurrent(t, newRepos(t)) })
	t.Run("MarkExpired", func(t *testing.T) { testMarkExpired(t, newRepos(t)) })
	t.Run("ExpireOverdue", func(t *testing.T) { testExpireOverdue(t, newRepos(t)) })
	t.Run("BattleLifecycle", func(t *testing.T) { testBattleLifecycle(t, newRepos(t)) })
	t.Run("BattleNotFound", func(t *testing.T) { testBattleNotFound(t, newRepos(t)) })
	t.Run("CompleteInProgressOnce", func(t *testing.T) { testCompleteInProgressOnce(t, newRepos(t)) })
	t.Run("CompleteInProgressConcurrent", func(t *testing.T) { testCompleteInProgressConcurrent(t, newRepos(t)) })
	t.Run("DeleteBattle", func(t *testing.T) { testDeleteBattle(t, newRepos(t)) })
	t.Run("DeleteStaleWaiting", func(t *testing.T) { testDeleteStaleWaiting(t, newRepos(t)) })
	t.Run("StatsRoundtrip", func(t *testing.T) { testStatsRoundtrip(t, newRepos(t)) })
	t.Run("StatsUpdateMissing", func(t *testing.T) { testStatsUpdateMissing(t, newRepos(t)) })
}

func mustCreateBattle(t *testing.T, r Repos, player1ID string) *model.Battle {
	t.Helper()
	b, err := r.Battles.Create(context.Background(), player1ID, "2026-08-28")
	if err != nil {
		t.Fatalf("Create battle: %v", err)
	}
	return b
}

func mustCreateInvite(t *testing.T, r Repos, battleID, inviterID string, expiresAt time.Time) *model.Invite {
	t.Helper()
	inv := &model.Invite{
		Token:     uuid.NewString(),
		InviterID: inviterID,
		BattleID:  battleID,
		Status:    model.InviteActive,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	if err := r.Invites.Create(context.Background(), inv); err != nil {
		t.Fatalf("Create invite: %v", err)
	}
	return inv
}

func testInviteRoundtrip(t *testing.T, r Repos) {
	b := mustCreateBattle(t, r, "user-1")
	inv := mustCreateInvite(t, r, b.ID, "user-1", time.Now().Add(time.Hour))

	got, err := r.Invites.FindByToken(context.Background(), inv.Token)
	if err != nil {
		t.Fatalf("FindByToken: %v", err)
	}
	if got == nil {
		t.Fatal("expected invite, got nil")
	}
	if got.InviterID != "user-1" || got.BattleID != b.ID || got.Status != model.InviteActive {
		t.Errorf("unexpected invite %+v", got)
	}
	if got.AcceptedAt != nil || got.InviteeID != nil {
		t.Errorf("new invite should have no acceptance fields, got %+v", got)
	}
}

func testInviteNotFound(t *testing.T, r Repos) {
	got, err := r.Invites.FindByToken(context.Background(), "no-such-token")
	if err != nil {
		t.Fatalf("FindByToken: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing invite, got %+v", got)
	}
}

func testAcceptActiveOnce(t *testing.T, r Repos) {
	b := mustCreateBattle(t, r, "user-1")
	inv := mustCreateInvite(t, r, b.ID, "user-1", time.Now().Add(time.Hour))

	invitee := "user-2"
	won, err := r.Invites.AcceptActive(context.Background(), inv.Token, &invitee, time.Now())
	if err != nil {
		t.Fatalf("AcceptActive: %v", err)
	}
	if !won {
		t.Fatal("first acceptance should win")
	}

	won, err = r.Invites.AcceptActive(context.Background(), inv.Token, &invitee, time.Now())
	if err != nil {
		t.Fatalf("AcceptActive second: %v", err)
	}
	if won {
		t.Error("second acceptance should lose")
	}

	got, err := r.Invites.FindByToken(context.Background(), inv.Token)
	if err != nil {
		t.Fatalf("FindByToken: %v", err)
	}
	if got.Status != model.InviteAccepted {
		t.Errorf("expected ACCEPTED, got %s", got.Status)
	}
	if got.AcceptedAt == nil {
		t.Error("expected accepted_at to be set")
	}
	if got.InviteeID == nil || *got.InviteeID != "user-2" {
		t.Errorf("expected invitee user-2, got %v", got.InviteeID)
	}
}

func testAcceptActiveGuest(t *testing.T, r Repos) {
	b := mustCreateBattle(t, r, "user-1")
	inv := mustCreateInvite(t, r, b.ID, "user-1", time.Now().Add(time.Hour))

	won, err := r.Invites.AcceptActive(context.Background(), inv.Token, nil, time.Now())
	if err != nil {
		t.Fatalf("AcceptActive: %v", err)
	}
	if !won {
		t.Fatal("guest acceptance should win")
	}

	got, _ := r.Invites.FindByToken(context.Background(), inv.Token)
	if got.Status != model.InviteAccepted {
		t.Errorf("expected ACCEPTED, got %s", got.Status)
	}
	if got.InviteeID != nil {
		t.Errorf("guest acceptance should leave invitee nil, got %v", *got.InviteeID)
	}
}

func testAcceptActiveConcurrent(t *testing.T, r Repos) {
	b := mustCreateBattle(t, r, "user-1")
	inv := mustCreateInvite(t, r, b.ID, "user-1", time.Now().Add(time.Hour))

	const n = 16
	var wg sync.WaitGroup
	wins := make(chan bool, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			invitee := uuid.NewString()
			won, err := r.Invites.AcceptActive(context.Background(), inv.Token, &invitee, time.Now())
			if err != nil {
				t.Errorf("AcceptActive: %v", err)
				return
			}
			wins <- won
		}(i)
	}
	wg.Wait()
	close(wins)

	winners := 0
	for won := range wins {
		if won {
			winners++
		}
	}
	if winners != 1 {
		t.Errorf("expected exactly 1 winner out of %d concurrent accepts, got %d", n, winners)
	}
}

func testMarkExpired(t *testing.T, r Repos) {
	b := mustCreateBattle(t, r, "user-1")
	active := mustCreateInvite(t, r, b.ID, "user-1", time.Now().Add(time.Hour))

	if err := r.Invites.MarkExpired(context.Background(), active.Token); err != nil {
		t.Fatalf("MarkExpired: %v", err)
	}
	got, _ := r.Invites.FindByToken(context.Background(), active.Token)
	if got.Status != model.InviteExpired {
		t.Errorf("expected EXPIRED, got %s", got.Status)
	}

	// An accepted invite is never flipped back.
	b2 := mustCreateBattle(t, r, "user-1")
	accepted := mustCreateInvite(t, r, b2.ID, "user-1", time.Now().Add(time.Hour))
	invitee := "user-2"
	if _, err := r.Invites.AcceptActive(context.Background(), accepted.Token, &invitee, time.Now()); err != nil {
		t.Fatalf("AcceptActive: %v", err)
	}
	if err := r.Invites.MarkExpired(context.Background(), accepted.Token); err != nil {
		t.Fatalf("MarkExpired accepted: %v", err)
	}
	got, _ = r.Invites.FindByToken(context.Background(), accepted.Token)
	if got.Status != model.InviteAccepted {
		t.Errorf("MarkExpired must not touch ACCEPTED invites, got %s", got.Status)
	}
}

func testExpireOverdue(t *testing.T, r Repos) {
	b1 := mustCreateBattle(t, r, "user-1")
	b2 := mustCreateBattle(t, r, "user-1")
	overdue := mustCreateInvite(t, r, b1.ID, "user-1", time.Now().Add(-time.Hour))
	fresh := mustCreateInvite(t, r, b2.ID, "user-1", time.Now().Add(time.Hour))

	n, err := r.Invites.ExpireOverdue(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("ExpireOverdue: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 expired invite, got %d", n)
	}

	got, _ := r.Invites.FindByToken(context.Background(), overdue.Token)
	if got.Status != model.InviteExpired {
		t.Errorf("overdue invite should be EXPIRED, got %s", got.Status)
	}
	got, _ = r.Invites.FindByToken(context.Background(), fresh.Token)
	if got.Status != model.InviteActive {
		t.Errorf("fresh invite should stay ACTIVE, got %s", got.Status)
	}
}

func testBattleLifecycle(t *testing.T, r Repos) {
	ctx := context.Background()
	b := mustCreateBattle(t, r, "user-1")

	if b.Status != model.BattleWaiting {
		t.Errorf("new battle should be WAITING, got %s", b.Status)
	}
	if b.Player1Ready || b.Player2Ready || b.Player2ID != nil {
		t.Errorf("new battle has unexpected fields %+v", b)
	}

	player2 := "user-2"
	if err := r.Battles.JoinAsPlayer2(ctx, b.ID, &player2, false); err != nil {
		t.Fatalf("JoinAsPlayer2: %v", err)
	}
	got, err := r.Battles.FindByID(ctx, b.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.Status != model.BattleReady {
		t.Errorf("joined battle should be READY, got %s", got.Status)
	}
	if got.Player2ID == nil || *got.Player2ID != "user-2" || got.Player2IsGuest {
		t.Errorf("unexpected player2 fields %+v", got)
	}

	if err := r.Battles.SetReady(ctx, b.ID, repository.SidePlayer1); err != nil {
		t.Fatalf("SetReady player1: %v", err)
	}
	if err := r.Battles.SetReady(ctx, b.ID, repository.SidePlayer2); err != nil {
		t.Fatalf("SetReady player2: %v", err)
	}
	got, _ = r.Battles.FindByID(ctx, b.ID)
	if !got.Player1Ready || !got.Player2Ready {
		t.Errorf("both ready flags should be set, got %+v", got)
	}

	startedAt := time.Now()
	if err := r.Battles.SetStarted(ctx, b.ID, startedAt); err != nil {
		t.Fatalf("SetStarted: %v", err)
	}
	got, _ = r.Battles.FindByID(ctx, b.ID)
	if got.Status != model.BattleInProgress {
		t.Errorf("started battle should be IN_PROGRESS, got %s", got.Status)
	}
	if got.StartedAt == nil {
		t.Error("started_at should be set")
	}
}

func testBattleNotFound(t *testing.T, r Repos) {
	got, err := r.Battles.FindByID(context.Background(), uuid.NewString())
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing battle, got %+v", got)
	}
}

// inProgressBattle drives a fresh battle to IN_PROGRESS.
func inProgressBattle(t *testing.T, r Repos, player1, player2 string) *model.Battle {
	t.Helper()
	ctx := context.Background()
	b := mustCreateBattle(t, r, player1)
	if err := r.Battles.JoinAsPlayer2(ctx, b.ID, &player2, false); err != nil {
		t.Fatalf("JoinAsPlayer2: %v", err)
	}
	if err := r.Battles.SetStarted(ctx, b.ID, time.Now()); err != nil {
		t.Fatalf("SetStarted: %v", err)
	}
	return b
}

func testCompleteInProgressOnce(t *testing.T, r Repos) {
	ctx := context.Background()
	b := inProgressBattle(t, r, "user-1", "user-2")

	winner := "user-2"
	won, err := r.Battles.CompleteInProgress(ctx, b.ID, &winner, repository.SidePlayer2, time.Now())
	if err != nil {
		t.Fatalf("CompleteInProgress: %v", err)
	}
	if !won {
		t.Fatal("first completion should win")
	}

	loser := "user-1"
	won, err = r.Battles.CompleteInProgress(ctx, b.ID, &loser, repository.SidePlayer1, time.Now())
	if err != nil {
		t.Fatalf("CompleteInProgress second: %v", err)
	}
	if won {
		t.Error("second completion should lose")
	}

	got, _ := r.Battles.FindByID(ctx, b.ID)
	if got.Status != model.BattleCompleted {
		t.Errorf("expected COMPLETED, got %s", got.Status)
	}
	if got.WinnerID == nil || *got.WinnerID != "user-2" {
		t.Errorf("losing completion must not overwrite winner, got %v", got.WinnerID)
	}
	if got.CompletedAt == nil || got.Player2CompletedAt == nil {
		t.Errorf("winner-side completion timestamps missing: %+v", got)
	}
	if got.Player1CompletedAt != nil {
		t.Error("losing side must not record a completion timestamp")
	}
}

func testCompleteInProgressConcurrent(t *testing.T, r Repos) {
	b := inProgressBattle(t, r, "user-1", "user-2")

	var wg sync.WaitGroup
	wins := make(chan string, 2)
	for _, c := range []struct {
		userID string
		side   string
	}{
		{"user-1", repository.SidePlayer1},
		{"user-2", repository.SidePlayer2},
	} {
		wg.Add(1)
		go func(userID, side string) {
			defer wg.Done()
			id := userID
			won, err := r.Battles.CompleteInProgress(context.Background(), b.ID, &id, side, time.Now())
			if err != nil {
				t.Errorf("CompleteInProgress: %v", err)
				return
			}
			if won {
				wins <- userID
			}
		}(c.userID, c.side)
	}
	wg.Wait()
	close(wins)

	var winners []string
	for w := range wins {
		winners = append(winners, w)
	}
	if len(winners) != 1 {
		t.Fatalf("expected exactly 1 completion winner, got %d", len(winners))
	}

	got, _ := r.Battles.FindByID(context.Background(), b.ID)
	if got.WinnerID == nil || *got.WinnerID != winners[0] {
		t.Errorf("stored winner %v does not match race winner %s", got.WinnerID, winners[0])
	}
}

func testDeleteBattle(t *testing.T, r Repos) {
	ctx := context.Background()
	b := mustCreateBattle(t, r, "user-1")
	if err := r.Battles.Delete(ctx, b.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	got, err := r.Battles.FindByID(ctx, b.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got != nil {
		t.Errorf("deleted battle still present: %+v", got)
	}
}

func testDeleteStaleWaiting(t *testing.T, r Repos) {
	ctx := context.Background()
	waiting := mustCreateBattle(t, r, "user-1")
	ready := mustCreateBattle(t, r, "user-1")
	player2 := "user-2"
	if err := r.Battles.JoinAsPlayer2(ctx, ready.ID, &player2, false); err != nil {
		t.Fatalf("JoinAsPlayer2: %v", err)
	}

	// A cutoff in the past removes nothing.
	n, err := r.Battles.DeleteStaleWaiting(ctx, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("DeleteStaleWaiting: %v", err)
	}
	if n != 0 {
		t.Errorf("expected no deletions with past cutoff, got %d", n)
	}

	// A cutoff in the future sweeps WAITING battles but never READY ones.
	n, err = r.Battles.DeleteStaleWaiting(ctx, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("DeleteStaleWaiting: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 deletion, got %d", n)
	}
	if got, _ := r.Battles.FindByID(ctx, waiting.ID); got != nil {
		t.Error("stale WAITING battle should be deleted")
	}
	if got, _ := r.Battles.FindByID(ctx, ready.ID); got == nil {
		t.Error("READY battle must never be purged")
	}
}

func testStatsRoundtrip(t *testing.T, r Repos) {
	ctx := context.Background()

	got, err := r.Stats.Find(ctx, "user-1")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing stats, got %+v", got)
	}

	st := &model.Stats{UserID: "user-1", DisplayName: "Alice"}
	if err := r.Stats.Create(ctx, st); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err = r.Stats.Find(ctx, "user-1")
	if err != nil {
		t.Fatalf("Find after create: %v", err)
	}
	if got == nil || got.DisplayName != "Alice" || got.NumBattleGames != 0 {
		t.Fatalf("unexpected stats %+v", got)
	}

	got.NumBattleGames = 3
	got.NumWinsBattle = 2
	got.FastestBattleTime = 91
	now := time.Now()
	got.LastSeenBattle = &now
	if err := r.Stats.Update(ctx, got); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, _ = r.Stats.Find(ctx, "user-1")
	if got.NumBattleGames != 3 || got.NumWinsBattle != 2 || got.FastestBattleTime != 91 {
		t.Errorf("update not persisted: %+v", got)
	}
	if got.LastSeenBattle == nil {
		t.Error("dt_last_seen_battle should be set")
	}
}

func testStatsUpdateMissing(t *testing.T, r Repos) {
	err := r.Stats.Update(context.Background(), &model.Stats{UserID: "ghost"})
	if err == nil {
		t.Error("updating a missing stats row should fail")
	}
}

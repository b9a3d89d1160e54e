package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/crosswars/api/internal/model"
)

func TestCreateUserStats(t *testing.T) {
	store := newTestStore()
	svc := NewStatsService(store.Stats())

	st, existed, err := svc.CreateUserStats(context.Background(), "user-1", "Alice")
	if err != nil {
		t.Fatalf("CreateUserStats: %v", err)
	}
	if existed {
		t.Error("first create should not report existing")
	}
	if st.UserID != "user-1" || st.DisplayName != "Alice" {
		t.Errorf("unexpected stats %+v", st)
	}

	// Creating again returns the existing row untouched.
	st.NumSoloGames = 5
	if err := store.Stats().Update(context.Background(), st); err != nil {
		t.Fatalf("Update: %v", err)
	}
	again, existed, err := svc.CreateUserStats(context.Background(), "user-1", "Renamed")
	if err != nil {
		t.Fatalf("second CreateUserStats: %v", err)
	}
	if !existed {
		t.Error("second create should report existing")
	}
	if again.DisplayName != "Alice" || again.NumSoloGames != 5 {
		t.Errorf("existing row should be returned as-is, got %+v", again)
	}
}

func TestGetUserStatsMissing(t *testing.T) {
	store := newTestStore()
	svc := NewStatsService(store.Stats())

	st, err := svc.GetUserStats(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("GetUserStats: %v", err)
	}
	if st != nil {
		t.Errorf("expected nil for missing stats, got %+v", st)
	}
}

func TestGetUserStatsLazyStreakReset(t *testing.T) {
	store := newTestStore()
	svc := NewStatsService(store.Stats())

	threeDaysAgo := time.Now().AddDate(0, 0, -3)
	seed := &model.Stats{UserID: "user-1", StreakCountSolo: 7, LastSeenSolo: &threeDaysAgo}
	if err := store.Stats().Create(context.Background(), seed); err != nil {
		t.Fatalf("Create: %v", err)
	}

	st, err := svc.GetUserStats(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("GetUserStats: %v", err)
	}
	if st.StreakCountSolo != 0 {
		t.Errorf("stale streak should be reset to 0, got %d", st.StreakCountSolo)
	}

	// The reset is persisted, not just returned.
	persisted, _ := store.Stats().Find(context.Background(), "user-1")
	if persisted.StreakCountSolo != 0 {
		t.Errorf("streak reset not persisted, got %d", persisted.StreakCountSolo)
	}
}

func TestGetUserStatsStreakSurvivesYesterday(t *testing.T) {
	store := newTestStore()
	svc := NewStatsService(store.Stats())

	yesterday := time.Now().AddDate(0, 0, -1)
	seed := &model.Stats{UserID: "user-1", StreakCountSolo: 4, LastSeenSolo: &yesterday}
	if err := store.Stats().Create(context.Background(), seed); err != nil {
		t.Fatalf("Create: %v", err)
	}

	st, err := svc.GetUserStats(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("GetUserStats: %v", err)
	}
	if st.StreakCountSolo != 4 {
		t.Errorf("yesterday's streak should survive, got %d", st.StreakCountSolo)
	}
}

func TestUpdateUserStatsMissing(t *testing.T) {
	store := newTestStore()
	svc := NewStatsService(store.Stats())

	_, err := svc.UpdateUserStats(context.Background(), "nobody", UserStatsUpdate{NumSoloGames: 1})
	if !errors.Is(err, ErrStatsNotFound) {
		t.Errorf("expected ErrStatsNotFound, got %v", err)
	}
}

func TestUpdateUserStatsStreak(t *testing.T) {
	day := func(offset int) *time.Time {
		d := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
		return &d
	}

	tests := []struct {
		name       string
		lastSeen   *time.Time
		streak     int
		playedAt   *time.Time
		wantStreak int
	}{
		{"first play starts streak", nil, 0, day(0), 1},
		{"consecutive day increments", day(0), 3, day(1), 4},
		{"same day unchanged", day(0), 3, day(0), 3},
		{"gap resets to one", day(0), 9, day(4), 1},
		{"no play date leaves streak alone", day(0), 3, nil, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore()
			svc := NewStatsService(store.Stats())

			seed := &model.Stats{UserID: "user-1", StreakCountSolo: tt.streak, LastSeenSolo: tt.lastSeen}
			if err := store.Stats().Create(context.Background(), seed); err != nil {
				t.Fatalf("Create: %v", err)
			}

			st, err := svc.UpdateUserStats(context.Background(), "user-1", UserStatsUpdate{
				NumSoloGames: 1,
				LastSeenSolo: tt.playedAt,
			})
			if err != nil {
				t.Fatalf("UpdateUserStats: %v", err)
			}
			if st.StreakCountSolo != tt.wantStreak {
				t.Errorf("streak = %d, want %d", st.StreakCountSolo, tt.wantStreak)
			}
			if tt.playedAt != nil && (st.LastSeenSolo == nil || !st.LastSeenSolo.Equal(*tt.playedAt)) {
				t.Errorf("last seen = %v, want %v", st.LastSeenSolo, tt.playedAt)
			}
		})
	}
}

func TestUpdateUserStatsCounters(t *testing.T) {
	store := newTestStore()
	svc := NewStatsService(store.Stats())

	seed := &model.Stats{UserID: "user-1", NumSoloGames: 10, NumCompleteSolo: 8, FastestSoloTime: 120}
	if err := store.Stats().Create(context.Background(), seed); err != nil {
		t.Fatalf("Create: %v", err)
	}

	st, err := svc.UpdateUserStats(context.Background(), "user-1", UserStatsUpdate{
		NumSoloGames:    1,
		NumCompleteSolo: 1,
		FastestSoloTime: 95,
	})
	if err != nil {
		t.Fatalf("UpdateUserStats: %v", err)
	}
	if st.NumSoloGames != 11 || st.NumCompleteSolo != 9 {
		t.Errorf("counters not incremented: %+v", st)
	}
	if st.FastestSoloTime != 95 {
		t.Errorf("faster time should win, got %d", st.FastestSoloTime)
	}

	// A slower time never regresses the record.
	st, err = svc.UpdateUserStats(context.Background(), "user-1", UserStatsUpdate{FastestSoloTime: 300})
	if err != nil {
		t.Fatalf("UpdateUserStats: %v", err)
	}
	if st.FastestSoloTime != 95 {
		t.Errorf("slower time must not overwrite record, got %d", st.FastestSoloTime)
	}
}

func TestUpdateBattleStats(t *testing.T) {
	store := newTestStore()
	svc := NewStatsService(store.Stats())

	winner := "user-1"
	for _, userID := range []string{"user-1", "user-2"} {
		seed := &model.Stats{UserID: userID, StreakCountBattle: 2}
		if err := store.Stats().Create(context.Background(), seed); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	upd := BattleStatsUpdate{WinnerID: &winner, FastestBattleTime: 87}

	won, err := svc.UpdateBattleStats(context.Background(), "user-1", upd)
	if err != nil {
		t.Fatalf("UpdateBattleStats winner: %v", err)
	}
	if won.NumBattleGames != 1 || won.NumWinsBattle != 1 {
		t.Errorf("winner counters wrong: %+v", won)
	}
	if won.StreakCountBattle != 3 {
		t.Errorf("winner streak should increment, got %d", won.StreakCountBattle)
	}
	if won.FastestBattleTime != 87 {
		t.Errorf("winner fastest time should record, got %d", won.FastestBattleTime)
	}
	if won.LastSeenBattle == nil {
		t.Error("winner last seen should be set")
	}

	lost, err := svc.UpdateBattleStats(context.Background(), "user-2", upd)
	if err != nil {
		t.Fatalf("UpdateBattleStats loser: %v", err)
	}
	if lost.NumBattleGames != 1 || lost.NumWinsBattle != 0 {
		t.Errorf("loser counters wrong: %+v", lost)
	}
	if lost.StreakCountBattle != 0 {
		t.Errorf("loser streak should reset, got %d", lost.StreakCountBattle)
	}
	if lost.FastestBattleTime != 0 {
		t.Errorf("loser gets no fastest-time candidate, got %d", lost.FastestBattleTime)
	}
}

func TestRecordBattleOutcome(t *testing.T) {
	store := newTestStore()
	svc := NewStatsService(store.Stats())

	for _, userID := range []string{"user-1", "user-2"} {
		if err := store.Stats().Create(context.Background(), &model.Stats{UserID: userID}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	started := time.Now().Add(-90 * time.Second)
	completed := time.Now()
	winner := "user-2"
	player2 := "user-2"
	b := &model.Battle{
		ID:          "battle-1",
		Player1ID:   "user-1",
		Player2ID:   &player2,
		Status:      model.BattleCompleted,
		StartedAt:   &started,
		CompletedAt: &completed,
		WinnerID:    &winner,
	}

	if err := svc.RecordBattleOutcome(context.Background(), b); err != nil {
		t.Fatalf("RecordBattleOutcome: %v", err)
	}

	won, _ := store.Stats().Find(context.Background(), "user-2")
	if won.NumWinsBattle != 1 || won.NumBattleGames != 1 {
		t.Errorf("winner stats wrong: %+v", won)
	}
	if won.FastestBattleTime != 90 {
		t.Errorf("expected 90s battle time, got %d", won.FastestBattleTime)
	}

	lost, _ := store.Stats().Find(context.Background(), "user-1")
	if lost.NumWinsBattle != 0 || lost.NumBattleGames != 1 {
		t.Errorf("loser stats wrong: %+v", lost)
	}
}

func TestRecordBattleOutcomeSkipsMissingRows(t *testing.T) {
	store := newTestStore()
	svc := NewStatsService(store.Stats())

	// Only player1 has a stats row.
	if err := store.Stats().Create(context.Background(), &model.Stats{UserID: "user-1"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	player2 := "user-2"
	winner := "user-1"
	b := &model.Battle{ID: "battle-1", Player1ID: "user-1", Player2ID: &player2, WinnerID: &winner}

	if err := svc.RecordBattleOutcome(context.Background(), b); err != nil {
		t.Fatalf("missing participant row should be skipped, got %v", err)
	}

	st, _ := store.Stats().Find(context.Background(), "user-1")
	if st.NumBattleGames != 1 || st.NumWinsBattle != 1 {
		t.Errorf("present participant should still be updated: %+v", st)
	}
}

func TestRecordBattleOutcomeGuestBattle(t *testing.T) {
	store := newTestStore()
	svc := NewStatsService(store.Stats())

	if err := store.Stats().Create(context.Background(), &model.Stats{UserID: "user-1"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Guest battles have no player2 ID; only player1 gets an update.
	b := &model.Battle{ID: "battle-1", Player1ID: "user-1", Player2IsGuest: true}
	if err := svc.RecordBattleOutcome(context.Background(), b); err != nil {
		t.Fatalf("RecordBattleOutcome: %v", err)
	}

	st, _ := store.Stats().Find(context.Background(), "user-1")
	if st.NumBattleGames != 1 {
		t.Errorf("player1 should record the game, got %+v", st)
	}
	if st.NumWinsBattle != 0 || st.StreakCountBattle != 0 {
		t.Errorf("a guest win counts as a loss for player1: %+v", st)
	}
}

func TestBetterTime(t *testing.T) {
	tests := []struct {
		old, candidate, want int
	}{
		{0, 100, 100},
		{100, 0, 100},
		{100, 50, 50},
		{50, 100, 50},
		{0, 0, 0},
		{100, -5, 100},
	}
	for _, tt := range tests {
		if got := betterTime(tt.old, tt.candidate); got != tt.want {
			t.Errorf("betterTime(%d, %d) = %d, want %d", tt.old, tt.candidate, got, tt.want)
		}
	}
}

func TestDaysBetween(t *testing.T) {
	base := time.Date(2026, 8, 27, 23, 59, 0, 0, time.UTC)
	tests := []struct {
		from, to time.Time
		want     int
	}{
		{base, base, 0},
		// Minutes apart but across midnight counts as a day.
		{base, base.Add(2 * time.Minute), 1},
		{base, base.AddDate(0, 0, 3), 3},
	}
	for _, tt := range tests {
		if got := daysBetween(tt.from, tt.to); got != tt.want {
			t.Errorf("daysBetween(%v, %v) = %d, want %d", tt.from, tt.to, got, tt.want)
		}
	}
}

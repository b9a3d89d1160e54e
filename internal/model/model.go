package model

import "time"

// Invite statuses.
const (
	InviteActive   = "ACTIVE"
	InviteAccepted = "ACCEPTED"
	InviteExpired  = "EXPIRED"
)

// Battle statuses.
const (
	BattleWaiting    = "WAITING"
	BattleReady      = "READY"
	BattleInProgress = "IN_PROGRESS"
	BattleCompleted  = "COMPLETED"
)

// Invite is a single-use, expiring token binding one inviter to one
// pending battle. It transitions ACTIVE -> ACCEPTED at most once; that
// transition is the sole authority that also moves the bound battle
// from WAITING to READY.
type Invite struct {
	Token      string     `json:"invite_token"`
	InviterID  string     `json:"inviter_id"`
	BattleID   string     `json:"battle_id"`
	Status     string     `json:"status"`
	ExpiresAt  time.Time  `json:"expires_at"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`
	InviteeID  *string    `json:"invitee_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Battle is a two-party game session with a linear lifecycle
// WAITING -> READY -> IN_PROGRESS -> COMPLETED.
//
// Player2IsGuest marks battles joined anonymously. A guest caller is
// indistinguishable from any other guest browser session and is always
// treated as acting for player2; guest-vs-guest battles are therefore
// inherently unsafe against impersonation and unsupported.
type Battle struct {
	ID                 string     `json:"id"`
	Player1ID          string     `json:"player1_id"`
	Player2ID          *string    `json:"player2_id,omitempty"`
	Player2IsGuest     bool       `json:"player2_is_guest"`
	Status             string     `json:"status"`
	PuzzleDate         string     `json:"puzzle_date"`
	Player1Ready       bool       `json:"player1_ready"`
	Player2Ready       bool       `json:"player2_ready"`
	StartedAt          *time.Time `json:"started_at,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	WinnerID           *string    `json:"winner_id,omitempty"` // nil while unset and for guest winners
	Player1CompletedAt *time.Time `json:"player1_completed_at,omitempty"`
	Player2CompletedAt *time.Time `json:"player2_completed_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

// Stats holds per-user counters for solo and battle play.
type Stats struct {
	UserID            string     `json:"user_id"`
	DisplayName       string     `json:"display_name"`
	NumSoloGames      int        `json:"num_solo_games"`
	NumBattleGames    int        `json:"num_battle_games"`
	NumCompleteSolo   int        `json:"num_complete_solo"`
	NumWinsBattle     int        `json:"num_wins_battle"`
	FastestSoloTime   int        `json:"fastest_solo_time"`   // seconds, 0 = unset
	FastestBattleTime int        `json:"fastest_battle_time"` // seconds, 0 = unset
	StreakCountSolo   int        `json:"streak_count_solo"`
	StreakCountBattle int        `json:"streak_count_battle"`
	LastSeenSolo      *time.Time `json:"dt_last_seen_solo,omitempty"`
	LastSeenBattle    *time.Time `json:"dt_last_seen_battle,omitempty"`
}

// Clue is one placed word with its clue text.
type Clue struct {
	Answer string `json:"answer"`
	Clue   string `json:"clue"`
	Row    int    `json:"row"`
	Col    int    `json:"col"`
	Across bool   `json:"across"`
	Number int    `json:"number"`
}

// Puzzle is a generated themed crossword.
type Puzzle struct {
	Theme       string     `json:"theme"`
	Grid        [][]string `json:"grid"` // "-" marks an empty cell
	Clues       []Clue     `json:"clues"`
	GeneratedAt time.Time  `json:"generated_at"`
}

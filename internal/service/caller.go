package service

// Caller identifies who is invoking a battle or invite operation: a
// registered user (stable ID) or an anonymous guest. There is no way to
// distinguish which guest browser session is calling; a guest caller is
// always treated as acting for player2 of a guest battle.
type Caller struct {
	UserID string
	Guest  bool
}

// Registered builds a Caller for a registered user.
func Registered(userID string) Caller {
	return Caller{UserID: userID}
}

// Guest is the anonymous caller.
var GuestCaller = Caller{Guest: true}

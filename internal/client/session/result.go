package session

import "fmt"

const (
	msgSynced       = "Data synced"
	msgSavedLocally = "Data saved locally (offline mode)"
)

// LoginResult is the outcome of Login or Register. NeedsRegistration is
// not an error: it signals that no record exists anywhere for the
// username and the caller should offer registration.
type LoginResult struct {
	NeedsRegistration bool
	Offline           bool
	Message           string
}

// SaveResult reports how an UpdateLists call was persisted. Synced means
// local and remote both succeeded; otherwise the write is local-only and
// the data is not cross-device yet.
type SaveResult struct {
	Synced  bool
	Message string
}

func welcomeBack(name string, offline bool) string {
	if offline {
		return fmt.Sprintf("Welcome back, %s! (offline mode)", name)
	}
	return fmt.Sprintf("Welcome back, %s!", name)
}

func welcomeNew(name string, offline bool) string {
	if offline {
		return fmt.Sprintf("Account created successfully! Welcome to myLIST, %s! (offline mode)", name)
	}
	return fmt.Sprintf("Account created successfully! Welcome to myLIST, %s!", name)
}

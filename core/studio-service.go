package core

import "Easel/storage"

// Hint tells the view which corrective action to surface after a failed
// generation attempt.
type Hint int

const (
	// HintNone means no corrective action beyond showing the status.
	HintNone Hint = iota
	// HintManualKey means the user's manual key needs attention: point them
	// at the key input.
	HintManualKey
)

// Outcome is the result of one generation attempt. Reason is nil on success;
// otherwise it wraps one of the sentinel errors from errors.go. Status is
// always ready to show to the user as-is.
type Outcome struct {
	Entry  *storage.HistoryEntry
	Status string
	Reason error
	Hint   Hint
}

type StudioService interface {
	Generate(userId int64, prompt string) *Outcome
	SetSize(userId int64, tier string) (string, error)
	SetRatio(userId int64, ratio string) (string, error)
	SetManualKey(userId int64, key string)
	SetUseManualKey(userId int64, enabled bool)
	Settings(userId int64) *storage.Settings
	History(userId int64) []storage.HistoryEntry
	Last(userId int64) *storage.HistoryEntry
	ClearHistory(userId int64)
	Close() error
}

// KeySelector is an external capability that lets the user pick or authorize
// a credential. It may be absent; the orchestrator reports that instead of
// failing silently.
type KeySelector interface {
	SelectKey(userId int64)
}

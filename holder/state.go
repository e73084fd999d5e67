package holder

import (
	"Easel/storage"
	"log"
)

// HistoryEntry is an alias for storage.HistoryEntry for convenience
type HistoryEntry = storage.HistoryEntry

// Settings is an alias for storage.Settings for convenience
type Settings = storage.Settings

// StateManager sits between the orchestrator and the storage backend.
// History and settings are non-critical: every storage failure is logged and
// degraded to empty or default state, never returned to the caller.
type StateManager struct {
	storage storage.StudioStorage
}

func NewStateManager(store storage.StudioStorage) *StateManager {
	return &StateManager{
		storage: store,
	}
}

// History returns the stored sequence, oldest first. Errors degrade to an
// empty history.
func (sm *StateManager) History(userId int64) []HistoryEntry {
	entries, err := sm.storage.GetHistory(userId)
	if err != nil {
		log.Printf("error loading history: %v", err)
		return nil
	}
	return entries
}

// AppendHistory appends one entry and persists the whole sequence.
func (sm *StateManager) AppendHistory(userId int64, entry HistoryEntry) {
	entries := sm.History(userId)
	entries = append(entries, entry)
	if err := sm.storage.SaveHistory(userId, entries); err != nil {
		log.Printf("error saving history: %v", err)
	}
}

func (sm *StateManager) ClearHistory(userId int64) {
	if err := sm.storage.SaveHistory(userId, []HistoryEntry{}); err != nil {
		log.Printf("error clearing history: %v", err)
	}
}

// Settings returns the stored settings or defaults for a new user.
func (sm *StateManager) Settings(userId int64) *Settings {
	settings, err := sm.storage.GetSettings(userId)
	if err != nil {
		log.Printf("error loading settings: %v", err)
	}
	if settings == nil {
		return &Settings{
			UserId: userId,
			Size:   "medium",
			Ratio:  "square",
		}
	}
	if settings.Size == "" {
		settings.Size = "medium"
	}
	if settings.Ratio == "" {
		settings.Ratio = "square"
	}
	return settings
}

// SaveSettings persists settings write-through, no batching.
func (sm *StateManager) SaveSettings(settings *Settings) {
	if err := sm.storage.SaveSettings(settings); err != nil {
		log.Printf("error saving settings: %v", err)
	}
}

func (sm *StateManager) Close() error {
	return sm.storage.Close()
}

package holder

import (
	"Easel/storage"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// brokenStorage fails every operation; the state manager must degrade to
// defaults instead of surfacing these errors.
type brokenStorage struct{}

func (b *brokenStorage) GetHistory(userId int64) ([]storage.HistoryEntry, error) {
	return nil, errors.New("disk on fire")
}

func (b *brokenStorage) SaveHistory(userId int64, entries []storage.HistoryEntry) error {
	return errors.New("disk on fire")
}

func (b *brokenStorage) GetSettings(userId int64) (*storage.Settings, error) {
	return nil, errors.New("disk on fire")
}

func (b *brokenStorage) SaveSettings(settings *storage.Settings) error {
	return errors.New("disk on fire")
}

func (b *brokenStorage) Close() error {
	return nil
}

func TestStateManager_DegradesOnStorageFailure(t *testing.T) {
	sm := NewStateManager(&brokenStorage{})

	assert.Empty(t, sm.History(9), "a failing store reads as empty history")

	settings := sm.Settings(9)
	require.NotNil(t, settings)
	assert.Equal(t, int64(9), settings.UserId)
	assert.Equal(t, "medium", settings.Size)
	assert.Equal(t, "square", settings.Ratio)
	assert.False(t, settings.UseManualKey)

	// None of these may panic or return an error to the caller.
	sm.AppendHistory(9, HistoryEntry{Prompt: "lost"})
	sm.ClearHistory(9)
	sm.SaveSettings(settings)
}

func TestStateManager_AppendPersistsWholeSequence(t *testing.T) {
	store := storage.NewMemoryStorage()
	sm := NewStateManager(store)

	sm.AppendHistory(3, HistoryEntry{Prompt: "one", CreatedAt: time.Now()})
	sm.AppendHistory(3, HistoryEntry{Prompt: "two", CreatedAt: time.Now()})

	persisted, err := store.GetHistory(3)
	require.NoError(t, err)
	require.Len(t, persisted, 2)
	assert.Equal(t, "one", persisted[0].Prompt)
	assert.Equal(t, "two", persisted[1].Prompt)

	sm.ClearHistory(3)
	persisted, err = store.GetHistory(3)
	require.NoError(t, err)
	assert.Empty(t, persisted)
}

func TestStateManager_DefaultsFillMissingFields(t *testing.T) {
	store := storage.NewMemoryStorage()
	sm := NewStateManager(store)

	sm.SaveSettings(&Settings{UserId: 5, ManualKey: "k"})

	settings := sm.Settings(5)
	assert.Equal(t, "k", settings.ManualKey)
	assert.Equal(t, "medium", settings.Size, "missing size falls back to default")
	assert.Equal(t, "square", settings.Ratio)
}

package storage

import (
	"sync"
	"time"
)

type MemoryStorage struct {
	settings map[int64]*Settings
	history  map[int64][]HistoryEntry
	mutex    sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		settings: make(map[int64]*Settings),
		history:  make(map[int64][]HistoryEntry),
	}
}

func (m *MemoryStorage) GetHistory(userId int64) ([]HistoryEntry, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	entries, ok := m.history[userId]
	if !ok {
		return nil, nil
	}
	// Return a copy to prevent external mutation
	cc := make([]HistoryEntry, len(entries))
	copy(cc, entries)
	return cc, nil
}

func (m *MemoryStorage) SaveHistory(userId int64, entries []HistoryEntry) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	cc := make([]HistoryEntry, len(entries))
	copy(cc, entries)
	m.history[userId] = cc
	return nil
}

func (m *MemoryStorage) GetSettings(userId int64) (*Settings, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if s, ok := m.settings[userId]; ok {
		cc := *s
		return &cc, nil
	}
	return nil, nil
}

func (m *MemoryStorage) SaveSettings(settings *Settings) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	settings.UpdatedAt = time.Now()
	cc := *settings
	m.settings[settings.UserId] = &cc
	return nil
}

func (m *MemoryStorage) Close() error {
	return nil
}

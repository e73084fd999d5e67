package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"
)

// fileData is the on-disk layout: one JSON document holding everything.
// User ids are encoded as strings because JSON object keys are strings.
type fileData struct {
	Settings map[string]*Settings      `json:"settings"`
	History  map[string][]HistoryEntry `json:"history"`
}

// FileStorage keeps all state in a single JSON file, rewritten on every
// mutation. It is the default durable store for a single-user installation.
type FileStorage struct {
	path  string
	log   *slog.Logger
	data  fileData
	mutex sync.Mutex
}

func NewFileStorage(path string, log *slog.Logger) (*FileStorage, error) {
	fs := &FileStorage{
		path: path,
		log:  log,
		data: fileData{
			Settings: make(map[string]*Settings),
			History:  make(map[string][]HistoryEntry),
		},
	}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return fs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := json.Unmarshal(raw, &fs.data); err != nil {
		// A corrupt file degrades to empty state rather than blocking startup.
		log.Warn("data file is not valid JSON, starting empty",
			slog.String("path", path),
			slog.String("error", err.Error()))
		fs.data.Settings = make(map[string]*Settings)
		fs.data.History = make(map[string][]HistoryEntry)
	}
	if fs.data.Settings == nil {
		fs.data.Settings = make(map[string]*Settings)
	}
	if fs.data.History == nil {
		fs.data.History = make(map[string][]HistoryEntry)
	}
	return fs, nil
}

func (f *FileStorage) GetHistory(userId int64) ([]HistoryEntry, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	entries, ok := f.data.History[key(userId)]
	if !ok {
		return nil, nil
	}
	cc := make([]HistoryEntry, len(entries))
	copy(cc, entries)
	return cc, nil
}

func (f *FileStorage) SaveHistory(userId int64, entries []HistoryEntry) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	cc := make([]HistoryEntry, len(entries))
	copy(cc, entries)
	f.data.History[key(userId)] = cc
	return f.flush()
}

func (f *FileStorage) GetSettings(userId int64) (*Settings, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if s, ok := f.data.Settings[key(userId)]; ok {
		cc := *s
		return &cc, nil
	}
	return nil, nil
}

func (f *FileStorage) SaveSettings(settings *Settings) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	settings.UpdatedAt = time.Now()
	cc := *settings
	f.data.Settings[key(settings.UserId)] = &cc
	return f.flush()
}

func (f *FileStorage) Close() error {
	return nil
}

// flush rewrites the whole file. Caller must hold the mutex.
func (f *FileStorage) flush() error {
	raw, err := json.Marshal(&f.data)
	if err != nil {
		return fmt.Errorf("encoding data file: %w", err)
	}
	if err := os.WriteFile(f.path, raw, 0600); err != nil {
		return fmt.Errorf("writing %s: %w", f.path, err)
	}
	return nil
}

func key(userId int64) string {
	return strconv.FormatInt(userId, 10)
}

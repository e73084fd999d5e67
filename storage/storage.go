package storage

import "time"

// HistoryEntry is one past generation. Entries are immutable once appended;
// the stored sequence is insertion-ordered, oldest first.
type HistoryEntry struct {
	Prompt    string    `bson:"prompt" json:"prompt"`
	Image     string    `bson:"image" json:"image"` // base64-encoded image bytes
	MimeType  string    `bson:"mime_type" json:"mime_type"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// FileName derives a download file name from the entry's timestamp.
func (e *HistoryEntry) FileName() string {
	ext := "png"
	switch e.MimeType {
	case "image/jpeg":
		ext = "jpg"
	case "image/webp":
		ext = "webp"
	}
	return "easel-" + e.CreatedAt.Format("20060102-150405") + "." + ext
}

// Settings holds per-user state: the manual credential, whether it should be
// used instead of the ambient one, and the last selected rendering options.
type Settings struct {
	UserId       int64     `bson:"user_id" json:"user_id"`
	ManualKey    string    `bson:"manual_key" json:"manual_key"`
	UseManualKey bool      `bson:"use_manual_key" json:"use_manual_key"`
	Size         string    `bson:"size" json:"size"`
	Ratio        string    `bson:"ratio" json:"ratio"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updated_at"`
}

type StudioStorage interface {
	GetHistory(userId int64) ([]HistoryEntry, error)
	SaveHistory(userId int64, entries []HistoryEntry) error
	GetSettings(userId int64) (*Settings, error)
	SaveSettings(settings *Settings) error
	Close() error
}

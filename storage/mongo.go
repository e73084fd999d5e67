package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	settingsCollection = "studio_settings"
	historyCollection  = "studio_history"
)

// historyDoc wraps a user's whole history in one document so the sequence is
// replaced atomically on every save.
type historyDoc struct {
	UserId    int64          `bson:"user_id"`
	Entries   []HistoryEntry `bson:"entries"`
	UpdatedAt time.Time      `bson:"updated_at"`
}

type MongoStorage struct {
	client   *mongo.Client
	settings *mongo.Collection
	history  *mongo.Collection
	log      *slog.Logger
}

func NewMongoStorage(uri, database string, log *slog.Logger) (*MongoStorage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("pinging MongoDB: %w", err)
	}

	db := client.Database(database)
	m := &MongoStorage{
		client:   client,
		settings: db.Collection(settingsCollection),
		history:  db.Collection(historyCollection),
		log:      log,
	}

	// Index on user_id for faster lookups
	index := mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	for _, coll := range []*mongo.Collection{m.settings, m.history} {
		if _, err := coll.Indexes().CreateOne(ctx, index); err != nil {
			log.Warn("creating index",
				slog.String("collection", coll.Name()),
				slog.String("error", err.Error()))
		}
	}

	return m, nil
}

func (m *MongoStorage) GetHistory(userId int64) ([]HistoryEntry, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var doc historyDoc
	err := m.history.FindOne(ctx, bson.M{"user_id": userId}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding history: %w", err)
	}
	return doc.Entries, nil
}

func (m *MongoStorage) SaveHistory(userId int64, entries []HistoryEntry) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	doc := historyDoc{
		UserId:    userId,
		Entries:   entries,
		UpdatedAt: time.Now(),
	}
	opts := options.Replace().SetUpsert(true)
	_, err := m.history.ReplaceOne(ctx, bson.M{"user_id": userId}, &doc, opts)
	return err
}

func (m *MongoStorage) GetSettings(userId int64) (*Settings, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var settings Settings
	err := m.settings.FindOne(ctx, bson.M{"user_id": userId}).Decode(&settings)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding settings: %w", err)
	}
	return &settings, nil
}

func (m *MongoStorage) SaveSettings(settings *Settings) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	settings.UpdatedAt = time.Now()
	opts := options.Replace().SetUpsert(true)
	_, err := m.settings.ReplaceOne(ctx, bson.M{"user_id": settings.UserId}, settings, opts)
	return err
}

func (m *MongoStorage) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

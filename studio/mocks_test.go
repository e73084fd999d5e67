package studio

import (
	"Easel/ai"
	"Easel/core"
	"Easel/storage"
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
)

type mockClient struct {
	generateFunc func(ctx context.Context, apiKey string, req ai.Request) (*ai.Result, error)
	calls        atomic.Int32
	lastKey      string
}

func (m *mockClient) Generate(ctx context.Context, apiKey string, req ai.Request) (*ai.Result, error) {
	m.calls.Add(1)
	m.lastKey = apiKey
	if m.generateFunc != nil {
		return m.generateFunc(ctx, apiKey, req)
	}
	return okResult(), nil
}

type mockSelector struct {
	mutex sync.Mutex
	users []int64
}

func (m *mockSelector) SelectKey(userId int64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.users = append(m.users, userId)
}

func (m *mockSelector) count() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.users)
}

func okResult() *ai.Result {
	return &ai.Result{
		Images: []ai.Image{
			{Data: []byte("fake-png-bytes"), MimeType: "image/png"},
		},
	}
}

func testConfig() *core.Config {
	conf := &core.Config{}
	conf.GeminiApiKey = "ambient-key"
	conf.Model = "gemini-2.5-flash-image"
	return conf
}

func newTestStudio(t *testing.T, conf *core.Config, client ImageClient) *Studio {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewStudio(conf, log, storage.NewMemoryStorage(), client)
}

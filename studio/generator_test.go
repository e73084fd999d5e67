package studio

import (
	"Easel/ai"
	"Easel/core"
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

const testUser int64 = 42

func TestGenerate_EmptyPrompt(t *testing.T) {
	client := &mockClient{}
	s := newTestStudio(t, testConfig(), client)

	for _, prompt := range []string{"", "   ", "\n\t "} {
		out := s.Generate(testUser, prompt)

		require.ErrorIs(t, out.Reason, core.ErrEmptyPrompt)
		assert.Nil(t, out.Entry)
		assert.NotEmpty(t, out.Status)
	}
	assert.Equal(t, int32(0), client.calls.Load(), "no request may be issued for a blank prompt")
	assert.Equal(t, StateIdle, s.State(testUser))
}

func TestGenerate_Success(t *testing.T) {
	client := &mockClient{
		generateFunc: func(ctx context.Context, apiKey string, req ai.Request) (*ai.Result, error) {
			assert.Equal(t, "2K", req.Size, "default tier is medium")
			assert.Equal(t, "1:1", req.AspectRatio, "default ratio is square")
			assert.Equal(t, "a red fox in the snow", req.Prompt)
			return okResult(), nil
		},
	}
	s := newTestStudio(t, testConfig(), client)

	out := s.Generate(testUser, "a red fox in the snow")

	require.NoError(t, out.Reason)
	require.NotNil(t, out.Entry)
	assert.Equal(t, "a red fox in the snow", out.Entry.Prompt)
	assert.Equal(t, "image/png", out.Entry.MimeType)
	assert.False(t, out.Entry.CreatedAt.IsZero())

	data, err := base64.StdEncoding.DecodeString(out.Entry.Image)
	require.NoError(t, err)
	assert.Equal(t, []byte("fake-png-bytes"), data)

	history := s.History(testUser)
	require.Len(t, history, 1, "exactly one entry appended per success")
	assert.Equal(t, StateIdle, s.State(testUser))
}

func TestHistory_MostRecentFirst(t *testing.T) {
	client := &mockClient{}
	s := newTestStudio(t, testConfig(), client)

	require.NoError(t, s.Generate(testUser, "first").Reason)
	require.NoError(t, s.Generate(testUser, "second").Reason)
	require.NoError(t, s.Generate(testUser, "third").Reason)

	history := s.History(testUser)
	require.Len(t, history, 3)
	assert.Equal(t, "third", history[0].Prompt)
	assert.Equal(t, "second", history[1].Prompt)
	assert.Equal(t, "first", history[2].Prompt)

	last := s.Last(testUser)
	require.NotNil(t, last)
	assert.Equal(t, "third", last.Prompt)
}

func TestClearHistory(t *testing.T) {
	s := newTestStudio(t, testConfig(), &mockClient{})

	require.NoError(t, s.Generate(testUser, "a boat").Reason)
	require.Len(t, s.History(testUser), 1)

	s.ClearHistory(testUser)

	assert.Empty(t, s.History(testUser))
	assert.Nil(t, s.Last(testUser))
}

func TestGenerate_Busy(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	client := &mockClient{
		generateFunc: func(ctx context.Context, apiKey string, req ai.Request) (*ai.Result, error) {
			close(started)
			<-release
			return okResult(), nil
		},
	}
	s := newTestStudio(t, testConfig(), client)

	var first *core.Outcome
	done := make(chan struct{})
	go func() {
		first = s.Generate(testUser, "slow one")
		close(done)
	}()
	<-started

	assert.Equal(t, StateRequesting, s.State(testUser))

	second := s.Generate(testUser, "impatient one")
	require.ErrorIs(t, second.Reason, core.ErrBusy)

	close(release)
	<-done
	require.NoError(t, first.Reason)
	assert.Equal(t, int32(1), client.calls.Load(), "the rejected attempt must not reach the API")
	assert.Equal(t, StateIdle, s.State(testUser))
}

func TestGenerate_NoCredential_ManualBlank(t *testing.T) {
	conf := testConfig()
	conf.GeminiApiKey = ""
	client := &mockClient{}
	selector := &mockSelector{}
	s := newTestStudio(t, conf, client)
	s.SetKeySelector(selector)

	s.SetUseManualKey(testUser, true)
	out := s.Generate(testUser, "a castle")

	require.ErrorIs(t, out.Reason, core.ErrNoCredential)
	assert.Equal(t, core.HintManualKey, out.Hint, "the manual key input needs attention")
	assert.Equal(t, 0, selector.count(), "key selection must not be offered for a blank manual key")
	assert.Equal(t, int32(0), client.calls.Load())
	assert.Equal(t, StateIdle, s.State(testUser))
}

func TestGenerate_NoCredential_AmbientMissing(t *testing.T) {
	conf := testConfig()
	conf.GeminiApiKey = ""
	selector := &mockSelector{}
	s := newTestStudio(t, conf, &mockClient{})
	s.SetKeySelector(selector)

	out := s.Generate(testUser, "a castle")

	require.ErrorIs(t, out.Reason, core.ErrNoCredential)
	assert.Equal(t, core.HintNone, out.Hint)
	assert.Equal(t, 1, selector.count(), "missing ambient key offers key selection")
}

func TestGenerate_NoCredential_NoSelector(t *testing.T) {
	conf := testConfig()
	conf.GeminiApiKey = ""
	s := newTestStudio(t, conf, &mockClient{})

	out := s.Generate(testUser, "a castle")

	require.ErrorIs(t, out.Reason, core.ErrNoCredential)
	assert.Contains(t, out.Status, "no key selection is available")
}

func TestGenerate_QuotaMessage(t *testing.T) {
	client := &mockClient{
		generateFunc: func(ctx context.Context, apiKey string, req ai.Request) (*ai.Result, error) {
			return nil, errors.New("Error 429: You exceeded your current quota, please check your plan and billing details.")
		},
	}
	selector := &mockSelector{}
	s := newTestStudio(t, testConfig(), client)
	s.SetKeySelector(selector)

	out := s.Generate(testUser, "an owl")

	require.ErrorIs(t, out.Reason, core.ErrQuotaExceeded)
	assert.Contains(t, out.Status, "quota")
	assert.Equal(t, 1, selector.count(), "quota failure on the ambient key offers key selection")
	assert.Empty(t, s.History(testUser), "failed attempts never touch the history")
}

func TestGenerate_InvalidManualKey(t *testing.T) {
	client := &mockClient{
		generateFunc: func(ctx context.Context, apiKey string, req ai.Request) (*ai.Result, error) {
			return nil, genai.APIError{Code: 403, Status: "PERMISSION_DENIED", Message: "permission denied"}
		},
	}
	selector := &mockSelector{}
	s := newTestStudio(t, testConfig(), client)
	s.SetKeySelector(selector)

	s.SetManualKey(testUser, "bad-key")
	s.SetUseManualKey(testUser, true)
	out := s.Generate(testUser, "a lynx")

	require.ErrorIs(t, out.Reason, core.ErrInvalidCredential)
	assert.Equal(t, core.HintManualKey, out.Hint, "a failing manual key points back at the key input")
	assert.Equal(t, 0, selector.count())
	assert.Equal(t, "bad-key", client.lastKey)
}

func TestGenerate_NoImages(t *testing.T) {
	client := &mockClient{
		generateFunc: func(ctx context.Context, apiKey string, req ai.Request) (*ai.Result, error) {
			return nil, core.ErrNoImages
		},
	}
	selector := &mockSelector{}
	s := newTestStudio(t, testConfig(), client)
	s.SetKeySelector(selector)

	out := s.Generate(testUser, "nothing much")

	require.ErrorIs(t, out.Reason, core.ErrNoImages)
	assert.Equal(t, core.HintNone, out.Hint)
	assert.Equal(t, 0, selector.count())
}

func TestGenerate_EmptyResultWithoutError(t *testing.T) {
	// A client that returns no images and no error instead of ErrNoImages.
	client := &mockClient{
		generateFunc: func(ctx context.Context, apiKey string, req ai.Request) (*ai.Result, error) {
			return &ai.Result{}, nil
		},
	}
	s := newTestStudio(t, testConfig(), client)

	out := s.Generate(testUser, "nothing at all")

	require.ErrorIs(t, out.Reason, core.ErrNoImages)
	assert.Nil(t, out.Entry)
	assert.Equal(t, StateIdle, s.State(testUser))

	history := s.History(testUser)
	assert.Empty(t, history)
}

func TestGenerate_UnknownErrorShowsRawMessage(t *testing.T) {
	client := &mockClient{
		generateFunc: func(ctx context.Context, apiKey string, req ai.Request) (*ai.Result, error) {
			return nil, errors.New("connection reset by peer")
		},
	}
	s := newTestStudio(t, testConfig(), client)

	out := s.Generate(testUser, "a bridge")

	require.Error(t, out.Reason)
	assert.Contains(t, out.Status, "connection reset by peer")
	assert.Equal(t, core.HintNone, out.Hint)
}

func TestGenerate_RecoversAfterFailure(t *testing.T) {
	fail := true
	client := &mockClient{
		generateFunc: func(ctx context.Context, apiKey string, req ai.Request) (*ai.Result, error) {
			if fail {
				return nil, errors.New("transient")
			}
			return okResult(), nil
		},
	}
	s := newTestStudio(t, testConfig(), client)

	require.Error(t, s.Generate(testUser, "try one").Reason)
	assert.Equal(t, StateIdle, s.State(testUser), "every exit path returns to idle")

	fail = false
	out := s.Generate(testUser, "try two")
	require.NoError(t, out.Reason)
	require.Len(t, s.History(testUser), 1)
}

func TestSetSize(t *testing.T) {
	s := newTestStudio(t, testConfig(), &mockClient{})

	tier, err := s.SetSize(testUser, " High ")
	require.NoError(t, err)
	assert.Equal(t, "high", tier)
	assert.Equal(t, "high", s.Settings(testUser).Size)

	_, err = s.SetSize(testUser, "enormous")
	require.Error(t, err)
	assert.Equal(t, "high", s.Settings(testUser).Size, "invalid input leaves the setting alone")
}

func TestSetRatio(t *testing.T) {
	s := newTestStudio(t, testConfig(), &mockClient{})

	ratio, err := s.SetRatio(testUser, "wide")
	require.NoError(t, err)
	assert.Equal(t, "wide", ratio)

	_, err = s.SetRatio(testUser, "round")
	require.Error(t, err)
	assert.Equal(t, "wide", s.Settings(testUser).Ratio)
}

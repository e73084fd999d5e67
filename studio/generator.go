package studio

import (
	"Easel/ai"
	"Easel/core"
	"Easel/holder"
	"Easel/lib/sl"
	"Easel/storage"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// State of one user's generation attempt.
type State int

const (
	StateIdle State = iota
	StateValidating
	StateRequesting
)

// ImageClient is the outbound boundary to the image generation API.
type ImageClient interface {
	Generate(ctx context.Context, apiKey string, req ai.Request) (*ai.Result, error)
}

// Studio orchestrates generation attempts: it validates input, resolves a
// credential, keeps at most one request in flight per user, classifies
// failures and records successes in the history.
type Studio struct {
	conf     *core.Config
	log      *slog.Logger
	state    *holder.StateManager
	client   ImageClient
	selector core.KeySelector
	// inFlight is the explicit one-request-at-a-time guard; it does not rely
	// on the view disabling its controls.
	inFlight sync.Map // userId -> State
}

func NewStudio(conf *core.Config, log *slog.Logger, store storage.StudioStorage, client ImageClient) *Studio {
	return &Studio{
		conf:   conf,
		log:    log.With(sl.Module("studio")),
		state:  holder.NewStateManager(store),
		client: client,
	}
}

// SetKeySelector wires the optional external key selection capability.
func (s *Studio) SetKeySelector(selector core.KeySelector) {
	s.selector = selector
}

// State reports the current state of a user's attempt, StateIdle when none
// is running.
func (s *Studio) State(userId int64) State {
	if v, ok := s.inFlight.Load(userId); ok {
		return v.(State)
	}
	return StateIdle
}

// Generate runs one attempt end to end and always returns a presentable
// outcome. Whatever happens, the user ends up back in an interactive state.
func (s *Studio) Generate(userId int64, prompt string) *core.Outcome {
	if _, loaded := s.inFlight.LoadOrStore(userId, StateValidating); loaded {
		return &core.Outcome{
			Status: "A generation is already in progress, please wait for it to finish.",
			Reason: core.ErrBusy,
		}
	}
	defer s.inFlight.Delete(userId)

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return &core.Outcome{
			Status: "Please describe the image you want to generate.",
			Reason: core.ErrEmptyPrompt,
		}
	}

	settings := s.state.Settings(userId)
	cred, err := s.resolveKey(settings)
	if err != nil {
		return s.failNoCredential(userId, settings)
	}

	s.inFlight.Store(userId, StateRequesting)
	s.log.With(
		slog.Int64("user", userId),
		slog.String("size", settings.Size),
		slog.String("ratio", settings.Ratio),
		slog.Bool("manual_key", cred.manual),
	).Info("generating")

	req := ai.NewRequest(s.conf.Model, prompt, settings.Size, settings.Ratio)
	result, err := s.client.Generate(context.Background(), cred.key, req)
	if err != nil {
		return s.fail(userId, cred, ai.Classify(err))
	}
	if len(result.Images) == 0 {
		// The client should report this as an error, but an empty result with
		// no error must not bring the whole generation path down.
		return s.fail(userId, cred, core.ErrNoImages)
	}

	img := result.Images[0]
	entry := storage.HistoryEntry{
		Prompt:    prompt,
		Image:     base64.StdEncoding.EncodeToString(img.Data),
		MimeType:  img.MimeType,
		CreatedAt: time.Now(),
	}
	s.state.AppendHistory(userId, entry)

	return &core.Outcome{
		Entry:  &entry,
		Status: "Here is your image.",
	}
}

// failNoCredential handles an attempt that never reached the API: either the
// manual key is enabled but blank, or no ambient key exists. The key
// selection flow is only offered when the ambient key was the one expected.
func (s *Studio) failNoCredential(userId int64, settings *storage.Settings) *core.Outcome {
	if settings.UseManualKey {
		return &core.Outcome{
			Status: "Your API key is enabled but empty. Set one with /key.",
			Reason: core.ErrNoCredential,
			Hint:   core.HintManualKey,
		}
	}
	if s.selector != nil {
		s.selector.SelectKey(userId)
		return &core.Outcome{
			Status: "No API key is configured. Select one to continue.",
			Reason: core.ErrNoCredential,
		}
	}
	return &core.Outcome{
		Status: "No API key is configured and no key selection is available.",
		Reason: core.ErrNoCredential,
	}
}

// fail turns a classified provider error into a user-facing outcome. For
// credential-related failures the corrective action targets the key that was
// actually used: the manual key gets a hint, the ambient key gets the
// selection flow. Unknown errors show the raw message with no action.
func (s *Studio) fail(userId int64, cred credential, err error) *core.Outcome {
	s.log.With(slog.Int64("user", userId)).Error("generation failed", sl.Err(err))

	out := &core.Outcome{Reason: err}
	switch {
	case errors.Is(err, core.ErrNoImages):
		out.Status = "The model returned no images. Try rephrasing your prompt."
		return out
	case errors.Is(err, core.ErrQuotaExceeded):
		out.Status = "This API key has run out of quota."
	case errors.Is(err, core.ErrModelNotFound):
		out.Status = fmt.Sprintf("The model %q is not available for this API key.", s.conf.Model)
	case errors.Is(err, core.ErrInvalidCredential):
		out.Status = "The API key was rejected."
	default:
		out.Status = "Generation failed: " + err.Error()
		return out
	}

	if cred.manual {
		out.Hint = core.HintManualKey
		out.Status += " Update your key with /key."
	} else if s.selector != nil {
		s.selector.SelectKey(userId)
		out.Status += " You can select a different key."
	} else {
		out.Status += " No key selection is available."
	}
	return out
}

func (s *Studio) SetSize(userId int64, tier string) (string, error) {
	tier = strings.ToLower(strings.TrimSpace(tier))
	if _, ok := ai.SizeForTier(tier); !ok {
		return "", fmt.Errorf("unknown size %q, expected one of: %s",
			tier, strings.Join(ai.Tiers(), ", "))
	}
	settings := s.state.Settings(userId)
	settings.Size = tier
	s.state.SaveSettings(settings)
	return tier, nil
}

func (s *Studio) SetRatio(userId int64, ratio string) (string, error) {
	ratio = strings.ToLower(strings.TrimSpace(ratio))
	if _, ok := ai.RatioForName(ratio); !ok {
		return "", fmt.Errorf("unknown aspect ratio %q, expected one of: %s",
			ratio, strings.Join(ai.Ratios(), ", "))
	}
	settings := s.state.Settings(userId)
	settings.Ratio = ratio
	s.state.SaveSettings(settings)
	return ratio, nil
}

func (s *Studio) SetManualKey(userId int64, key string) {
	settings := s.state.Settings(userId)
	settings.ManualKey = strings.TrimSpace(key)
	s.state.SaveSettings(settings)
}

func (s *Studio) SetUseManualKey(userId int64, enabled bool) {
	settings := s.state.Settings(userId)
	settings.UseManualKey = enabled
	s.state.SaveSettings(settings)
}

func (s *Studio) Settings(userId int64) *storage.Settings {
	return s.state.Settings(userId)
}

// History returns past generations, most recent first.
func (s *Studio) History(userId int64) []storage.HistoryEntry {
	entries := s.state.History(userId)
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries
}

// Last returns the most recent generation, nil when the history is empty.
func (s *Studio) Last(userId int64) *storage.HistoryEntry {
	entries := s.state.History(userId)
	if len(entries) == 0 {
		return nil
	}
	return &entries[len(entries)-1]
}

func (s *Studio) ClearHistory(userId int64) {
	s.state.ClearHistory(userId)
}

func (s *Studio) Close() error {
	return s.state.Close()
}

package ai

import (
	"Easel/core"
	"Easel/lib/sl"
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/genai"
)

type Gemini struct {
	conf *core.Config
	log  *slog.Logger
}

func NewGemini(conf *core.Config, log *slog.Logger) *Gemini {
	return &Gemini{
		conf: conf,
		log:  log.With(sl.Module("gemini")),
	}
}

// Generate issues a single image generation request with the given
// credential. A client is built per call because the key is resolved anew
// for every attempt.
func (g *Gemini) Generate(ctx context.Context, apiKey string, req Request) (*Result, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating client: %w", err)
	}

	contents := []*genai.Content{
		{
			Parts: []*genai.Part{
				{Text: req.Prompt},
			},
		},
	}

	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
		ImageConfig: &genai.ImageConfig{
			ImageSize:   req.Size,
			AspectRatio: req.AspectRatio,
		},
	}

	g.log.With(
		slog.String("model", req.Model),
		slog.String("size", req.Size),
		slog.String("ratio", req.AspectRatio),
		sl.Secret(apiKey),
	).Info("generation request")

	resp, err := client.Models.GenerateContent(ctx, req.Model, contents, config)
	if err != nil {
		return nil, err
	}

	result := g.parseResponse(resp)
	g.log.With(
		slog.String("model", req.Model),
		slog.Int("images", len(result.Images)),
	).Info("generation response")

	if len(result.Images) == 0 {
		return nil, core.ErrNoImages
	}
	return result, nil
}

func (g *Gemini) parseResponse(resp *genai.GenerateContentResponse) *Result {
	result := &Result{}
	if resp == nil {
		return result
	}
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			result.Images = append(result.Images, Image{
				Data:     part.InlineData.Data,
				MimeType: part.InlineData.MIMEType,
			})
		}
	}
	return result
}

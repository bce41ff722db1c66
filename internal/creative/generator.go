package creative

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"adforge-ai/internal/gemini"
)

// ModelClient is the slice of the generative service the orchestrator needs.
// *gemini.Client satisfies it; tests substitute a fake.
type ModelClient interface {
	GenerateContent(ctx context.Context, prompt string, images []gemini.ImageInput) (string, error)
	GenerateImages(ctx context.Context, prompt string, opts gemini.ImageOptions) ([]string, error)
	EditImage(ctx context.Context, image gemini.ImageInput, instruction string) (string, error)
}

// Creative is one produced ad: the rendered image as a data URI plus the
// marketing copy that goes with it.
type Creative struct {
	ImageURL       string
	Description    string
	IntegratedText string

	// Warning is set when the answer was degraded (missing markers) but
	// still usable.
	Warning string
}

type Options struct {
	Client ModelClient
	Logger *slog.Logger
}

type Generator struct {
	client ModelClient
	logger *slog.Logger
}

func New(opts Options) *Generator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Generator{
		client: opts.Client,
		logger: logger,
	}
}

// Generate runs the two-step flow: a vision call that turns the product
// photos, context, and style into copy plus an image prompt, then an image
// call that renders exactly one square advertisement from that prompt.
func (g *Generator) Generate(ctx context.Context, req Request) (Creative, error) {
	if len(req.Images) == 0 {
		return Creative{}, errors.New("at least one product image is required")
	}

	style := LookupStyle(req.StyleID)
	instruction := BuildInstruction(req, style)

	answer, err := g.client.GenerateContent(ctx, instruction, req.Images)
	if err != nil {
		return Creative{}, fmt.Errorf("creative brief: %w", err)
	}

	parsed := ParseCreativeText(answer, fallbackImagePrompt(req, style), g.logger)

	images, err := g.client.GenerateImages(ctx, parsed.ImagePrompt, gemini.ImageOptions{
		Count:       1,
		AspectRatio: "1:1",
	})
	if err != nil {
		return Creative{}, fmt.Errorf("render image: %w", err)
	}
	if len(images) == 0 {
		return Creative{}, gemini.ErrNoImage
	}

	out := Creative{
		ImageURL:       images[0],
		Description:    parsed.Description,
		IntegratedText: parsed.IntegratedText,
	}
	if parsed.DescriptionFallback || parsed.PromptFallback {
		out.Warning = "model answer was missing sections; fallback values were used"
	}

	g.logger.Info("ad generated", "style", style.ID, "images_in", len(req.Images), "degraded", out.Warning != "")
	return out, nil
}

// Edit applies a free-text instruction to one image and returns the edited
// image as a data URI.
func (g *Generator) Edit(ctx context.Context, image gemini.ImageInput, instruction string) (string, error) {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return "", errors.New("edit instruction is empty")
	}

	edited, err := g.client.EditImage(ctx, image, instruction)
	if err != nil {
		return "", fmt.Errorf("edit image: %w", err)
	}

	g.logger.Info("ad edited", "instruction_len", len(instruction))
	return edited, nil
}

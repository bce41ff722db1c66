package creative

import (
	"log/slog"
	"regexp"
	"strings"
)

// Section markers the model is instructed to emit. The names are part of the
// wire contract with the prompt template; do not translate them.
const (
	delimIntegratedText = "---TEXTO_A_INTEGRAR---"
	delimDescription    = "---DESCRIPCION---"
	delimPrompt         = "---PROMPT---"
)

const fallbackDescription = "¡Descubre nuestra nueva promoción! Calidad y estilo pensados para ti."

var (
	integratedTextRegex = regexp.MustCompile(`(?s)---TEXTO_A_INTEGRAR---(.*?)(?:---DESCRIPCION---|---PROMPT---|$)`)
	descriptionRegex    = regexp.MustCompile(`(?s)---DESCRIPCION---(.*?)(?:---PROMPT---|$)`)
	promptRegex         = regexp.MustCompile(`(?s)---PROMPT---(.*)$`)
)

// CreativeText is the structured result of one model answer.
type CreativeText struct {
	IntegratedText string
	Description    string
	ImagePrompt    string

	// DescriptionFallback and PromptFallback record that the corresponding
	// marker was missing and a substitute value was used.
	DescriptionFallback bool
	PromptFallback      bool
}

// ParseCreativeText extracts the delimited sections from a raw model answer.
// A missing marker is tolerated: the section falls back to a substitute value
// and a warning is logged, never an error.
func ParseCreativeText(raw string, fallbackPrompt string, logger *slog.Logger) CreativeText {
	if logger == nil {
		logger = slog.Default()
	}

	out := CreativeText{
		Description: fallbackDescription,
		ImagePrompt: strings.TrimSpace(fallbackPrompt),
	}

	if m := integratedTextRegex.FindStringSubmatch(raw); len(m) == 2 {
		out.IntegratedText = strings.TrimSpace(m[1])
	}

	if m := descriptionRegex.FindStringSubmatch(raw); len(m) == 2 && strings.TrimSpace(m[1]) != "" {
		out.Description = strings.TrimSpace(m[1])
	} else {
		out.DescriptionFallback = true
		logger.Warn("description marker missing in model answer, using fallback", "marker", delimDescription)
	}

	if m := promptRegex.FindStringSubmatch(raw); len(m) == 2 && strings.TrimSpace(m[1]) != "" {
		out.ImagePrompt = strings.TrimSpace(m[1])
	} else {
		out.PromptFallback = true
		logger.Warn("prompt marker missing in model answer, using fallback", "marker", delimPrompt)
	}

	return out
}

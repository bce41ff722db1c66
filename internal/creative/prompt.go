package creative

import (
	"fmt"
	"strings"

	"adforge-ai/internal/gemini"
)

// Request carries everything needed for one ad generation.
type Request struct {
	Images  []gemini.ImageInput
	Context string
	StyleID string
}

// BuildInstruction assembles the single structured brief sent to the vision
// model. The model must answer with the three delimited sections that
// ParseCreativeText extracts.
func BuildInstruction(req Request, style Style) string {
	var b strings.Builder

	b.WriteString("You are an expert advertising art director and copywriter.\n")
	fmt.Fprintf(&b, "You receive %d product photo(s). Design one advertisement image concept around this product.\n\n", len(req.Images))

	if ctx := strings.TrimSpace(req.Context); ctx != "" {
		b.WriteString("Business context from the client:\n")
		b.WriteString(ctx)
		b.WriteString("\n\n")
	}

	fmt.Fprintf(&b, "Visual style: %s\n", style.Name)
	for _, d := range style.Directives {
		b.WriteString("- ")
		b.WriteString(d)
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString("Hard rules:\n")
	b.WriteString("- The product must stay photorealistic and unaltered; never redesign, recolor, or warp it.\n")
	b.WriteString("- Keep any real label or branding readable where visible.\n")
	b.WriteString("- Write the marketing description in the same language as the client's context.\n\n")

	b.WriteString("Answer with EXACTLY these three sections, using these markers verbatim and nothing else:\n")
	b.WriteString(delimIntegratedText + "\n")
	b.WriteString("(a short headline or slogan to integrate into the image; empty line if none)\n")
	b.WriteString(delimDescription + "\n")
	b.WriteString("(the marketing description for the ad, ready to publish)\n")
	b.WriteString(delimPrompt + "\n")
	b.WriteString("(a detailed English image-generation prompt for the advertisement, including the integrated text, the product, and the visual style)\n")

	return b.String()
}

// fallbackImagePrompt stands in when the model's answer is missing the prompt
// section.
func fallbackImagePrompt(req Request, style Style) string {
	var b strings.Builder
	b.WriteString("Professional studio advertisement photograph of the product from the attached photos")
	if ctx := strings.TrimSpace(req.Context); ctx != "" {
		fmt.Fprintf(&b, ", for: %s", ctx)
	}
	fmt.Fprintf(&b, ". Visual style: %s. %s.", style.Name, strings.Join(style.Directives, ", "))
	return b.String()
}

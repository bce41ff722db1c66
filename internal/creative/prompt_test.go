package creative

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"adforge-ai/internal/gemini"
)

func TestBuildInstruction(t *testing.T) {
	req := Request{
		Images:  []gemini.ImageInput{{DataBase64: "aaa", MimeType: "image/png"}, {DataBase64: "bbb", MimeType: "image/jpeg"}},
		Context: "Artisan bakery opening a second location",
		StyleID: "luxury",
	}
	style := LookupStyle(req.StyleID)

	got := BuildInstruction(req, style)

	assert.Contains(t, got, "2 product photo(s)")
	assert.Contains(t, got, "Artisan bakery opening a second location")
	assert.Contains(t, got, style.Name)
	for _, d := range style.Directives {
		assert.Contains(t, got, d)
	}
	assert.Contains(t, got, delimIntegratedText)
	assert.Contains(t, got, delimDescription)
	assert.Contains(t, got, delimPrompt)
}

func TestBuildInstruction_NoContext(t *testing.T) {
	req := Request{
		Images: []gemini.ImageInput{{DataBase64: "aaa", MimeType: "image/png"}},
	}

	got := BuildInstruction(req, LookupStyle(""))

	assert.NotContains(t, got, "Business context")
	assert.Contains(t, got, delimPrompt)
}

func TestLookupStyle(t *testing.T) {
	assert.Equal(t, "luxury", LookupStyle("luxury").ID)
	assert.Equal(t, "luxury", LookupStyle("  LUXURY ").ID)
	assert.Equal(t, defaultStyle.ID, LookupStyle("").ID)
	assert.Equal(t, defaultStyle.ID, LookupStyle("nope").ID)
}

func TestStylesOrderAndCompleteness(t *testing.T) {
	catalog := Styles()
	assert.Len(t, catalog, len(styleOrder))
	assert.Equal(t, defaultStyle.ID, catalog[0].ID)
	for _, s := range catalog {
		assert.NotEmpty(t, s.Name)
		assert.NotEmpty(t, s.Directives)
	}
}

func TestFallbackImagePrompt(t *testing.T) {
	req := Request{Context: "handmade candles"}
	style := LookupStyle("natural")

	got := fallbackImagePrompt(req, style)

	assert.Contains(t, got, "handmade candles")
	assert.Contains(t, got, style.Name)
}

package creative

import "strings"

// Style is one entry of the ad-style catalog. Directives are appended to the
// creative brief verbatim, one per line.
type Style struct {
	ID         string
	Name       string
	Directives []string
}

var defaultStyle = Style{
	ID:   "modern",
	Name: "Modern & Clean",
	Directives: []string{
		"contemporary premium advertising look",
		"clean studio lighting, soft controlled shadows",
		"uncluttered background with generous negative space",
		"product tack-sharp, photorealistic, undistorted",
	},
}

var styles = map[string]Style{
	"modern": defaultStyle,
	"vibrant": {
		ID:   "vibrant",
		Name: "Vibrant & Bold",
		Directives: []string{
			"bold saturated color blocking (background and set only)",
			"energetic composition, strong diagonals",
			"crisp rim lighting, punchy contrast",
			"never recolor the product; accents live in the environment",
		},
	},
	"luxury": {
		ID:   "luxury",
		Name: "Luxury Editorial",
		Directives: []string{
			"ultra-premium editorial advertising",
			"black and gold palette (environment only)",
			"cinematic spotlight beams, controlled volumetric haze",
			"museum-grade product realism, pristine reflections",
		},
	},
	"natural": {
		ID:   "natural",
		Name: "Natural & Organic",
		Directives: []string{
			"warm daylight, organic textures (wood, linen, stone)",
			"botanical accents that never cover the product",
			"soft earth-tone palette, calm premium atmosphere",
		},
	},
	"retro": {
		ID:   "retro",
		Name: "Retro Pop",
		Directives: []string{
			"vintage advertising poster sensibility",
			"muted film-grain color grading (environment only)",
			"graphic shapes and halftone hints in the set design",
			"product stays photorealistic and modern-sharp",
		},
	},
	"dark": {
		ID:   "dark",
		Name: "Dark Premium",
		Directives: []string{
			"dark premium advertising, low-key studio lighting",
			"controlled rim light, deep gradients",
			"label and branding must remain readable on dark",
		},
	},
}

var styleOrder = []string{"modern", "vibrant", "luxury", "natural", "retro", "dark"}

// Styles returns the catalog in display order.
func Styles() []Style {
	out := make([]Style, 0, len(styleOrder))
	for _, id := range styleOrder {
		if s, ok := styles[id]; ok {
			out = append(out, s)
		}
	}
	return out
}

// LookupStyle resolves a style label, falling back to the default style for
// unknown or empty labels.
func LookupStyle(id string) Style {
	if s, ok := styles[strings.ToLower(strings.TrimSpace(id))]; ok {
		return s
	}
	return defaultStyle
}

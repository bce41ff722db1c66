package gemini

import (
	"regexp"
	"strings"
)

// ImageInput is one inline image attached to a model request.
type ImageInput struct {
	DataBase64 string
	MimeType   string
}

// ImageOptions controls an image-generation call.
type ImageOptions struct {
	Count       int
	AspectRatio string
}

var dataURLRegex = regexp.MustCompile(`^data:([^;]+);base64,`)

// ImageInputFromDataURL converts a data URI back into an inline image input.
// Plain base64 without a data: prefix is accepted with the fallback MIME type.
func ImageInputFromDataURL(dataURL string, fallbackMime string) (ImageInput, bool) {
	dataURL = strings.TrimSpace(dataURL)
	if dataURL == "" {
		return ImageInput{}, false
	}

	mime := fallbackMime
	if matches := dataURLRegex.FindStringSubmatch(dataURL); len(matches) == 2 {
		mime = matches[1]
	}

	data := stripDataURLPrefix(dataURL)
	if data == "" {
		return ImageInput{}, false
	}

	return ImageInput{
		DataBase64: data,
		MimeType:   mime,
	}, true
}

func stripDataURLPrefix(value string) string {
	if idx := strings.IndexByte(value, ','); idx >= 0 {
		return value[idx+1:]
	}
	return value
}

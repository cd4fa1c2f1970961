package providers

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/sjson"
)

// Request bodies are debug-logged for troubleshooting, but inline screenshot
// payloads are megabytes of base64. The redactors below patch each image slot
// to a placeholder before the body reaches the log.

const redactedImage = "[image redacted]"

// redactImageParts blanks the image parts of a request body. All three wire
// shapes put the text part at index 0 and images at indices 1..imageCount, so
// the same loop serves every provider; only the path format differs.
func redactImageParts(body []byte, pathFormat string, imageCount int) []byte {
	for i := 1; i <= imageCount; i++ {
		patched, err := sjson.SetBytes(body, fmt.Sprintf(pathFormat, i), redactedImage)
		if err != nil {
			return body
		}
		body = patched
	}
	return body
}

// redactOpenAIImages blanks image_url parts in the user message at messages[1].
func redactOpenAIImages(body []byte, imageCount int) []byte {
	return redactImageParts(body, "messages.1.content.%d.image_url.url", imageCount)
}

// redactGeminiImages blanks inlineData parts in contents[0].
func redactGeminiImages(body []byte, imageCount int) []byte {
	return redactImageParts(body, "contents.0.parts.%d.inlineData.data", imageCount)
}

// redactAnthropicImages blanks base64 sources in messages[0].
func redactAnthropicImages(body []byte, imageCount int) []byte {
	return redactImageParts(body, "messages.0.content.%d.source.data", imageCount)
}

// logRequest debug-logs an outgoing request with images redacted.
func logRequest(provider, model string, sanitized []byte) {
	if e := log.Debug(); e.Enabled() {
		e.Str("provider", provider).
			Str("model", model).
			RawJSON("request", sanitized).
			Msg("sending provider request")
	}
}

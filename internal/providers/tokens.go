package providers

import (
	"github.com/pkoukk/tiktoken-go"
	"github.com/rs/zerolog/log"
)

// fallbackEncoding is used for models tiktoken has no table for (Gemini,
// Claude, and future ids). cl100k_base over-/under-counts those by a few
// percent, which is fine for a preflight size guard.
const fallbackEncoding = "cl100k_base"

// EstimateTokens returns an approximate token count for text under the given
// model. It never fails: unknown models fall back to cl100k_base, and an
// encoder error counts words-ish via len/4.
func EstimateTokens(model, text string) int {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding(fallbackEncoding)
	}
	if err != nil {
		log.Warn().Err(err).Str("model", model).Msg("token estimate unavailable")
		return len(text) / 4
	}
	return len(enc.Encode(text, nil, nil))
}

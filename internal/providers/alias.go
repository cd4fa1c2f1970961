package providers

import "strings"

// modelAliases maps friendly marketing names to deployable model ids.
// The mapping is idempotent: every value maps to itself when fed back in.
var modelAliases = map[string]string{
	"claude-4-sonnet":   "claude-3-7-sonnet-20250219",
	"claude-3-7-sonnet": "claude-3-7-sonnet-20250219",
}

// MapModelID resolves a friendly model alias to its deployable id.
// Unknown ids pass through unchanged.
func MapModelID(model string) string {
	if mapped, ok := modelAliases[strings.ToLower(strings.TrimSpace(model))]; ok {
		return mapped
	}
	return model
}

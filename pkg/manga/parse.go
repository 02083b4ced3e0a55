package manga

import (
	"encoding/json"
	"fmt"
	"strings"
)

// extractJSON isolates JSON content from a model response, tolerating
// markdown code fences and surrounding prose.
func extractJSON(response string) string {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")

	if startIdx == -1 || endIdx == -1 || endIdx <= startIdx {
		return response
	}

	return response[startIdx : endIdx+1]
}

func decodeResponse(raw string, out interface{}) error {
	jsonContent := extractJSON(raw)
	if err := json.Unmarshal([]byte(jsonContent), out); err != nil {
		return fmt.Errorf("json unmarshal failed: %w", err)
	}
	return nil
}

package openai

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
)

// ExtractJSON unmarshals the first {...} block found in free-form model
// output into out. Models often wrap their JSON answer in prose or code
// fences; everything outside the outermost braces is ignored.
func ExtractJSON(content string, out any) error {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return eris.Errorf("openai: no JSON object in response: %s", truncate(content, 200))
	}

	if err := json.Unmarshal([]byte(content[start:end+1]), out); err != nil {
		return eris.Wrapf(err, "openai: malformed JSON in response: %s", truncate(content, 200))
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

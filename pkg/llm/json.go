package llm

import (
	"encoding/json"
	"strings"

	"github.com/XiaoConstantine/ace-go/pkg/errors"
)

// jsonInstruction is appended to prompts sent through GenerateJSON so
// models answer with a bare object.
const jsonInstruction = "\n\nPlease respond with a valid JSON object only. Do not include any markdown formatting or explanations."

// ParseJSONResponse unmarshals a model response into out. Models often
// wrap the object in prose or markdown fences, so when the full
// response is not valid JSON the outermost braced region is tried
// before giving up.
func ParseJSONResponse(response string, out interface{}) error {
	trimmed := strings.TrimSpace(response)
	if err := json.Unmarshal([]byte(trimmed), out); err == nil {
		return nil
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end <= start {
		return errors.WithFields(
			errors.New(errors.InvalidResponse, "no JSON object found in model response"),
			errors.Fields{"response": truncate(trimmed, 200)},
		)
	}

	if err := json.Unmarshal([]byte(trimmed[start:end+1]), out); err != nil {
		return errors.WithFields(
			errors.Wrap(err, errors.InvalidResponse, "failed to parse JSON response"),
			errors.Fields{"response": truncate(trimmed, 200)},
		)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

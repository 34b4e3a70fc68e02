package advisory

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/gjson"
)

const verdictSchema = `{
	"type": "object",
	"required": ["verdict"],
	"properties": {
		"verdict": {"type": "string", "enum": ["CONFIRM", "DOWNSIZE", "SKIP", "WAIT"]},
		"confidence": {"type": "integer", "minimum": 0, "maximum": 100},
		"reasons": {"type": "array", "items": {"type": "string"}}
	}
}`

var compiledSchema = jsonschema.MustCompileString("verdict.json", verdictSchema)

// ParseStructuredVerdict extracts and validates the advisory JSON. Models
// occasionally wrap the object in prose or a code fence; the first JSON
// object found in the text is taken.
func ParseStructuredVerdict(content string) (StructuredVerdict, error) {
	raw := extractJSONObject(content)
	if raw == "" {
		return StructuredVerdict{}, fmt.Errorf("no JSON object in advisory output")
	}
	var decoded any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return StructuredVerdict{}, fmt.Errorf("advisory output is not valid JSON: %w", err)
	}
	if err := compiledSchema.Validate(decoded); err != nil {
		return StructuredVerdict{}, fmt.Errorf("advisory output failed schema: %w", err)
	}
	var out StructuredVerdict
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return StructuredVerdict{}, err
	}
	out.Verdict = strings.ToUpper(strings.TrimSpace(out.Verdict))
	return out, nil
}

func extractJSONObject(content string) string {
	content = strings.TrimSpace(content)
	if content == "" {
		return ""
	}
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		if idx := strings.LastIndex(content, "```"); idx >= 0 {
			content = content[:idx]
		}
		content = strings.TrimSpace(content)
	}
	if gjson.Valid(content) && gjson.Parse(content).IsObject() {
		return content
	}
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return ""
	}
	candidate := content[start : end+1]
	if gjson.Valid(candidate) && gjson.Parse(candidate).IsObject() {
		return candidate
	}
	return ""
}

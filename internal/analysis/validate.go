package analysis

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed report_schema.json
var reportSchemaJSON string

var reportSchema = jsonschema.MustCompileString("report_schema.json", reportSchemaJSON)

const maxSummaryLen = 2000

// ExtractJSONObject parses model output into a JSON object. It tolerates
// prose around the object by retrying on the outermost brace pair.
func ExtractJSONObject(raw string) (map[string]any, bool) {
	raw = strings.TrimSpace(raw)
	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err == nil {
		return obj, true
	}
	first := strings.Index(raw, "{")
	last := strings.LastIndex(raw, "}")
	if first < 0 || last <= first {
		return nil, false
	}
	if err := json.Unmarshal([]byte(raw[first:last+1]), &obj); err != nil {
		return nil, false
	}
	return obj, true
}

// SummaryFromOutput pulls a usable short_summary out of raw model output.
func SummaryFromOutput(raw string) (string, error) {
	obj, ok := ExtractJSONObject(raw)
	if !ok {
		return "", fmt.Errorf("model output is not a JSON object")
	}
	val, ok := obj["short_summary"].(string)
	if !ok {
		return "", fmt.Errorf("model output missing short_summary")
	}
	summary := CleanSummary(val)
	if summary == "" {
		return "", fmt.Errorf("model output has empty short_summary")
	}
	if len(summary) > maxSummaryLen {
		summary = strings.TrimSpace(summary[:maxSummaryLen])
	}
	return summary, nil
}

// CleanSummary strips stray braces anywhere in the sentence and quotes at
// the edges; models sometimes leak JSON punctuation into the text itself.
func CleanSummary(s string) string {
	s = strings.ReplaceAll(s, "{", "")
	s = strings.ReplaceAll(s, "}", "")
	return strings.TrimSpace(strings.Trim(s, "\" \n\t"))
}

// ValidateResult checks a final report body against the embedded schema plus
// the ordering rules the schema cannot express: hour buckets indexed 0-23 in
// order and the fixed signal names in their fixed positions.
func ValidateResult(result map[string]any) error {
	if err := reportSchema.Validate(result); err != nil {
		return fmt.Errorf("report schema: %w", err)
	}
	admin, ok := result["admin"].(map[string]any)
	if !ok {
		return fmt.Errorf("report admin block is not an object")
	}
	buckets, _ := admin["timestampLeakage"].([]any)
	for i, b := range buckets {
		bucket, ok := b.(map[string]any)
		if !ok {
			return fmt.Errorf("timestampLeakage[%d] is not an object", i)
		}
		hour, ok := bucket["hour"].(float64)
		if !ok || int(hour) != i {
			return fmt.Errorf("timestampLeakage[%d] has hour %v, want %d", i, bucket["hour"], i)
		}
	}
	if err := checkNames(admin, "professionalLiabilitySignals", liabilityNames[:]); err != nil {
		return err
	}
	return checkNames(admin, "locationLeakageSignals", locationNames[:])
}

func checkNames(admin map[string]any, key string, want []string) error {
	entries, _ := admin[key].([]any)
	for i, e := range entries {
		entry, ok := e.(map[string]any)
		if !ok {
			return fmt.Errorf("%s[%d] is not an object", key, i)
		}
		if name, _ := entry["name"].(string); name != want[i] {
			return fmt.Errorf("%s[%d] has name %q, want %q", key, i, entry["name"], want[i])
		}
	}
	return nil
}

// toJSONValue round-trips a value through encoding/json so schema validation
// sees plain decoded JSON types.
func toJSONValue(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

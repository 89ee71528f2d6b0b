package analysis

import (
	"context"
	"fmt"
	"strings"

	"leakscan-backend/internal/llm"
)

// NameFilter refines the coarse name-candidate count. Implementations may
// call out to a model; failures are non-fatal and callers keep the regex
// count instead.
type NameFilter interface {
	FilterPersonNames(ctx context.Context, candidates []string) (int, error)
}

// IdentityNameFilter keeps the regex count as-is.
type IdentityNameFilter struct{}

func (IdentityNameFilter) FilterPersonNames(_ context.Context, candidates []string) (int, error) {
	return capCount(len(candidates), nameEntityCap), nil
}

// LLMNameFilter asks the model which candidate spans are real person names.
// Only names echoed back from the candidate list are counted, so the model
// cannot inflate the metric.
type LLMNameFilter struct {
	Client llm.Client
}

func (f *LLMNameFilter) FilterPersonNames(ctx context.Context, candidates []string) (int, error) {
	if len(candidates) == 0 {
		return 0, nil
	}
	raw, err := f.Client.Generate(ctx, buildNameFilterPrompt(candidates))
	if err != nil {
		return 0, err
	}
	obj, ok := ExtractJSONObject(raw)
	if !ok {
		return 0, fmt.Errorf("name filter output is not a JSON object")
	}
	names, ok := obj["person_names"].([]any)
	if !ok {
		return 0, fmt.Errorf("name filter output missing person_names")
	}

	allowed := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		allowed[strings.ToLower(c)] = struct{}{}
	}
	seen := make(map[string]struct{})
	for _, n := range names {
		s, ok := n.(string)
		if !ok {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(s))
		if _, ok := allowed[key]; !ok {
			continue
		}
		seen[key] = struct{}{}
	}
	return capCount(len(seen), nameEntityCap), nil
}

func buildNameFilterPrompt(candidates []string) string {
	var b strings.Builder
	b.WriteString("The list below contains text spans extracted from phone screenshots. ")
	b.WriteString("Some are person names, others are app labels, places or noise.\n")
	b.WriteString("Return exactly one JSON object of the form {\"person_names\": [\"...\"]} ")
	b.WriteString("containing only the spans that are names of people, copied verbatim.\n\nSPANS:\n")
	for _, c := range candidates {
		b.WriteString("- ")
		b.WriteString(c)
		b.WriteString("\n")
	}
	return b.String()
}

var (
	_ NameFilter = IdentityNameFilter{}
	_ NameFilter = (*LLMNameFilter)(nil)
)

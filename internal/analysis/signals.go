package analysis

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Fixed metric names consumed by the admin dashboard. Order matters.
var (
	liabilityNames = [3]string{"Aggression Hits", "Profanity Hits", "Shouting Hits"}
	locationNames  = [3]string{"Explicit location keywords", "Travel/route context", "No location signals"}
)

const (
	relationshipLabelCap = 15
	nameEntityCap        = 50
	nameCandidateCap     = 80
	liabilityCap         = 25
	maxNameSpanLen       = 40
	minPhoneDigits       = 9
	maxPhoneDigits       = 16
)

// HourBucket is one entry of the 24-hour timestamp histogram.
type HourBucket struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

// SocialContextLeakage counts social identifiers found in OCR text.
type SocialContextLeakage struct {
	RelationshipLabels int `json:"relationshipLabels"`
	Handles            int `json:"handles"`
	Emails             int `json:"emails"`
	PhonePatterns      int `json:"phonePatterns"`
	NameEntities       int `json:"nameEntities"`
}

// NamedCount is a fixed-name counter for the dashboard signal lists.
type NamedCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// AdminMetrics is the deterministic admin block of a report.
type AdminMetrics struct {
	TimestampLeakage             []HourBucket         `json:"timestampLeakage"`
	SocialContextLeakage         SocialContextLeakage `json:"socialContextLeakage"`
	ProfessionalLiabilitySignals []NamedCount         `json:"professionalLiabilitySignals"`
	LocationLeakageSignals       []NamedCount         `json:"locationLeakageSignals"`
}

// ZeroAdminMetrics returns an all-zero admin block with the fixed shape.
func ZeroAdminMetrics() AdminMetrics {
	m := AdminMetrics{
		TimestampLeakage: make([]HourBucket, 24),
		ProfessionalLiabilitySignals: []NamedCount{
			{Name: liabilityNames[0]},
			{Name: liabilityNames[1]},
			{Name: liabilityNames[2]},
		},
		LocationLeakageSignals: []NamedCount{
			{Name: locationNames[0]},
			{Name: locationNames[1]},
			{Name: locationNames[2]},
		},
	}
	for i := range m.TimestampLeakage {
		m.TimestampLeakage[i].Hour = i
	}
	return m
}

var (
	// Time-like substrings: 14:30, 14:30:55, 14h30, 13H45, 9 u 30 and bare
	// 14h / 14U. OCR output mixes case and spacing around the separator, so
	// both are tolerated; minutes are required after a colon only.
	timeRe = regexp.MustCompile(`\b([01]?[0-9]|2[0-3])\s*(?::\s*[0-5][0-9](?::[0-5][0-9])?|[hHuU]\s*(?:[0-5][0-9])?)\b`)

	// @handle not preceded by an email-local character.
	handleRe = regexp.MustCompile(`(?:^|[^A-Za-z0-9._%+-])@([A-Za-z0-9_]{2,})`)
	emailRe  = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	phoneRe  = regexp.MustCompile(`\+?[0-9][0-9 ()./-]{7,}[0-9]`)

	// 1-3 word Title-Case or ALL-CAPS spans.
	nameSpanRe = regexp.MustCompile(`\b(?:[A-Z][a-z]+|[A-Z]{2,})(?: (?:[A-Z][a-z]+|[A-Z]{2,})){0,2}\b`)
	shoutRe    = regexp.MustCompile(`\b[A-Z]{4,}\b`)
)

// Extractor computes deterministic privacy-signal metrics from OCR text.
// It performs no I/O so dashboard numbers stay reproducible.
type Extractor struct {
	relationship []string
	aggression   termList
	profanity    termList
	location     termList
	travel       termList
	nameStop     map[string]struct{}
	shoutStop    map[string]struct{}
}

// NewExtractor compiles the keyword config into an extractor.
func NewExtractor(cfg *SignalConfig) *Extractor {
	if cfg == nil {
		cfg = DefaultSignalConfig()
	}
	e := &Extractor{
		aggression: newTermList(cfg.AggressionTerms),
		profanity:  newTermList(cfg.ProfanityTerms),
		location:   newTermList(cfg.LocationTerms),
		travel:     newTermList(cfg.TravelTerms),
		nameStop:   make(map[string]struct{}, len(cfg.NameStoplist)),
		shoutStop:  make(map[string]struct{}, len(cfg.ShoutStoplist)),
	}
	for _, label := range cfg.RelationshipLabels {
		if trimmed := strings.ToLower(strings.TrimSpace(label)); trimmed != "" {
			e.relationship = append(e.relationship, trimmed)
		}
	}
	for _, s := range cfg.NameStoplist {
		e.nameStop[strings.ToLower(s)] = struct{}{}
	}
	for _, s := range cfg.ShoutStoplist {
		e.shoutStop[s] = struct{}{}
	}
	return e
}

// Extract computes the admin metrics for one analysis run.
func (e *Extractor) Extract(texts []string) AdminMetrics {
	combined := strings.TrimSpace(strings.Join(texts, "\n"))
	m := ZeroAdminMetrics()
	if combined == "" {
		m.LocationLeakageSignals[2].Count = 1
		return m
	}

	lower := strings.ToLower(combined)
	tokens, tokenSet := letterTokens(lower)

	for _, match := range timeRe.FindAllStringSubmatch(combined, -1) {
		if hour, err := strconv.Atoi(match[1]); err == nil && hour >= 0 && hour <= 23 {
			m.TimestampLeakage[hour].Count++
		}
	}

	m.SocialContextLeakage.Handles = len(handleRe.FindAllStringSubmatch(combined, -1))
	m.SocialContextLeakage.Emails = len(emailRe.FindAllString(combined, -1))
	m.SocialContextLeakage.PhonePatterns = countDistinctPhones(combined)
	m.SocialContextLeakage.RelationshipLabels = e.countDistinctLabels(lower, tokenSet)
	m.SocialContextLeakage.NameEntities = capCount(len(e.NameCandidates(texts)), nameEntityCap)

	m.ProfessionalLiabilitySignals[0].Count = capCount(e.aggression.countOccurrences(lower, tokens), liabilityCap)
	m.ProfessionalLiabilitySignals[1].Count = capCount(e.profanity.countOccurrences(lower, tokens), liabilityCap)
	m.ProfessionalLiabilitySignals[2].Count = capCount(e.countShouting(combined), liabilityCap)

	loc := e.location.countOccurrences(lower, tokens)
	travel := e.travel.countOccurrences(lower, tokens)
	if loc == 0 && travel == 0 {
		m.LocationLeakageSignals[2].Count = 1
	} else {
		m.LocationLeakageSignals[0].Count = loc
		m.LocationLeakageSignals[1].Count = travel
	}
	return m
}

// NameCandidates returns deduplicated name-like spans, capped.
func (e *Extractor) NameCandidates(texts []string) []string {
	combined := strings.Join(texts, "\n")
	seen := make(map[string]struct{})
	var out []string
	for _, span := range nameSpanRe.FindAllString(combined, -1) {
		if len(span) > maxNameSpanLen {
			continue
		}
		key := strings.ToLower(span)
		if _, banned := e.nameStop[key]; banned {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, span)
		if len(out) >= nameCandidateCap {
			break
		}
	}
	return out
}

// TimeTokens returns the raw time-like substrings, deduplicated, for prompt
// grounding.
func (e *Extractor) TimeTokens(texts []string) []string {
	combined := strings.Join(texts, "\n")
	seen := make(map[string]struct{})
	var out []string
	for _, tok := range timeRe.FindAllString(combined, -1) {
		tok = strings.TrimSpace(tok)
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}

func (e *Extractor) countDistinctLabels(lower string, tokenSet map[string]struct{}) int {
	count := 0
	for _, label := range e.relationship {
		matched := false
		if strings.Contains(label, " ") {
			matched = strings.Contains(lower, label)
		} else {
			_, matched = tokenSet[label]
		}
		if matched {
			count++
			if count >= relationshipLabelCap {
				break
			}
		}
	}
	return count
}

func (e *Extractor) countShouting(text string) int {
	count := strings.Count(text, "!!")
	for _, tok := range shoutRe.FindAllString(text, -1) {
		if _, ok := e.shoutStop[tok]; ok {
			continue
		}
		count++
	}
	return count
}

func countDistinctPhones(text string) int {
	seen := make(map[string]struct{})
	for _, raw := range phoneRe.FindAllString(text, -1) {
		var digits strings.Builder
		for _, r := range raw {
			if r >= '0' && r <= '9' {
				digits.WriteRune(r)
			}
		}
		normalized := digits.String()
		if len(normalized) < minPhoneDigits || len(normalized) > maxPhoneDigits {
			continue
		}
		seen[normalized] = struct{}{}
	}
	return len(seen)
}

// termList matches a keyword list: '*' suffix means stem match, embedded
// space means phrase match, everything else whole-word match.
type termList struct {
	words   map[string]struct{}
	stems   []string
	phrases []string
}

func newTermList(terms []string) termList {
	tl := termList{words: make(map[string]struct{})}
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		switch {
		case t == "":
		case strings.HasSuffix(t, "*"):
			if stem := strings.TrimSuffix(t, "*"); stem != "" {
				tl.stems = append(tl.stems, stem)
			}
		case strings.Contains(t, " "):
			tl.phrases = append(tl.phrases, t)
		default:
			tl.words[t] = struct{}{}
		}
	}
	return tl
}

func (tl termList) countOccurrences(lower string, tokens []string) int {
	count := 0
	for _, tok := range tokens {
		if _, ok := tl.words[tok]; ok {
			count++
			continue
		}
		for _, stem := range tl.stems {
			if strings.HasPrefix(tok, stem) {
				count++
				break
			}
		}
	}
	for _, phrase := range tl.phrases {
		count += strings.Count(lower, phrase)
	}
	return count
}

func letterTokens(lower string) ([]string, map[string]struct{}) {
	tokens := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	set := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		set[tok] = struct{}{}
	}
	return tokens, set
}

func capCount(n, limit int) int {
	if n > limit {
		return limit
	}
	return n
}

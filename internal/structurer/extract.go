package structurer

import (
	"encoding/json"
	"strings"

	"custintel/pkg/errors"
)

// Extraction tiers, cheapest first.
const (
	TierDirect = "direct"
	TierFenced = "fenced"
	TierScan   = "scan"
)

// Extract pulls a JSON object out of a model response. Models often wrap
// their output in prose or markdown fences, so three tiers are tried in
// order: parse the whole response, parse a fenced code block, then scan
// for a balanced brace group.
func Extract(raw string) (map[string]any, string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, "", errors.Wrap(errors.ErrExtraction, "empty response")
	}

	if obj := tryParse(trimmed); obj != nil {
		return obj, TierDirect, nil
	}

	if block := fencedBlock(trimmed); block != "" {
		if obj := tryParse(block); obj != nil {
			return obj, TierFenced, nil
		}
	}

	if obj := scanBraces(trimmed); obj != nil {
		return obj, TierScan, nil
	}

	return nil, "", errors.Wrap(errors.ErrExtraction, "no JSON object found in response")
}

func tryParse(s string) map[string]any {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil
	}
	return obj
}

// fencedBlock returns the contents of the first markdown code fence,
// stripping an optional language tag.
func fencedBlock(s string) string {
	start := strings.Index(s, "```")
	if start == -1 {
		return ""
	}
	rest := s[start+3:]

	// Drop the language tag line if present.
	if nl := strings.IndexByte(rest, '\n'); nl != -1 {
		firstLine := strings.TrimSpace(rest[:nl])
		if firstLine == "" || !strings.ContainsAny(firstLine, "{}") {
			rest = rest[nl+1:]
		}
	}

	end := strings.Index(rest, "```")
	if end == -1 {
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(rest[:end])
}

// scanBraces walks the response looking for balanced top-level brace
// groups and returns the first one that parses as a JSON object.
func scanBraces(s string) map[string]any {
	start := -1
	depth := 0

	for i, ch := range s {
		switch ch {
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && start != -1 {
				if obj := tryParse(s[start : i+1]); obj != nil {
					return obj
				}
				start = -1
			}
		}
	}
	return nil
}

package jsonutils

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
)

var (
	reFence         = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")
	reObject        = regexp.MustCompile(`(?s)\{.*\}`)
	reTrailingComma = regexp.MustCompile(`,(\s*[}\]])`)
)

// stripInvisible removes BOMs and zero-width characters models like to emit.
func stripInvisible(input string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r == '\uFEFF' || r == '\u200B' || r == '\u200C' || r == '\u200D' {
			return -1
		}
		return r
	}, input))
}

// ExtractObject pulls the first JSON object out of free-form LLM output.
//
// Candidates are tried in order:
//  1. the body of a ``` or ```json fenced block
//  2. the greedy span from the first '{' to the last '}'
//  3. the first object that decodes cleanly starting at any '{'
//
// Each candidate is retried once with trailing commas removed. It returns
// false when nothing decodes.
func ExtractObject(input string, v any) bool {
	input = stripInvisible(input)

	var candidates []string
	if m := reFence.FindStringSubmatch(input); len(m) > 1 {
		candidates = append(candidates, strings.TrimSpace(m[1]))
	}
	if m := reObject.FindString(input); m != "" {
		candidates = append(candidates, m)
	}
	for _, c := range candidates {
		if decodeStrict(c, v) {
			return true
		}
		if fixed := reTrailingComma.ReplaceAllString(c, "$1"); fixed != c && decodeStrict(fixed, v) {
			return true
		}
	}
	return decodeFirst(input, v)
}

func decodeStrict(s string, v any) bool {
	if !strings.HasPrefix(s, "{") {
		return false
	}
	return json.Unmarshal([]byte(s), v) == nil
}

// decodeFirst walks every '{' and decodes a single value from there, which
// handles prose between several objects where the greedy span is invalid.
func decodeFirst(input string, v any) bool {
	for i := 0; i < len(input); i++ {
		if input[i] != '{' {
			continue
		}
		dec := json.NewDecoder(bytes.NewReader([]byte(input[i:])))
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			continue
		}
		if json.Unmarshal(raw, v) == nil {
			return true
		}
	}
	return false
}

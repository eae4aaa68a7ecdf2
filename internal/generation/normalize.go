package generation

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// NoAnswer is the chat reply when the document has nothing relevant.
const NoAnswer = "I could not find relevant information in the document."

// Summary returns the "summary" string of the model output, or the first
// three retrieved chunks joined with spaces when the output has none.
func Summary(raw string, chunks []string) string {
	if obj, ok := extractObject(raw); ok {
		if s, ok := obj["summary"].(string); ok {
			return s
		}
	}
	return strings.Join(head(chunks, 3), " ")
}

// NotesFrom returns the sectioned notes of the model output. Output without a
// "sections" list degrades to a single "Main Ideas" section built from the
// retrieved chunks.
func NotesFrom(raw string, chunks []string) Notes {
	if obj, ok := extractObject(raw); ok {
		if list, ok := obj["sections"].([]any); ok {
			notes := Notes{Sections: make([]Section, 0, len(list)), Keywords: stringList(obj["keywords"])}
			for _, item := range list {
				m, ok := item.(map[string]any)
				if !ok {
					continue
				}
				notes.Sections = append(notes.Sections, Section{
					Heading:     stringField(m["heading"]),
					Explanation: stringField(m["explanation"]),
					Points:      stringList(m["points"]),
				})
			}
			return notes
		}
	}

	return Notes{
		Sections: []Section{{
			Heading:     "Main Ideas",
			Explanation: strings.Join(head(chunks, 2), " "),
			Points:      append([]string{}, head(chunks, 5)...),
		}},
		Keywords: []string{},
	}
}

// MCQ normalizes a generated question list. Only the first num entries are
// considered and non-object entries are dropped. Anything but a list yields
// an empty slice.
func MCQ(raw, difficulty string, num int) []MCQItem {
	list := extractList(raw, num)
	items := make([]MCQItem, 0, len(list))
	for idx, entry := range list {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		items = append(items, MCQItem{
			ID:          itemID(m, difficulty, idx),
			Question:    stringField(m["question"]),
			Options:     head(stringList(m["options"]), 4),
			Answer:      stringField(m["answer"]),
			Explanation: stringField(m["explanation"]),
		})
	}
	return items
}

// Fillups follows the MCQ rules for fill-in-the-blank items.
func Fillups(raw, difficulty string, num int) []FillupItem {
	list := extractList(raw, num)
	items := make([]FillupItem, 0, len(list))
	for idx, entry := range list {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		items = append(items, FillupItem{
			ID:     itemID(m, difficulty, idx),
			Text:   stringField(m["text"]),
			Answer: stringField(m["answer"]),
		})
	}
	return items
}

// ClampCount turns a loosely typed requested item count into [5, 20].
// Missing or unparsable values mean 10.
func ClampCount(v any) int {
	n := 10
	switch x := v.(type) {
	case int:
		n = x
	case int64:
		n = int(x)
	case float64:
		// clamp before converting: int() of an out-of-range float is undefined
		if math.IsNaN(x) {
			break
		}
		n = int(math.Max(5, math.Min(20, x)))
	case bool:
		n = 0
		if x {
			n = 1
		}
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(x)); err == nil {
			n = i
		}
	}
	return max(5, min(20, n))
}

func extractObject(raw string) (map[string]any, bool) {
	v, ok := ExtractJSON(raw)
	if !ok {
		return nil, false
	}
	m, ok := v.(map[string]any)
	return m, ok
}

// extractList decodes the list a quiz task expects. A one-element array
// also matches the object span, so the array span is tried again when the
// first candidate decodes to something else.
func extractList(raw string, num int) []any {
	v, _ := ExtractJSON(raw)
	list, ok := v.([]any)
	if !ok {
		if err := json.Unmarshal([]byte(span(raw, '[', ']')), &list); err != nil {
			return nil
		}
	}
	return head(list, max(num, 0))
}

func itemID(m map[string]any, difficulty string, idx int) string {
	if id := stringField(m["id"]); id != "" {
		return id
	}
	return difficulty + "_" + strconv.Itoa(idx+1)
}

// stringField renders scalar JSON values as text; anything else is empty.
func stringField(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	}
	return ""
}

func stringList(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		switch item.(type) {
		case string, float64, bool:
			out = append(out, stringField(item))
		}
	}
	return out
}

func head[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}

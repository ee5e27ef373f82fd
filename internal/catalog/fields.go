package catalog

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Fields is a create or update payload. A key mapped to nil clears an
// optional field; an absent key leaves the stored value alone.
type Fields map[string]any

const requiredMessage = "This field is required."

func invalidChoice(v any) string {
	return "Select a valid choice. " + describeValue(v) + " is not one of the available choices."
}

func describeValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return "null"
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return "value"
		}
		return string(b)
	}
}

func isBlank(raw any) bool {
	if raw == nil {
		return true
	}
	s, ok := raw.(string)
	return ok && strings.TrimSpace(s) == ""
}

// asString reads an optional string of at most maxLen characters. nil reads
// as empty.
func asString(raw any, maxLen int) (string, error) {
	if raw == nil {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", invalid("Enter a text value.")
	}
	s = strings.TrimSpace(s)
	if n := utf8.RuneCountInString(s); n > maxLen {
		return "", invalidf("Ensure this value has at most %d characters (it has %d).", maxLen, n)
	}
	return s, nil
}

// asOptionalDate reads a date; nil or blank clears it.
func asOptionalDate(raw any) (*time.Time, error) {
	if isBlank(raw) {
		return nil, nil
	}
	s, ok := raw.(string)
	if !ok {
		return nil, invalid("Enter a valid date.")
	}
	t, err := ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// asID reads a positive integer primary key from a JSON number or a string.
func asID(raw any) (uint, error) {
	switch v := raw.(type) {
	case float64:
		if v >= 1 && v == math.Trunc(v) && v <= math.MaxUint32 {
			return uint(v), nil
		}
	case int:
		if v >= 1 {
			return uint(v), nil
		}
	case uint:
		if v >= 1 {
			return v, nil
		}
	case json.Number:
		if n, err := strconv.ParseUint(string(v), 10, 32); err == nil && n >= 1 {
			return uint(n), nil
		}
	case string:
		if n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 32); err == nil && n >= 1 {
			return uint(n), nil
		}
	}
	return 0, invalid(invalidChoice(raw))
}

// asIDList reads a list of references. A single id is accepted as a list of
// one; nil is the empty list.
func asIDList(raw any) ([]uint, error) {
	if raw == nil {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		id, err := asID(raw)
		if err != nil {
			return nil, invalid("Enter a list of values.")
		}
		return []uint{id}, nil
	}

	ids := make([]uint, 0, len(items))
	seen := make(map[uint]bool, len(items))
	for _, item := range items {
		id, err := asID(item)
		if err != nil {
			return nil, err
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// asVersion reads an optimistic concurrency token.
func asVersion(raw any) (int, error) {
	switch v := raw.(type) {
	case float64:
		if v == math.Trunc(v) {
			return int(v), nil
		}
	case int:
		return v, nil
	case json.Number:
		if n, err := strconv.Atoi(string(v)); err == nil {
			return n, nil
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n, nil
		}
	}
	return 0, invalid("Enter a whole number.")
}

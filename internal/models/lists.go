package models

import (
	"bytes"
	"encoding/json"
	"strings"
)

// StringList is a sequence of strings decoded leniently: a single JSON string
// becomes a one-element list and any other non-array value becomes empty.
type StringList []string

func (l *StringList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*l = StringList{}
		return nil
	}

	switch b[0] {
	case '"':
		var single string
		if err := json.Unmarshal(b, &single); err != nil {
			*l = StringList{}
			return nil
		}
		if strings.TrimSpace(single) == "" {
			*l = StringList{}
			return nil
		}
		*l = StringList{single}
	case '[':
		var raw []interface{}
		if err := json.Unmarshal(b, &raw); err != nil {
			*l = StringList{}
			return nil
		}
		out := make(StringList, 0, len(raw))
		for _, item := range raw {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		*l = out
	default:
		*l = StringList{}
	}
	return nil
}

// List is a sequence of records decoded leniently: anything that is not a
// JSON array of T decodes as an empty list instead of failing the request.
type List[T any] []T

func (l *List[T]) UnmarshalJSON(b []byte) error {
	var items []T
	if err := json.Unmarshal(b, &items); err != nil || items == nil {
		*l = List[T]{}
		return nil
	}
	*l = items
	return nil
}

// Clean trims entries and drops blanks.
func (l StringList) Clean() StringList {
	out := make(StringList, 0, len(l))
	for _, v := range l {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

package shared

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ID is an int64 identifier written as a JSON string and read from either a
// JSON string or number.
type ID int64

// MarshalJSON implements json.Marshaler.
func (id ID) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(strconv.FormatInt(int64(id), 10))), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	raw := string(data)
	if strings.HasPrefix(raw, `"`) {
		unquoted, err := strconv.Unquote(raw)
		if err != nil {
			return err
		}
		raw = unquoted
	}
	v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %s", data)
	}
	*id = ID(v)
	return nil
}

// IDList is a list of IDs with set semantics helpers.
type IDList []ID

// Int64s returns the ids de-duplicated, preserving first-seen order.
func (l IDList) Int64s() []int64 {
	return UniqueIDs(l.raw())
}

// ToIDList converts ids for JSON output.
func ToIDList(ids []int64) IDList {
	out := make(IDList, 0, len(ids))
	for _, id := range ids {
		out = append(out, ID(id))
	}
	return out
}

func (l IDList) raw() []int64 {
	out := make([]int64, 0, len(l))
	for _, id := range l {
		out = append(out, int64(id))
	}
	return out
}

// UniqueIDs removes duplicates and non-positive ids, preserving first-seen order.
func UniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// ParseIDList parses a comma separated id list such as "1,2,3".
func ParseIDList(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id <= 0 {
			return nil, NewValidationError("role_ids", "tidak valid")
		}
		ids = append(ids, id)
	}
	return UniqueIDs(ids), nil
}

var _ json.Marshaler = ID(0)

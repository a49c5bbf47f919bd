package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID is an opaque row identifier. Backends hand out uuids or integers, so
// ids are compared through Key and never through the raw value.
type ID string

func NewID() ID {
	return ID(uuid.NewString())
}

// ParseID validates user input. Empty or blank strings are rejected.
func ParseID(s string) (ID, error) {
	id := ID(s)
	if id.Key() == "" {
		return "", fmt.Errorf("empty id")
	}
	return id, nil
}

// Key is the normalized form used for map keys and comparisons.
func (id ID) Key() string {
	s := strings.TrimSpace(string(id))
	if u, err := uuid.Parse(s); err == nil {
		return u.String()
	}
	return s
}

func (id ID) String() string {
	return string(id)
}

func (id ID) IsZero() bool {
	return id.Key() == ""
}

func (id ID) Equal(other ID) bool {
	return id.Key() == other.Key()
}

// UnmarshalJSON accepts both string and numeric ids.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func Keys(ids []ID) []string {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, id.Key())
	}
	return keys
}

// UniqueKeys returns normalized keys with duplicates removed, first occurrence wins.
func UniqueKeys(ids []ID) []string {
	seen := make(map[string]struct{}, len(ids))
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		k := id.Key()
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	return keys
}

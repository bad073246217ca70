// internal/domain/models/profile.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// DefaultMaxDocDepth bounds the nesting of free-form profile documents.
const DefaultMaxDocDepth = 4

// ErrDocTooDeep is returned when a free-form document exceeds the allowed depth.
var ErrDocTooDeep = errors.New("document nesting exceeds the allowed depth")

// ExtendedProfile holds the per-user statistics block and the free-form
// documents (preferences, social links, saved searches). It lives in the
// "user_profiles" table, one row per user.
type ExtendedProfile struct {
	UserID        string  `db:"user_id" json:"-"`
	Preferences   DocMap  `db:"preferences" json:"preferences"`
	SocialLinks   DocMap  `db:"social_links" json:"social_links"`
	SavedSearches DocList `db:"saved_searches" json:"saved_searches"`

	UserStats

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// DocMap is a schemaless JSON object stored as JSONB. Values are limited to
// JSON types (string, float64, bool, nil, []any, map[string]any).
type DocMap map[string]any

// DocList is a schemaless JSON array stored as JSONB.
type DocList []any

// Validate checks that the document does not nest deeper than maxDepth.
// A flat object has depth 1.
func (m DocMap) Validate(maxDepth int) error {
	if depth(map[string]any(m)) > maxDepth {
		return ErrDocTooDeep
	}
	return nil
}

// Validate checks that the list does not nest deeper than maxDepth.
func (l DocList) Validate(maxDepth int) error {
	if depth([]any(l)) > maxDepth {
		return ErrDocTooDeep
	}
	return nil
}

func depth(v any) int {
	switch t := v.(type) {
	case map[string]any:
		max := 0
		for _, c := range t {
			if d := depth(c); d > max {
				max = d
			}
		}
		return max + 1
	case []any:
		max := 0
		for _, c := range t {
			if d := depth(c); d > max {
				max = d
			}
		}
		return max + 1
	}
	return 0
}

// Value implements driver.Valuer. The JSON is returned as a string so the
// driver sends it as text rather than bytea.
func (m DocMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(map[string]any(m))
	return string(b), err
}

// Scan implements sql.Scanner.
func (m *DocMap) Scan(src any) error {
	b, err := jsonBytes(src)
	if err != nil {
		return err
	}
	if len(b) == 0 {
		*m = DocMap{}
		return nil
	}
	out := DocMap{}
	if err := json.Unmarshal(b, &out); err != nil {
		return err
	}
	*m = out
	return nil
}

// Value implements driver.Valuer.
func (l DocList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]any(l))
	return string(b), err
}

// Scan implements sql.Scanner.
func (l *DocList) Scan(src any) error {
	b, err := jsonBytes(src)
	if err != nil {
		return err
	}
	if len(b) == 0 {
		*l = DocList{}
		return nil
	}
	out := DocList{}
	if err := json.Unmarshal(b, &out); err != nil {
		return err
	}
	*l = out
	return nil
}

func jsonBytes(src any) ([]byte, error) {
	switch v := src.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	}
	return nil, fmt.Errorf("unsupported JSONB source type %T", src)
}

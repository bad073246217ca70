// Package ordering turns an "ordering" query value such as "-created_at"
// into a MongoDB sort document.
//
// A leading "-" sorts descending. Known fields are created_at, price and
// area. What happens to other field names is decided by a Policy:
//
//   - Passthrough: the field is handed to the store unchanged
//   - Reject: the request fails with a validation error
//   - Ignore: the default ordering is used instead
package ordering

import (
	"fmt"
	"strings"

	"github.com/dalemusser/propertyhub/internal/app/system/apierr"
	"go.mongodb.org/mongo-driver/bson"
)

// Default is the ordering used when none is requested.
const Default = "-created_at"

// Policy decides how unknown sort fields are handled.
type Policy string

const (
	Passthrough Policy = "passthrough"
	Reject      Policy = "reject"
	Ignore      Policy = "ignore"
)

// ParsePolicy maps a config value to a Policy. Unknown values are an error.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case Passthrough, Reject, Ignore:
		return p, nil
	case "":
		return Passthrough, nil
	}
	return "", fmt.Errorf("unknown sort field policy %q (want passthrough|reject|ignore)", s)
}

var allowed = map[string]bool{
	"created_at": true,
	"price":      true,
	"area":       true,
}

// Allowed reports whether field is in the sort whitelist.
func Allowed(field string) bool {
	return allowed[field]
}

// Parse converts raw into a sort document under policy p.
// An empty raw value yields the default ordering.
func Parse(raw string, p Policy) (bson.D, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = Default
	}

	field := strings.TrimPrefix(raw, "-")
	dir := 1
	if strings.HasPrefix(raw, "-") {
		dir = -1
	}

	if field == "" {
		return Parse(Default, p)
	}

	if !Allowed(field) {
		switch p {
		case Reject:
			return nil, apierr.Validation("ordering", fmt.Sprintf("cannot order by %q", field))
		case Ignore:
			return Parse(Default, p)
		}
	}

	return bson.D{{Key: field, Value: dir}}, nil
}

package testutil

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// toDoc converts a value to a bson.M by round-tripping it through BSON, so
// the in-memory fakes see documents the way MongoDB would.
func toDoc(v any) bson.M {
	raw, err := bson.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("testutil: marshal: %v", err))
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		panic(fmt.Sprintf("testutil: unmarshal: %v", err))
	}
	return m
}

// matchFilter evaluates the subset of the MongoDB query language used by
// the application: equality, $or, $ne, $in, $nin, $gt, $gte, $lt, $lte and
// $regex with $options.
func matchFilter(doc bson.M, filter bson.M) bool {
	for key, cond := range filter {
		if key == "$or" {
			if !matchOr(doc, cond) {
				return false
			}
			continue
		}
		val, present := doc[key]
		if ops, ok := cond.(bson.M); ok && isOperatorDoc(ops) {
			if !matchOps(val, present, ops) {
				return false
			}
			continue
		}
		if !present || compare(val, cond) != 0 {
			return false
		}
	}
	return true
}

func matchOr(doc bson.M, cond any) bool {
	var clauses []bson.M
	switch t := cond.(type) {
	case bson.A:
		for _, c := range t {
			if m, ok := c.(bson.M); ok {
				clauses = append(clauses, m)
			}
		}
	case []bson.M:
		clauses = t
	}
	for _, c := range clauses {
		if matchFilter(doc, c) {
			return true
		}
	}
	return false
}

func isOperatorDoc(m bson.M) bool {
	for k := range m {
		if !strings.HasPrefix(k, "$") {
			return false
		}
	}
	return len(m) > 0
}

func matchOps(val any, present bool, ops bson.M) bool {
	for op, arg := range ops {
		switch op {
		case "$ne":
			if present && compare(val, arg) == 0 {
				return false
			}
		case "$in":
			if !present || !inList(val, arg) {
				return false
			}
		case "$nin":
			if inList(val, arg) || (!present && inList(nil, arg)) {
				return false
			}
		case "$gt":
			if !present || compare(val, arg) <= 0 {
				return false
			}
		case "$gte":
			if !present || compare(val, arg) < 0 {
				return false
			}
		case "$lt":
			if !present || compare(val, arg) >= 0 {
				return false
			}
		case "$lte":
			if !present || compare(val, arg) > 0 {
				return false
			}
		case "$regex":
			s, ok := val.(string)
			if !ok {
				return false
			}
			pattern, _ := arg.(string)
			if opts, _ := ops["$options"].(string); strings.Contains(opts, "i") {
				pattern = "(?i)" + pattern
			}
			re, err := regexp.Compile(pattern)
			if err != nil || !re.MatchString(s) {
				return false
			}
		case "$options":
		default:
			panic("testutil: unsupported operator " + op)
		}
	}
	return true
}

func inList(val any, arg any) bool {
	list, _ := arg.(bson.A)
	for _, item := range list {
		if item == nil && val == nil {
			return true
		}
		if item != nil && val != nil && compare(val, item) == 0 {
			return true
		}
	}
	return false
}

// compare orders two BSON scalar values. Numbers compare numerically
// across types; mismatched kinds compare as unequal.
func compare(a, b any) int {
	if fa, ok := number(a); ok {
		if fb, ok := number(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
		return 2
	}
	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y)
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0
			case !x:
				return -1
			}
			return 1
		}
	case primitive.DateTime:
		ta := x.Time()
		var tb time.Time
		switch y := b.(type) {
		case primitive.DateTime:
			tb = y.Time()
		case time.Time:
			tb = y
		default:
			return 2
		}
		switch {
		case ta.Before(tb):
			return -1
		case ta.After(tb):
			return 1
		}
		return 0
	case primitive.ObjectID:
		if y, ok := b.(primitive.ObjectID); ok {
			return strings.Compare(x.Hex(), y.Hex())
		}
	case nil:
		if b == nil {
			return 0
		}
	}
	return 2
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// sortDocs orders docs by a bson.D sort document. Missing fields sort
// first, as in MongoDB.
func sortDocs(docs []bson.M, keys bson.D) {
	if len(keys) == 0 {
		return
	}
	sort.SliceStable(docs, func(i, j int) bool {
		for _, e := range keys {
			dir := 1
			if n, ok := number(e.Value); ok && n < 0 {
				dir = -1
			}
			a, aok := docs[i][e.Key]
			b, bok := docs[j][e.Key]
			var c int
			switch {
			case !aok && !bok:
				c = 0
			case !aok:
				c = -1
			case !bok:
				c = 1
			default:
				c = compare(a, b)
				if c == 2 {
					c = 0
				}
			}
			if c != 0 {
				return c*dir < 0
			}
		}
		return false
	})
}

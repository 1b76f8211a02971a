package extract

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// resolveCommentList locates the comment list inside a decoded JSON payload.
// The site's endpoints disagree on where the list lives, so the shapes are
// tried in a fixed order and the first match wins:
//
//  1. a top-level "comments" key
//  2. a "data" key that is itself a list, or an object containing "comments",
//     or an object whose values are scanned for the first list-typed or
//     comments-bearing value
//  3. a "result.items" path (or "result" as a bare list)
//
// The nested scan walks the object's keys in sorted order so the pick is
// deterministic across runs. A present-but-empty list at any of the known
// locations counts as a recognized shape with zero records; only a payload
// matching no shape at all yields (nil, false).
func resolveCommentList(payload map[string]interface{}) ([]interface{}, bool) {
	r := &listResolver{}

	if items, ok := r.take(payload["comments"]); ok {
		return items, true
	}

	if data, present := payload["data"]; present && data != nil {
		if items, ok := r.take(data); ok {
			return items, true
		}
		if obj, ok := data.(map[string]interface{}); ok {
			if items, ok := r.take(obj["comments"]); ok {
				return items, true
			}
			keys := make([]string, 0, len(obj))
			for k := range obj {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				if inner, ok := obj[k].(map[string]interface{}); ok {
					if items, ok := r.take(inner["comments"]); ok {
						return items, true
					}
					continue
				}
				if items, ok := r.take(obj[k]); ok {
					return items, true
				}
			}
		}
	}

	if result, present := payload["result"]; present && result != nil {
		if obj, ok := result.(map[string]interface{}); ok {
			if items, ok := r.take(obj["items"]); ok {
				return items, true
			}
		}
		if items, ok := r.take(result); ok {
			return items, true
		}
	}

	if r.sawEmpty {
		return nil, true
	}
	return nil, false
}

// listResolver tracks empty-list sightings while the non-empty shapes are
// tried, so an exhausted category reads as end of data, not a new shape
type listResolver struct {
	sawEmpty bool
}

func (r *listResolver) take(v interface{}) ([]interface{}, bool) {
	items, ok := v.([]interface{})
	if !ok {
		return nil, false
	}
	if len(items) == 0 {
		r.sawEmpty = true
		return nil, false
	}
	return items, true
}

func asList(v interface{}) ([]interface{}, bool) {
	items, ok := v.([]interface{})
	if !ok || len(items) == 0 {
		return nil, false
	}
	return items, true
}

// lookup walks a dotted path ("userInfo.userNick") through nested objects
func lookup(m map[string]interface{}, path string) (interface{}, bool) {
	current := interface{}(m)
	for _, key := range strings.Split(path, ".") {
		obj, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = obj[key]
		if !ok || current == nil {
			return nil, false
		}
	}
	return current, true
}

// stringField tries each dotted path in order and returns the first present,
// non-empty value rendered as a string. Missing fields resolve to "".
func stringField(m map[string]interface{}, paths ...string) string {
	for _, path := range paths {
		if v, ok := lookup(m, path); ok {
			if s := valueToString(v); s != "" {
				return s
			}
		}
	}
	return ""
}

// intField is stringField for counters, defaulting to "0"
func intField(m map[string]interface{}, paths ...string) string {
	if s := stringField(m, paths...); s != "" {
		return s
	}
	return "0"
}

// valueToString renders scalar JSON values without the float artifacts that
// a plain Sprintf would produce for whole numbers
func valueToString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// intValue renders a numeric JSON value as an int, defaulting to 0
func intValue(v interface{}) int {
	switch val := v.(type) {
	case float64:
		return int(val)
	case string:
		n, _ := strconv.Atoi(strings.TrimSpace(val))
		return n
	default:
		return 0
	}
}

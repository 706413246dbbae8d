// Package template resolves {{dotted.path}} placeholders against a run's
// data scope. Pure text transform, no I/O.
package template

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/flowgrid/flowgrid/pkg/models"
)

// CurrentDataToken is the reserved first path segment addressing the run's
// current data scope.
const CurrentDataToken = "$json"

var placeholderPattern = regexp.MustCompile(`\{\{\s*([^{}]+?)\s*\}\}`)

// Resolve replaces every {{dotted.path}} placeholder in input. Resolution
// order per placeholder:
//
//  1. first segment == $json: walk the remaining segments into current data
//  2. first segment names a finished node: walk into its recorded outcome
//  3. a single bare segment that is a key of current data: that value
//  4. otherwise the placeholder text passes through verbatim
func Resolve(input string, rc *models.RunContext) string {
	if rc == nil || !strings.Contains(input, "{{") {
		return input
	}

	return placeholderPattern.ReplaceAllStringFunc(input, func(match string) string {
		path := strings.TrimSpace(placeholderPattern.FindStringSubmatch(match)[1])

		value, ok := lookup(path, rc)
		if !ok {
			return match
		}

		return Stringify(value)
	})
}

// ResolveParams runs every string-valued parameter through Resolve, leaving
// other value types untouched.
func ResolveParams(params map[string]any, rc *models.RunContext) map[string]any {
	resolved := make(map[string]any, len(params))

	for key, value := range params {
		if str, ok := value.(string); ok {
			resolved[key] = Resolve(str, rc)
		} else {
			resolved[key] = value
		}
	}

	return resolved
}

func lookup(path string, rc *models.RunContext) (any, bool) {
	segments := strings.Split(path, ".")
	if len(segments) == 0 || segments[0] == "" {
		return nil, false
	}

	if segments[0] == CurrentDataToken {
		return walk(rc.Current, segments[1:])
	}

	if outcome, ok := rc.Results[segments[0]]; ok {
		return walk(outcome.AsMap(), segments[1:])
	}

	if len(segments) == 1 {
		if value, ok := rc.Current[segments[0]]; ok {
			return value, true
		}
	}

	return nil, false
}

// walk descends a map along the given segments. An empty segment list yields
// the map itself.
func walk(scope map[string]any, segments []string) (any, bool) {
	var current any = scope

	for _, segment := range segments {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}

		current, ok = m[segment]
		if !ok {
			return nil, false
		}
	}

	return current, true
}

// Stringify renders a resolved value for substitution into a string. Strings
// pass through; structured values render as compact JSON.
func Stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case nil:
		return ""
	case float64, int, int64, bool:
		return fmt.Sprintf("%v", v)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}

		return string(encoded)
	}
}

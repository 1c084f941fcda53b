package navigation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/yosida95/uritemplate/v3"
)

// FormatPath fills the placeholders of an endpoint template from params.
// Templates follow RFC 6570, so "/buyers/accounts/{account_id}" and
// "/search{?q}" are both valid. Every simple placeholder must have a value;
// query expansions may be omitted.
func FormatPath(template string, params Params) (string, error) {
	if !strings.Contains(template, "{") {
		return template, nil
	}
	tmpl, err := uritemplate.New(template)
	if err != nil {
		return "", fmt.Errorf("parse endpoint template %q: %w", template, err)
	}

	values := uritemplate.Values{}
	var missing []string
	for _, name := range tmpl.Varnames() {
		v, ok := params[name]
		if !ok {
			if !optionalVar(template, name) {
				missing = append(missing, name)
			}
			continue
		}
		values.Set(name, toValue(v))
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return "", fmt.Errorf("%w: %s in %q", ErrMissingParam, strings.Join(missing, ", "), template)
	}

	path, err := tmpl.Expand(values)
	if err != nil {
		return "", fmt.Errorf("expand endpoint template %q: %w", template, err)
	}
	return path, nil
}

var expressionRe = regexp.MustCompile(`\{([^}]*)\}`)

// optionalVar reports whether name only appears in query or fragment
// expressions, which expand to nothing when undefined.
func optionalVar(template, name string) bool {
	found := false
	for _, m := range expressionRe.FindAllStringSubmatch(template, -1) {
		expr := m[1]
		if expr == "" {
			continue
		}
		op := expr[0]
		if strings.ContainsRune("+#./;?&", rune(op)) {
			expr = expr[1:]
		}
		for _, spec := range strings.Split(expr, ",") {
			spec = strings.TrimSuffix(spec, "*")
			if i := strings.IndexByte(spec, ':'); i >= 0 {
				spec = spec[:i]
			}
			if spec != name {
				continue
			}
			if op != '?' && op != '&' && op != '#' {
				return false
			}
			found = true
		}
	}
	return found
}

// MatchPath reports whether path is an expansion of template.
func MatchPath(template, path string) bool {
	if !strings.Contains(template, "{") {
		return path == template
	}
	tmpl, err := uritemplate.New(template)
	if err != nil {
		return false
	}
	return tmpl.Regexp().MatchString(path)
}

func toValue(v any) uritemplate.Value {
	switch val := v.(type) {
	case []string:
		return uritemplate.List(val...)
	case map[string]string:
		kv := make([]string, 0, len(val)*2)
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			kv = append(kv, k, val[k])
		}
		return uritemplate.KV(kv...)
	case fmt.Stringer:
		return uritemplate.String(val.String())
	default:
		return uritemplate.String(fmt.Sprint(val))
	}
}

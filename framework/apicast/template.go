package apicast

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	templatev1 "github.com/openshift/api/template/v1"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	utiljson "k8s.io/apimachinery/pkg/util/json"
	"sigs.k8s.io/yaml"
)

var (
	// ErrMissingParameter indicates a required template parameter has no value
	ErrMissingParameter = errors.New("missing required template parameter")

	// ErrUnknownParameter indicates a value was given for a parameter the template does not declare
	ErrUnknownParameter = errors.New("unknown template parameter")
)

var (
	paramRef  = regexp.MustCompile(`\$\{\{?([A-Za-z0-9_]+)\}?\}`)
	rawRef    = regexp.MustCompile(`^\$\{\{([A-Za-z0-9_]+)\}\}$`)
	genLength = regexp.MustCompile(`\{(\d+)\}$`)
)

// LoadTemplate reads an OpenShift template from a local file or an http(s) URL
func LoadTemplate(ctx context.Context, location string) (*templatev1.Template, error) {
	var data []byte
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch template %s: %w", location, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("failed to fetch template %s: unexpected status code %d", location, resp.StatusCode)
		}
		data, err = io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read template %s: %w", location, err)
		}
	} else {
		var err error
		data, err = os.ReadFile(location)
		if err != nil {
			return nil, fmt.Errorf("failed to read template %s: %w", location, err)
		}
	}
	return ParseTemplate(data)
}

// ParseTemplate decodes a YAML or JSON template
func ParseTemplate(data []byte) (*templatev1.Template, error) {
	var t templatev1.Template
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	if len(t.Objects) == 0 {
		return nil, fmt.Errorf("template %q has no objects", t.Name)
	}
	return &t, nil
}

// Process resolves the template parameters and returns its objects with every
// ${NAME} and ${{NAME}} reference substituted. Values in params override the
// template defaults; parameters marked generate=expression get a random value
// when nothing else provides one.
func Process(t *templatev1.Template, params map[string]string) ([]*unstructured.Unstructured, error) {
	values, err := resolve(t.Parameters, params)
	if err != nil {
		return nil, err
	}

	objects := make([]*unstructured.Unstructured, 0, len(t.Objects))
	for i, raw := range t.Objects {
		data := raw.Raw
		if len(data) == 0 && raw.Object != nil {
			data, err = utiljson.Marshal(raw.Object)
			if err != nil {
				return nil, fmt.Errorf("object %d: %w", i, err)
			}
		}
		var content map[string]interface{}
		if err := utiljson.Unmarshal(data, &content); err != nil {
			return nil, fmt.Errorf("object %d: %w", i, err)
		}

		obj := &unstructured.Unstructured{Object: substitute(content, values).(map[string]interface{})}
		if len(t.ObjectLabels) > 0 {
			labels := obj.GetLabels()
			if labels == nil {
				labels = make(map[string]string)
			}
			for k, v := range t.ObjectLabels {
				labels[k] = v
			}
			obj.SetLabels(labels)
		}
		objects = append(objects, obj)
	}
	return objects, nil
}

func resolve(declared []templatev1.Parameter, params map[string]string) (map[string]string, error) {
	values := make(map[string]string, len(declared))
	known := make(map[string]bool, len(declared))
	var missing []string

	for _, p := range declared {
		known[p.Name] = true
		value, ok := params[p.Name]
		if !ok {
			value = p.Value
		}
		if value == "" && p.Generate == "expression" {
			var err error
			if value, err = generate(p.From); err != nil {
				return nil, fmt.Errorf("parameter %s: %w", p.Name, err)
			}
		}
		if value == "" && p.Required {
			missing = append(missing, p.Name)
		}
		values[p.Name] = value
	}

	var unknown []string
	for name := range params {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}

	var errs []error
	if len(missing) > 0 {
		errs = append(errs, fmt.Errorf("%w: %s", ErrMissingParameter, strings.Join(missing, ", ")))
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		errs = append(errs, fmt.Errorf("%w: %s", ErrUnknownParameter, strings.Join(unknown, ", ")))
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return values, nil
}

// substitute walks a decoded object replacing parameter references in strings.
// A string that is exactly ${{NAME}} is replaced by the JSON value of NAME, so
// "${{REPLICAS}}" can become a number.
func substitute(v interface{}, values map[string]string) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		for k, item := range val {
			val[k] = substitute(item, values)
		}
		return val
	case []interface{}:
		for i, item := range val {
			val[i] = substitute(item, values)
		}
		return val
	case string:
		if m := rawRef.FindStringSubmatch(val); m != nil {
			if value, ok := values[m[1]]; ok {
				var decoded interface{}
				if err := utiljson.Unmarshal([]byte(value), &decoded); err == nil {
					return decoded
				}
				return value
			}
		}
		return paramRef.ReplaceAllStringFunc(val, func(ref string) string {
			name := paramRef.FindStringSubmatch(ref)[1]
			if value, ok := values[name]; ok {
				return value
			}
			return ref
		})
	default:
		return v
	}
}

const generateAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// generate produces a random lowercase alphanumeric value whose length is taken
// from a trailing {N} in the expression, 8 otherwise
func generate(from string) (string, error) {
	n := 8
	if m := genLength.FindStringSubmatch(from); m != nil {
		if parsed, err := strconv.Atoi(m[1]); err == nil && parsed > 0 {
			n = parsed
		}
	}

	var b strings.Builder
	limit := big.NewInt(int64(len(generateAlphabet)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		b.WriteByte(generateAlphabet[idx.Int64()])
	}
	return b.String(), nil
}

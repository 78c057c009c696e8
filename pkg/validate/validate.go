// Package validate implements struct-tag validation for request inputs.
//
// Rules (comma-separated in the `validate` tag):
//
//	required          field must not be zero/empty
//	nullable          if empty, skip the remaining rules for this field
//	email             valid email address
//	url               absolute http(s) URL
//	image_data_uri    data:image/<type>;base64,<payload>
//	min=N / max=N     string: char length | number: value
//	gte=N / lte=N     number bounds (inclusive)
//	between=lo,hi     number or string length between lo and hi (inclusive)
//	in=a,b,c          value must be one of the listed items (case-sensitive)
//	after_field=name  time value must not be before sibling field `name`
//
// The error map is keyed by the field's json name; only the first failing
// rule per field is reported.
package validate

import (
	"encoding/base64"
	"fmt"
	"math"
	"net/url"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Struct validates every exported field of v carrying a `validate` tag.
func Struct(v interface{}) map[string]string {
	errs := make(map[string]string)
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return errs
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return errs
	}
	rt := rv.Type()

	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		tag := field.Tag.Get("validate")
		if tag == "" || !field.IsExported() {
			continue
		}

		value := rv.Field(i)
		name := jsonFieldName(field)
		rules := splitRules(tag)

		if hasRule(rules, "nullable") && isEmpty(value) {
			continue
		}
		if !hasRule(rules, "required") && isEmpty(value) {
			continue
		}

		for _, rule := range rules {
			if rule == "nullable" {
				continue
			}
			if msg := applyRule(rule, name, value, rv); msg != "" {
				errs[name] = msg
				break
			}
		}
	}

	return errs
}

// HasErrors reports whether errs holds at least one failure.
func HasErrors(errs map[string]string) bool { return len(errs) > 0 }

func applyRule(rule, field string, v, parent reflect.Value) string {
	v = deref(v)
	raw := stringOf(v)
	key, param, _ := strings.Cut(rule, "=")

	// NaN and ±Inf compare false against every bound.
	if bounded[key] && isNumericKind(v) && !finite(toFloat(v)) {
		return fmt.Sprintf("The %s must be a finite number.", field)
	}

	switch key {
	case "required":
		if isEmpty(v) {
			return fmt.Sprintf("The %s field is required.", field)
		}

	case "email":
		if !emailRE.MatchString(raw) {
			return fmt.Sprintf("The %s must be a valid email address.", field)
		}
	case "url":
		u, err := url.ParseRequestURI(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Sprintf("The %s must be a valid URL.", field)
		}
	case "image_data_uri":
		if !IsImageDataURI(raw) {
			return fmt.Sprintf("The %s must be a base64 image data URI.", field)
		}

	case "min":
		n := parseFloat(param)
		if isNumericKind(v) {
			if toFloat(v) < n {
				return fmt.Sprintf("The %s must be at least %s.", field, param)
			}
		} else if float64(len([]rune(strings.TrimSpace(raw)))) < n {
			return fmt.Sprintf("The %s must be at least %s characters.", field, param)
		}
	case "max":
		n := parseFloat(param)
		if isNumericKind(v) {
			if toFloat(v) > n {
				return fmt.Sprintf("The %s must not be greater than %s.", field, param)
			}
		} else if float64(len([]rune(raw))) > n {
			return fmt.Sprintf("The %s must not exceed %s characters.", field, param)
		}
	case "gte":
		if toFloat(v) < parseFloat(param) {
			return fmt.Sprintf("The %s must be greater than or equal to %s.", field, param)
		}
	case "lte":
		if toFloat(v) > parseFloat(param) {
			return fmt.Sprintf("The %s must be less than or equal to %s.", field, param)
		}
	case "between":
		lo, hi, ok := strings.Cut(param, ",")
		if !ok {
			return ""
		}
		l, h := parseFloat(lo), parseFloat(hi)
		if isNumericKind(v) {
			if f := toFloat(v); f < l || f > h {
				return fmt.Sprintf("The %s must be between %s and %s.", field, lo, hi)
			}
		} else if n := float64(len([]rune(raw))); n < l || n > h {
			return fmt.Sprintf("The %s must be between %s and %s characters.", field, lo, hi)
		}

	case "in":
		for _, a := range strings.Split(param, ",") {
			if raw == strings.TrimSpace(a) {
				return ""
			}
		}
		return fmt.Sprintf("The selected %s is invalid.", field)

	case "after_field":
		other, ok := siblingByJSONName(parent, param)
		if !ok || isEmpty(other) {
			return ""
		}
		t1, ok1 := asTime(v)
		t2, ok2 := asTime(deref(other))
		if ok1 && ok2 && t1.Before(t2) {
			return fmt.Sprintf("The %s must not be before %s.", field, param)
		}
	}

	return ""
}

// ─── Data URIs ───────────────────────────────────────────────────────────────

var dataURIRE = regexp.MustCompile(`^data:(image/[a-zA-Z0-9.+\-]+);base64,([A-Za-z0-9+/=\r\n]+)$`)

// IsImageDataURI reports whether s is a base64 data URI with an image/* type.
func IsImageDataURI(s string) bool {
	_, _, err := ParseImageDataURI(s)
	return err == nil
}

// ParseImageDataURI splits a data URI into its mime type and decoded bytes.
func ParseImageDataURI(s string) (mime string, data []byte, err error) {
	m := dataURIRE.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return "", nil, fmt.Errorf("validate: not an image data URI")
	}
	data, err = base64.StdEncoding.DecodeString(strings.NewReplacer("\r", "", "\n", "").Replace(m[2]))
	if err != nil {
		return "", nil, fmt.Errorf("validate: data URI payload: %w", err)
	}
	if len(data) == 0 {
		return "", nil, fmt.Errorf("validate: empty data URI payload")
	}
	return strings.ToLower(m[1]), data, nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

var emailRE = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

var timeType = reflect.TypeOf(time.Time{})

func deref(v reflect.Value) reflect.Value {
	for v.Kind() == reflect.Ptr && !v.IsNil() {
		v = v.Elem()
	}
	return v
}

func stringOf(v reflect.Value) string {
	if !v.IsValid() || (v.Kind() == reflect.Ptr && v.IsNil()) {
		return ""
	}
	if v.Kind() == reflect.String {
		return v.String()
	}
	return fmt.Sprintf("%v", v.Interface())
}

func asTime(v reflect.Value) (time.Time, bool) {
	if v.IsValid() && v.Type() == timeType {
		return v.Interface().(time.Time), true
	}
	return time.Time{}, false
}

func isEmpty(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.String:
		return strings.TrimSpace(v.String()) == ""
	case reflect.Slice, reflect.Map, reflect.Array:
		return v.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return v.IsNil()
	case reflect.Bool:
		return false
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Struct:
		if t, ok := asTime(v); ok {
			return t.IsZero()
		}
	}
	return false
}

func isNumericKind(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func toFloat(v reflect.Value) float64 {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint())
	case reflect.Float32, reflect.Float64:
		return v.Float()
	}
	return parseFloat(stringOf(v))
}

var bounded = map[string]bool{"min": true, "max": true, "gte": true, "lte": true, "between": true}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}

func jsonFieldName(f reflect.StructField) string {
	name := f.Tag.Get("json")
	if name == "" || name == "-" {
		return strings.ToLower(f.Name)
	}
	if idx := strings.Index(name, ","); idx != -1 {
		name = name[:idx]
	}
	return name
}

func siblingByJSONName(parent reflect.Value, name string) (reflect.Value, bool) {
	rt := parent.Type()
	for i := 0; i < rt.NumField(); i++ {
		if jsonFieldName(rt.Field(i)) == name {
			return parent.Field(i), true
		}
	}
	return reflect.Value{}, false
}

var ruleNames = []string{
	"required", "nullable", "email", "url", "image_data_uri",
	"min=", "max=", "gte=", "lte=", "between=", "in=", "after_field=",
}

// splitRules splits a tag on commas while keeping the values of in= and
// between= together: "required,in=a,b,c,max=3" → [required in=a,b,c max=3].
func splitRules(tag string) []string {
	var rules []string
	for _, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)
		n := len(rules)
		if n > 0 && !startsRule(part) &&
			(strings.HasPrefix(rules[n-1], "in=") || strings.HasPrefix(rules[n-1], "between=")) {
			rules[n-1] += "," + part
			continue
		}
		if part != "" {
			rules = append(rules, part)
		}
	}
	return rules
}

func startsRule(s string) bool {
	for _, k := range ruleNames {
		if s == k || (strings.HasSuffix(k, "=") && strings.HasPrefix(s, k)) {
			return true
		}
	}
	return false
}

func hasRule(rules []string, target string) bool {
	for _, r := range rules {
		if r == target {
			return true
		}
	}
	return false
}

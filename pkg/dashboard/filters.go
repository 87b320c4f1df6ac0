package dashboard

import (
	"net/url"
	"regexp"
	"sort"
	"strings"
)

var (
	optionalPattern = regexp.MustCompile(`\[\[[^\]]*\]\]`)
	variablePattern = regexp.MustCompile(`:([a-zA-Z0-9_]+)`)
)

// FilterKeys returns the names of the dashboard filters present in args, sorted.
func FilterKeys(d *Dashboard, args url.Values) []string {
	var keys []string
	for name := range d.Filters {
		if _, ok := args[name]; ok {
			keys = append(keys, name)
		}
	}
	sort.Strings(keys)
	return keys
}

// Parameters returns the first value of each key in args.
func Parameters(args url.Values, keys []string) map[string]string {
	params := make(map[string]string, len(keys))
	for _, k := range keys {
		params[k] = args.Get(k)
	}
	return params
}

// QueryString url-encodes the first value of each key in args, sorted by key.
func QueryString(args url.Values, keys []string) string {
	v := make(url.Values, len(keys))
	for _, k := range keys {
		v.Set(k, args.Get(k))
	}
	return v.Encode()
}

// DefaultFilters returns the filters that have a non-empty default.
func DefaultFilters(d *Dashboard) map[string]string {
	defaults := make(map[string]string)
	for name, f := range d.Filters {
		if v := f.DefaultValue(); v != "" {
			defaults[name] = v
		}
	}
	return defaults
}

// RedirectQuery returns the query string to redirect to when args carries no
// filter and the dashboard has defaults.
func RedirectQuery(d *Dashboard, args url.Values) (string, bool) {
	if len(FilterKeys(d, args)) > 0 {
		return "", false
	}
	defaults := DefaultFilters(d)
	if len(defaults) == 0 {
		return "", false
	}
	v := make(url.Values, len(defaults))
	for k, val := range defaults {
		v.Set(k, val)
	}
	return v.Encode(), true
}

// FillQueryOptions resolves the optional [[ ... ]] segments of query. A
// segment is kept, without its brackets, when the first :variable it names
// has a non-empty value in params. Otherwise it is removed.
func FillQueryOptions(query string, params map[string]string) string {
	return optionalPattern.ReplaceAllStringFunc(query, func(opt string) string {
		var name string
		if m := variablePattern.FindStringSubmatch(opt); m != nil {
			name = m[1]
		}
		if v, ok := params[name]; ok && v != "" {
			return strings.Trim(opt, "[]")
		}
		return ""
	})
}

// QueryVariables returns the distinct :variable names used in query, in order
// of first use.
func QueryVariables(query string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range variablePattern.FindAllStringSubmatch(query, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			out = append(out, m[1])
		}
	}
	return out
}

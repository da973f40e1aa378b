package goquery

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/docsift"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	zeroWidth     = regexp.MustCompile(`[\x{200B}-\x{200D}\x{FEFF}]`)
)

// cleanText normalizes extracted text: trimmed, internal whitespace runs
// collapsed to single spaces, zero-width characters stripped.
func cleanText(s string) string {
	s = whitespaceRun.ReplaceAllString(strings.TrimSpace(s), " ")
	return zeroWidth.ReplaceAllString(s, "")
}

// Resolver evaluates one field's configuration against a document subtree.
// Successful resolutions are reported to the run's selector telemetry.
type Resolver struct {
	telemetry *docsift.SelectorTelemetry
}

// NewResolver creates a Resolver. telemetry may be nil.
func NewResolver(telemetry *docsift.SelectorTelemetry) *Resolver {
	return &Resolver{telemetry: telemetry}
}

// Resolve evaluates a field config against scope and returns the resolved,
// coerced value, or the configured fallback when nothing was found.
//
// The from_url, canonical_url and json_ld methods bypass selector iteration,
// pattern refinement and coercion entirely and return their result directly.
func (r *Resolver) Resolve(scope *goquery.Selection, cfg docsift.FieldConfig, url string) docsift.Value {
	switch cfg.Method {
	case docsift.MethodFromURL:
		return fromURL(url, cfg)
	case docsift.MethodCanonicalURL:
		return CanonicalURL(scope)
	case docsift.MethodJSONLD:
		return jsonLD(scope, cfg)
	}

	value := docsift.Null()
	for _, spec := range cfg.Selectors {
		method := cfg.Method
		if spec.Method != "" {
			method = spec.Method
		}
		attribute := cfg.Attribute
		if spec.Attribute != "" {
			attribute = spec.Attribute
		}

		v := evalSelector(scope, spec.Selector, method, attribute)
		if v.Found() {
			value = v
			if r.telemetry != nil {
				r.telemetry.Record(spec.Selector)
			}
			break
		}
	}

	if !value.Found() {
		return cfg.Fallback
	}

	if cfg.Pattern != nil {
		value = applyPattern(value, cfg.Pattern)
	}

	return docsift.Coerce(value, cfg.Type)
}

// evalSelector extracts a raw value for one selector with one method.
func evalSelector(scope *goquery.Selection, selector string, method docsift.Method, attribute string) docsift.Value {
	switch method {
	case docsift.MethodText:
		sel := scope.Find(selector).First()
		if sel.Length() == 0 {
			return docsift.Null()
		}
		return docsift.String(cleanText(sel.Text()))

	case docsift.MethodHTML:
		sel := scope.Find(selector).First()
		if sel.Length() == 0 {
			return docsift.Null()
		}
		html, err := goquery.OuterHtml(sel)
		if err != nil {
			return docsift.Null()
		}
		return docsift.String(html)

	case docsift.MethodAttribute:
		sel := scope.Find(selector).First()
		if sel.Length() == 0 || attribute == "" {
			return docsift.Null()
		}
		return docsift.String(sel.AttrOr(attribute, ""))

	case docsift.MethodTextList:
		return collectList(scope, selector, "")

	case docsift.MethodList:
		return collectList(scope, selector, attribute)

	case docsift.MethodExists:
		return docsift.Bool(scope.Find(selector).Length() > 0)
	}

	return docsift.Null()
}

// collectList gathers all matches as a string list, dropping empties.
// With an attribute it collects attribute values, otherwise text content.
func collectList(scope *goquery.Selection, selector, attribute string) docsift.Value {
	var out []string
	scope.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		var v string
		if attribute != "" {
			v = sel.AttrOr(attribute, "")
		} else {
			v = cleanText(sel.Text())
		}
		if v != "" {
			out = append(out, v)
		}
	})
	return docsift.StringList(out)
}

// applyPattern refines a found value with the configured regex: the first
// capture group when the pattern has groups, the whole match otherwise. A
// non-matching pattern leaves the value unchanged. Lists are refined
// element-wise, dropping falsy results.
func applyPattern(v docsift.Value, re *regexp.Regexp) docsift.Value {
	if v.Kind() == docsift.KindList {
		var out []docsift.Value
		for _, s := range v.Strings() {
			if s == "" {
				continue
			}
			refined := applyPattern(docsift.String(s), re)
			if refined.Found() {
				out = append(out, refined)
			}
		}
		return docsift.List(out)
	}

	if v.Kind() != docsift.KindString {
		return v
	}

	m := re.FindStringSubmatch(v.Str())
	if m == nil {
		return v
	}
	if re.NumSubexp() > 0 {
		return docsift.String(m[1])
	}
	return docsift.String(m[0])
}

// fromURL applies the configured pattern to the page URL and returns the
// configured capture group (default: the whole match).
func fromURL(url string, cfg docsift.FieldConfig) docsift.Value {
	if cfg.Pattern == nil {
		return docsift.Null()
	}
	m := cfg.Pattern.FindStringSubmatch(url)
	if m == nil || cfg.Group >= len(m) {
		return docsift.Null()
	}
	return docsift.String(m[cfg.Group])
}

// CanonicalURL reads the canonical link element's href, or null.
func CanonicalURL(scope *goquery.Selection) docsift.Value {
	sel := scope.Find(`link[rel="canonical"]`).First()
	if sel.Length() == 0 {
		return docsift.Null()
	}
	href, ok := sel.Attr("href")
	if !ok {
		return docsift.Null()
	}
	return docsift.String(href)
}

// jsonLD scans matching script elements for a JSON-LD object whose @type is
// in the configured allow-list. A top-level @graph array is unwrapped.
func jsonLD(scope *goquery.Selection, cfg docsift.FieldConfig) docsift.Value {
	selector := cfg.JSONLDSelector
	if selector == "" {
		selector = `script[type="application/ld+json"]`
	}

	var result docsift.Value
	scope.Find(selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		var data any
		if err := json.Unmarshal([]byte(sel.Text()), &data); err != nil {
			return true
		}

		if obj, ok := data.(map[string]any); ok {
			if graph, hasGraph := obj["@graph"]; hasGraph {
				data = graph
			}
		}

		switch t := data.(type) {
		case []any:
			for _, item := range t {
				if obj, ok := item.(map[string]any); ok && typeAllowed(obj, cfg.SchemaTypes) {
					result = docsift.Object(obj)
					return false
				}
			}
		case map[string]any:
			if typeAllowed(t, cfg.SchemaTypes) {
				result = docsift.Object(t)
				return false
			}
		}
		return true
	})

	return result
}

func typeAllowed(obj map[string]any, schemaTypes []string) bool {
	t, _ := obj["@type"].(string)
	for _, allowed := range schemaTypes {
		if t == allowed {
			return true
		}
	}
	return false
}

package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/docsift"
)

// Classifier assigns a page type to a document using the detection rules of
// the selector schema. Rules are evaluated type-by-type, channel-by-channel,
// in schema declaration order; the first classification found wins. There is
// no scoring and no specificity tie-breaking.
type Classifier struct {
	rules []docsift.DetectionRule
}

// NewClassifier creates a Classifier over the schema's detection rules.
func NewClassifier(schemas *docsift.SchemaSet) *Classifier {
	return &Classifier{rules: schemas.Detection}
}

// Classify returns the page type for a document, or "" when no rule
// matches. Unclassified documents are skipped by the pipeline.
func (c *Classifier) Classify(url string, doc *goquery.Document) string {
	for _, rule := range c.rules {
		if rule.URLPattern != nil && rule.URLPattern.MatchString(url) {
			return rule.PageType
		}

		if matchesMeta(doc, rule.Meta) {
			return rule.PageType
		}

		if matchesBodyClass(doc, rule.BodyClasses) {
			return rule.PageType
		}
	}
	return ""
}

func matchesMeta(doc *goquery.Document, rules []docsift.MetaRule) bool {
	for _, m := range rules {
		sel := doc.Find(m.Selector).First()
		if sel.Length() == 0 {
			continue
		}
		actual := strings.ToLower(sel.AttrOr(m.Attribute, ""))
		if strings.Contains(actual, strings.ToLower(m.Value)) {
			return true
		}
	}
	return false
}

func matchesBodyClass(doc *goquery.Document, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}
	classes := strings.Fields(doc.Find("body").First().AttrOr("class", ""))
	for _, pattern := range patterns {
		p := strings.ToLower(pattern)
		for _, class := range classes {
			if strings.Contains(strings.ToLower(class), p) {
				return true
			}
		}
	}
	return false
}

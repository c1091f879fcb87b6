// Package sanitize strips markup from user-supplied text.
package sanitize

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// dropped elements lose their content as well as their tags.
const dropped = "script, style, iframe, object, embed, noscript, template"

// StripTags returns the text content of s with every element removed.
// Content of script-like elements is discarded entirely.
func StripTags(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return ""
	}
	doc.Find(dropped).Remove()
	return strings.TrimSpace(doc.Find("body").Text())
}

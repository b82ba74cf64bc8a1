package service

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// textPolicy strips every tag from user supplied text
var textPolicy = bluemonday.StrictPolicy()

// sanitizeText removes markup and surrounding whitespace from free text.
// Entities escaped by the policy are decoded again so the stored value
// stays plain text.
func sanitizeText(s string) string {
	if s == "" {
		return s
	}
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(s)))
}

func sanitizePtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := sanitizeText(*s)
	return &v
}

func sanitizeList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if v := sanitizeText(item); v != "" {
			out = append(out, v)
		}
	}
	return out
}

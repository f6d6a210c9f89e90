package utils

import (
	"regexp"
	"strings"
)

var (
	slugInvalid    = regexp.MustCompile("[^a-z0-9 -]+")
	slugHyphens    = regexp.MustCompile("-+")
	skuWhitespace  = regexp.MustCompile(`\s+`)
	skuInvalidChar = regexp.MustCompile("[^a-zA-Z0-9-]")
)

// GenerateSlug converts a string into a URL-friendly slug.
// e.g. "Men's T-Shirt!" -> "mens-t-shirt"
func GenerateSlug(input string) string {
	s := strings.ToLower(input)
	s = slugInvalid.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, " ", "-")
	s = slugHyphens.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// SKUSegment converts an option name or value into an uppercase SKU fragment.
// e.g. " Rose Gold " -> "ROSE-GOLD", "18k/750" -> "18K750"
func SKUSegment(input string) string {
	s := strings.TrimSpace(input)
	s = skuWhitespace.ReplaceAllString(s, "-")
	s = skuInvalidChar.ReplaceAllString(s, "")
	return strings.ToUpper(s)
}

package extractor

import (
	"regexp"
	"strings"

	"github.com/mrlokans/jelu-importer/internal/page"
)

var (
	productPathPattern = regexp.MustCompile(`/pd/[^/]+/([A-Z0-9]{10})`)
	asinPattern        = regexp.MustCompile(`^[A-Z0-9]{10}$`)
)

// IsProductPage reports whether a path belongs to a product-detail page.
func IsProductPage(path string) bool {
	return strings.Contains(path, "/pd/")
}

// ResolveIdentifier derives the ASIN from the page path, falling back to the
// first data-asin attribute in the document. It returns "" when neither is found.
func ResolveIdentifier(p page.Page) string {
	if m := productPathPattern.FindStringSubmatch(p.Path()); m != nil {
		return m[1]
	}

	if attr, ok := p.Find("[data-asin]").First().Attr("data-asin"); ok {
		attr = strings.TrimSpace(attr)
		if asinPattern.MatchString(attr) {
			return attr
		}
	}

	return ""
}

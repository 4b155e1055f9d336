package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var excessiveBlankLines = regexp.MustCompile(`\n{3,}`)

// DecodeText converts fetched blob bytes to text. HTML content is reduced to
// its visible text; everything else is returned as-is.
func DecodeText(data []byte, mediaType string) string {
	text := string(data)
	if strings.HasPrefix(mediaType, "text/html") {
		if stripped, err := htmlToText(text); err == nil {
			return stripped
		}
	}
	return text
}

// htmlToText parses HTML and returns its visible text with noise elements
// removed.
func htmlToText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}

	doc.Find("script, style, noscript, nav, footer, header").Remove()

	var sb strings.Builder
	doc.Find("body").Each(func(_ int, s *goquery.Selection) {
		sb.WriteString(s.Text())
	})
	text := sb.String()
	if text == "" {
		text = doc.Text()
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")
	text = excessiveBlankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text), nil
}

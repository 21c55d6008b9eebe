package jobdesc

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	tagPattern       = regexp.MustCompile(`<[^>]*>`)
	htmlHintPattern  = regexp.MustCompile(`(?i)<(html|body|div|p|ul|li|br|h[1-6]|section|span)[\s>/]`)
	blankLinePattern = regexp.MustCompile(`\n{3,}`)
	spacePattern     = regexp.MustCompile(`[ \t\f\v\r]+`)
)

// Text normalizes a job description pasted by the user. Pasted HTML (for
// example copied from a job board) is reduced to its readable text.
func Text(raw string) string {
	if LooksLikeHTML(raw) {
		return CleanHTML(raw)
	}
	return normalize(raw)
}

// LooksLikeHTML reports whether raw contains common block-level markup.
func LooksLikeHTML(raw string) bool {
	return htmlHintPattern.MatchString(raw)
}

// CleanHTML extracts the posting text from an HTML page. Navigation, scripts
// and other chrome are dropped; a recognised job section wins over the body.
func CleanHTML(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return normalize(tagPattern.ReplaceAllString(html, " "))
	}
	doc.Find("script, style, nav, header, footer, iframe, noscript, form").Remove()
	doc.Find(".menu, .navigation, .social, .banner, .ads, .cookie, .popup").Remove()

	root := doc.Find("div.job-description, section.job-details, #job-content, [itemprop=description]").First()
	if root.Length() == 0 {
		root = doc.Find("body")
	}

	var blocks []string
	root.Find("p, li, h1, h2, h3, h4, h5, h6, td").Each(func(_ int, s *goquery.Selection) {
		// nested matches are picked up by their own iteration
		if s.Find("p, li").Length() > 0 {
			return
		}
		if text := strings.TrimSpace(s.Text()); text != "" {
			blocks = append(blocks, text)
		}
	})
	if len(blocks) == 0 {
		return normalize(root.Text())
	}
	return normalize(strings.Join(blocks, "\n"))
}

func normalize(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(spacePattern.ReplaceAllString(line, " "))
	}
	out := strings.Join(lines, "\n")
	out = blankLinePattern.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}

package news

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// ExtractHeadlines returns the text of the first max h1, h2 and h3
// elements in document order. Nested markup inside a heading is flattened,
// whitespace is collapsed and repeats are dropped.
func ExtractHeadlines(body io.Reader, max int) ([]string, error) {
	z := html.NewTokenizer(body)
	var (
		out     []string
		seen    = map[string]bool{}
		depth   int // >0 while inside a heading
		inSkip  bool
		current strings.Builder
	)

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				return out, nil
			}
			return out, z.Err()
		case html.StartTagToken, html.EndTagToken:
			tn, _ := z.TagName()
			tag := string(tn)
			switch tag {
			case "script", "style":
				inSkip = tt == html.StartTagToken
			case "h1", "h2", "h3":
				if tt == html.StartTagToken {
					depth++
					continue
				}
				if depth == 0 {
					continue
				}
				depth--
				if depth > 0 {
					continue
				}
				text := strings.Join(strings.Fields(current.String()), " ")
				current.Reset()
				if text == "" || seen[text] {
					continue
				}
				seen[text] = true
				out = append(out, text)
				if len(out) >= max {
					return out, nil
				}
			}
		case html.TextToken:
			if depth > 0 && !inSkip {
				current.Write(z.Text())
				current.WriteByte(' ')
			}
		}
	}
}

package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// onionURLPattern matches absolute onion service URLs inside href values.
var onionURLPattern = regexp.MustCompile(`https?://[^/\s"'<>]*\.onion[^\s"'<>]*`)

// maxBodyBytes bounds how much of a results page is read.
const maxBodyBytes = 2 << 20

// link pairs an anchor's text with the onion URL it points at.
type link struct {
	Title string
	Link  string
}

// fetchPage performs a GET and returns the body as a string. Non-200 statuses
// are errors so callers count them as engine failures.
func fetchPage(ctx context.Context, client *http.Client, url, userAgent string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// extractOnionLinks walks the document collecting anchors whose href points
// at an onion service. The anchor text becomes the result title.
func extractOnionLinks(body string) []link {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return nil
	}

	var links []link
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key != "href" {
					continue
				}
				if match := onionURLPattern.FindString(attr.Val); match != "" {
					links = append(links, link{
						Title: strings.TrimSpace(anchorText(n)),
						Link:  match,
					})
				}
				break
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return links
}

// anchorText concatenates the text nodes beneath an anchor.
func anchorText(n *html.Node) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

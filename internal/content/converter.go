// Package content turns the HTML body of an archived toot into the plain
// text payload that is republished.
package content

import (
	"fmt"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/dlclark/regexp2"
)

var (
	// A backslash escape the markdown converter inserted, unless the
	// backslash itself was escaped.
	escapePattern = regexp2.MustCompile(`(?<!\\)\\([\\`+"`"+`*_{}\[\]()#+\-.!>|~])`, 0)

	trailingSpacePattern = regexp.MustCompile(`[ \t]+\n`)
	blankRunPattern      = regexp.MustCompile(`\n{3,}`)
)

type Converter struct {
	md *md.Converter
}

func NewConverter() *Converter {
	conv := md.NewConverter("", true, nil)
	conv.AddRules(
		md.Rule{
			Filter:      []string{"a"},
			Replacement: plainLink,
		},
		md.Rule{
			Filter:      []string{"br"},
			Replacement: lineBreak,
		},
	)

	return &Converter{md: conv}
}

// plainLink renders mentions, hashtags and links whose text is the URL as
// bare text. Any other link falls through to the default rule.
func plainLink(_ string, selec *goquery.Selection, _ *md.Options) *string {
	text := strings.TrimSpace(selec.Text())
	if text == "" {
		return nil
	}

	class, _ := selec.Attr("class")
	if strings.Contains(class, "mention") || strings.Contains(class, "hashtag") {
		return md.String(text)
	}

	href, _ := selec.Attr("href")
	if href == text || strings.TrimPrefix(strings.TrimPrefix(href, "https://"), "http://") == text {
		return md.String(href)
	}

	return nil
}

// lineBreak keeps <br> a single newline. Toots use it for every line
// break, so the default paragraph break would double-space them.
func lineBreak(_ string, _ *goquery.Selection, _ *md.Options) *string {
	return md.String("\n")
}

// ToText converts toot HTML to plain text. Non-empty output always ends
// with a blank line, so identical input always yields identical output.
func (c *Converter) ToText(html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", nil
	}

	markdown, err := c.md.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("failed to convert HTML: %w", err)
	}

	result, err := c.unescape(markdown)
	if err != nil {
		return "", err
	}

	result = c.finalCleanup(result)
	if result == "" {
		return "", nil
	}

	return result + "\n\n", nil
}

func (c *Converter) unescape(input string) (string, error) {
	result, err := escapePattern.Replace(input, "$1", -1, -1)
	if err != nil {
		return "", fmt.Errorf("failed to unescape markdown: %w", err)
	}
	return result, nil
}

func (c *Converter) finalCleanup(input string) string {
	result := strings.ReplaceAll(input, "\r\n", "\n")
	result = trailingSpacePattern.ReplaceAllString(result, "\n")
	result = blankRunPattern.ReplaceAllString(result, "\n\n")
	return strings.TrimSpace(result)
}

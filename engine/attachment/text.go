package attachment

import (
	"bytes"
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodeText returns data as UTF-8. UTF-16 with a BOM is converted, other
// invalid UTF-8 is read as Windows-1254, the usual legacy Turkish code page.
func decodeText(data []byte) (string, error) {
	switch {
	case bytes.HasPrefix(data, utf8BOM):
		return string(data[len(utf8BOM):]), nil
	case bytes.HasPrefix(data, []byte{0xFF, 0xFE}), bytes.HasPrefix(data, []byte{0xFE, 0xFF}):
		dec := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
		out, _, err := transform.Bytes(dec, data)
		return string(out), err
	case utf8.Valid(data):
		return string(data), nil
	default:
		out, _, err := transform.Bytes(charmap.Windows1254.NewDecoder(), data)
		return string(out), err
	}
}

func loadText(_ context.Context, data []byte) ([]Page, error) {
	text, err := decodeText(data)
	if err != nil {
		return nil, err
	}
	return []Page{{Text: strings.TrimSpace(text)}}, nil
}

var (
	mdFence    = regexp.MustCompile("(?m)^```.*$")
	mdHeading  = regexp.MustCompile(`(?m)^[ \t]{0,3}#{1,6}[ \t]*`)
	mdQuote    = regexp.MustCompile(`(?m)^[ \t]{0,3}>[ \t]?`)
	mdBullet   = regexp.MustCompile(`(?m)^[ \t]*[-*+][ \t]+`)
	mdImage    = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	mdLink     = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	mdEmphasis = regexp.MustCompile(`(\*\*|__|\*|_|~~|` + "`" + `)([^*_~` + "`" + `]+)(\*\*|__|\*|_|~~|` + "`" + `)`)
	mdRule     = regexp.MustCompile(`(?m)^[ \t]*([-*_][ \t]*){3,}$`)
	blankRuns  = regexp.MustCompile(`\n{3,}`)
)

// loadMarkdown strips markdown syntax and keeps the readable text.
func loadMarkdown(ctx context.Context, data []byte) ([]Page, error) {
	pages, err := loadText(ctx, data)
	if err != nil {
		return nil, err
	}
	text := pages[0].Text
	text = mdFence.ReplaceAllString(text, "")
	text = mdRule.ReplaceAllString(text, "")
	text = mdHeading.ReplaceAllString(text, "")
	text = mdQuote.ReplaceAllString(text, "")
	text = mdBullet.ReplaceAllString(text, "")
	text = mdImage.ReplaceAllString(text, "$1")
	text = mdLink.ReplaceAllString(text, "$1")
	text = mdEmphasis.ReplaceAllString(text, "$2")
	text = blankRuns.ReplaceAllString(text, "\n\n")
	return []Page{{Text: strings.TrimSpace(text)}}, nil
}

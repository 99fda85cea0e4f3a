package export

import (
	"strings"

	"github.com/jung-kurt/gofpdf"
)

type renderer struct {
	pdf    *gofpdf.Fpdf
	family string
	tr     func(string) string
}

func (r *renderer) render(plan string, maps map[string]bool) {
	for _, line := range strings.Split(strings.TrimSpace(plan), "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			r.pdf.Ln(lineHeight / 2)
		case r.mapLine(line, maps):
		case headingPattern.MatchString(line):
			m := headingPattern.FindStringSubmatch(line)
			r.pdf.SetFont(r.family, "B", fontSize+1)
			r.pdf.MultiCell(0, lineHeight, r.tr(m[1]+" "+strings.TrimSpace(m[2])), "", "L", false)
			r.pdf.Ln(lineHeight * 0.5)
		case strings.HasPrefix(line, "* ") || strings.HasPrefix(line, "- "):
			left, _, _, _ := r.pdf.GetMargins()
			r.pdf.SetX(left + bulletIndent)
			r.runs(line[2:])
			r.pdf.Ln(lineHeight)
			r.pdf.SetX(left)
		case strings.HasPrefix(line, "**") && strings.HasSuffix(line, "**") && len(line) > 4:
			r.pdf.SetFont(r.family, "B", fontSize)
			r.pdf.MultiCell(0, lineHeight, r.tr(line[2:len(line)-2]), "", "L", false)
			r.pdf.Ln(lineHeight * 0.3)
		default:
			r.runs(line)
			r.pdf.Ln(lineHeight)
		}
	}
}

// mapLine draws a line holding a downloaded map URL as its text followed by
// the image. It reports false when line has no such URL.
func (r *renderer) mapLine(line string, maps map[string]bool) bool {
	url := mapURLPattern.FindString(line)
	if url == "" {
		return false
	}
	ok, known := maps[url]
	if !known {
		return false
	}
	label := strings.TrimSpace(mapURLPattern.ReplaceAllString(line, ""))
	if label == "" {
		label = "Map view:"
	} else if !strings.HasSuffix(label, ":") {
		label += ":"
	}
	r.pdf.SetFont(r.family, "", fontSize)
	r.pdf.MultiCell(0, lineHeight, r.tr(label), "", "L", false)
	if !ok {
		r.pdf.MultiCell(0, lineHeight, "[Map image could not be added]", "", "L", false)
		return true
	}
	left, _, right, _ := r.pdf.GetMargins()
	width, _ := r.pdf.GetPageSize()
	r.pdf.Ln(lineHeight * 0.5)
	r.pdf.ImageOptions(url, -1, 0, width-left-right, 0, true, gofpdf.ImageOptions{}, 0, "")
	r.pdf.Ln(lineHeight)
	return true
}

// runs writes text with **bold** segments in the bold style.
func (r *renderer) runs(text string) {
	r.pdf.SetFont(r.family, "", fontSize)
	last := 0
	for _, loc := range boldPattern.FindAllStringSubmatchIndex(text, -1) {
		if loc[0] > last {
			r.pdf.Write(lineHeight, r.tr(text[last:loc[0]]))
		}
		r.pdf.SetFont(r.family, "B", fontSize)
		r.pdf.Write(lineHeight, r.tr(text[loc[2]:loc[3]]))
		r.pdf.SetFont(r.family, "", fontSize)
		last = loc[1]
	}
	if last < len(text) {
		r.pdf.Write(lineHeight, r.tr(text[last:]))
	}
}

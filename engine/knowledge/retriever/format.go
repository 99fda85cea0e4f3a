package retriever

import (
	"fmt"
	"strings"
)

// SourceSeparator joins formatted sources.
const SourceSeparator = "\n\n--- Source Separator ---\n\n"

// FormatContext renders records as numbered sources. Numbers are the records'
// original positions, so skipped empty records leave gaps.
func FormatContext(records []Record) string {
	parts := make([]string, 0, len(records))
	for i := range records {
		if records[i].Content == nil {
			continue
		}
		content := strings.TrimSpace(*records[i].Content)
		if content == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("Source %d:\n%s", i+1, content))
	}
	return strings.Join(parts, SourceSeparator)
}

// FilterByThreshold keeps records whose distance is below threshold, in order.
func FilterByThreshold(records []Record, threshold float64) []Record {
	out := make([]Record, 0, len(records))
	for i := range records {
		if records[i].Distance < threshold {
			out = append(out, records[i])
		}
	}
	return out
}

// Contents returns the non-empty trimmed contents of records in order.
func Contents(records []Record) []string {
	out := make([]string, 0, len(records))
	for i := range records {
		if records[i].Content == nil {
			continue
		}
		if c := strings.TrimSpace(*records[i].Content); c != "" {
			out = append(out, c)
		}
	}
	return out
}

package chunk

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"

	"github.com/Shubham-murar/supervisor-multi-agent/engine/core"
)

var newlinePattern = regexp.MustCompile(`\r\n|\r`)

// Processor splits documents with the recursive character splitter.
type Processor struct {
	settings Settings
}

// NewProcessor validates settings and builds a processor.
func NewProcessor(settings Settings) (*Processor, error) {
	if settings.Size <= 0 {
		return nil, errors.New("chunk: size must be greater than zero")
	}
	if settings.Overlap < 0 {
		return nil, errors.New("chunk: overlap cannot be negative")
	}
	if settings.Overlap >= settings.Size {
		return nil, fmt.Errorf("chunk: overlap %d must be smaller than size %d", settings.Overlap, settings.Size)
	}
	return &Processor{settings: settings}, nil
}

// Settings returns the effective chunking settings.
func (p *Processor) Settings() Settings {
	return p.settings
}

// Process splits docs into chunks. Chunk IDs are "{docID}_{n}" where n counts
// the non-empty segments of that document, so reruns over the same input
// produce the same IDs.
func (p *Processor) Process(docs []Document) ([]Chunk, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(p.settings.Size),
		textsplitter.WithChunkOverlap(p.settings.Overlap),
	)
	seen := make(map[string]struct{})
	chunks := make([]Chunk, 0, len(docs))
	for di := range docs {
		doc := docs[di]
		text := p.preprocess(doc.Text)
		if text == "" {
			continue
		}
		segments, err := splitter.SplitText(text)
		if err != nil {
			return nil, fmt.Errorf("chunk: split document %s: %w", doc.ID, err)
		}
		n := 0
		for _, segment := range segments {
			chunkText := strings.TrimSpace(segment)
			if chunkText == "" {
				continue
			}
			hash := hashText(chunkText)
			if p.settings.Deduplicate {
				if _, exists := seen[hash]; exists {
					continue
				}
				seen[hash] = struct{}{}
			}
			metadata := core.CloneMap(doc.Metadata)
			if metadata == nil {
				metadata = make(map[string]any)
			}
			metadata["chunk_index"] = n
			metadata["source_id"] = doc.ID
			chunks = append(chunks, Chunk{
				ID:       fmt.Sprintf("%s_%d", doc.ID, n),
				Text:     chunkText,
				Hash:     hash,
				Metadata: metadata,
			})
			n++
		}
	}
	return chunks, nil
}

func (p *Processor) preprocess(text string) string {
	normalized := text
	if p.settings.NormalizeNewlines {
		normalized = newlinePattern.ReplaceAllString(normalized, "\n")
	}
	return strings.TrimSpace(normalized)
}

func hashText(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:16])
}

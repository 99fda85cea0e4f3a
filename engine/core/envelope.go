package core

import "strings"

// AnswerEnvelope is the uniform result of every responder and of the router.
type AnswerEnvelope struct {
	Answer       string  `json:"answer"`
	Context      *string `json:"context,omitempty"`
	Source       string  `json:"source"`
	ArtifactPath *string `json:"artifact_path,omitempty"`
}

// NewEnvelope builds an envelope without context or artifact.
func NewEnvelope(answer, source string) AnswerEnvelope {
	return AnswerEnvelope{Answer: answer, Source: source}
}

// WithContext attaches supporting context. Empty context is left unset.
func (e AnswerEnvelope) WithContext(ctx string) AnswerEnvelope {
	if strings.TrimSpace(ctx) == "" {
		return e
	}
	e.Context = &ctx
	return e
}

// WithArtifact records the path of a file produced while answering.
func (e AnswerEnvelope) WithArtifact(path string) AnswerEnvelope {
	if path == "" {
		return e
	}
	e.ArtifactPath = &path
	return e
}

// Valid reports whether both answer and source are present.
func (e AnswerEnvelope) Valid() bool {
	return strings.TrimSpace(e.Answer) != "" && strings.TrimSpace(e.Source) != ""
}

// ContextText returns the context or an empty string.
func (e AnswerEnvelope) ContextText() string {
	if e.Context == nil {
		return ""
	}
	return *e.Context
}

// TaggedSource formats "base (tag)".
func TaggedSource(base, tag string) string {
	if tag == "" {
		return base
	}
	return base + " (" + tag + ")"
}

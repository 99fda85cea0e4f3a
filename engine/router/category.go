// Package router classifies user queries and dispatches them to the
// responder of their category.
package router

import "github.com/Shubham-murar/supervisor-multi-agent/engine/attachment"

// Category is the closed set of query kinds.
type Category int

const (
	RegulatoryDoc Category = iota
	News
	Travel
	ActiveDocumentQA
	Other
)

// Categories lists every category in canonical order.
var Categories = []Category{RegulatoryDoc, News, Travel, ActiveDocumentQA, Other}

var labels = map[Category]string{
	RegulatoryDoc:    "Resmi Gazete",
	News:             "News",
	Travel:           "Travel",
	ActiveDocumentQA: "Belge Sorusu",
	Other:            "Other",
}

// Label is the model-facing name of c.
func (c Category) Label() string {
	if l, ok := labels[c]; ok {
		return l
	}
	return labels[Other]
}

func (c Category) String() string {
	return c.Label()
}

// Query is one user request.
type Query struct {
	Text            string
	ForceDocumentQA bool
	Document        *attachment.Document
}

// Package responder holds the specialized answerers the router dispatches to.
// Every responder converts its failures into an AnswerEnvelope with an
// error-tagged source instead of returning an error.
package responder

import "github.com/Shubham-murar/supervisor-multi-agent/pkg/tplengine"

const (
	tplRegulatory = "regulatory"
	tplDocument   = "document"
)

var prompts = tplengine.NewEngine().
	MustAddTemplate(tplRegulatory, `You are an assistant specialized in Official Gazette contents.
Using the provided Official Gazette documents as context, answer the user question below.
Your answer MUST be strictly based on the information in the provided context.
If the information is not found in the context, use a phrase like "This information was not found in the provided documents."
Do not go beyond the context, add interpretations, or provide additional information.

User Question:
{{ .Query }}

Official Gazette Documents (Context):
==============================
{{ .Context }}
==============================

Answer:`).
	MustAddTemplate(tplDocument, `Answer the question using ONLY the context provided below. Do NOT go beyond the context. If the answer is not in the context, respond with: '{{ .Refusal }}'

Context:
{{ .Context }}

Question: {{ .Query }}

Answer:`)

const newsSystemPrompt = `Answer the following questions as best as you can using the tools you have access to.
Think step by step about what you need to do to find the answer and decide which tool to use.
Use WikipediaSearch for encyclopedic topics and definitions, and WebSearch for current events, news, weather or market data.
If no tool is needed, answer directly.
When you know the final answer, give a complete and conversational answer in Turkish.`

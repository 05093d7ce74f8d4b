package enrich

import "strings"

// draftPromptTemplate turns a raw idea into a structured strategist prompt.
// {userInput} is replaced with the user's original text.
const draftPromptTemplate = `### Goal
Analyze the user's raw idea below and recreate it as a clear, actionable
"strategy prompt" that gets the most out of an AI assistant.

### Role
You are a world-class prompt engineer and AI strategist who absorbs domain
knowledge instantly.

### Principles
1. Identify the core goal and the desired output of the original idea.
2. Restructure it with explicit role, context, instructions, output format,
   and constraints.
3. Add angles and variables the user likely missed; the result should feel
   more valuable than the original.

### Never
- Merely polish or summarize the original text.
- Use vague or abstract phrasing; be concrete and measurable.

---
### User's original idea
{userInput}
---

Return ONLY a JSON object inside a fenced code block:

` + "```json" + `
{"title": "short display title", "summary": "one-sentence preview", "draft": "the recreated strategy prompt in markdown"}
` + "```"

// suggestPromptTemplate asks for the two best category names.
const suggestPromptTemplate = `Classify the following note into the two
best-fitting categories. You MUST pick both from the candidate list
verbatim; never invent a new name.

Note:
{content}

Candidates:
{categories}

Return ONLY a JSON object inside a fenced code block:

` + "```json" + `
{"best": "best matching name", "second": "second best name"}
` + "```"

// formatPromptTemplate restructures raw capture text as markdown.
const formatPromptTemplate = `Reformat the following raw note as clean,
well-structured markdown. Preserve the original meaning and every piece of
information; fix only structure, headings, lists, and obvious typos.
Return the reformatted markdown and nothing else.

---
{rawText}
---`

func buildDraftPrompt(userInput string) string {
	return strings.Replace(draftPromptTemplate, "{userInput}", userInput, 1)
}

func buildSuggestPrompt(content string, categories []string) string {
	var list strings.Builder
	for _, name := range categories {
		list.WriteString("- ")
		list.WriteString(name)
		list.WriteString("\n")
	}
	s := strings.Replace(suggestPromptTemplate, "{content}", content, 1)
	return strings.Replace(s, "{categories}", list.String(), 1)
}

func buildFormatPrompt(rawText string) string {
	return strings.Replace(formatPromptTemplate, "{rawText}", rawText, 1)
}

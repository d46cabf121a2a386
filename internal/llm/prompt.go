package llm

import "strings"

// EntityPromptVersion identifies the entity prompt wording in logs.
const EntityPromptVersion = "entities_v1"

const entityPromptHeader = `You are a named-entity recognition system.
Extract every named entity from the article text below.
Return ONLY a JSON array. Each element must be an object with exactly two string fields:
"entity" (the text as it appears in the article) and "label" (one of PERSON, NORP, FAC, ORG, GPE, LOC, PRODUCT, EVENT, WORK_OF_ART, LAW, LANGUAGE, DATE, TIME, PERCENT, MONEY, QUANTITY, ORDINAL, CARDINAL).
Keep the order in which entities first appear. If there are no entities return [].
Do not wrap the array in markdown and do not add commentary.

Article:
`

// EntityPrompt builds the extraction prompt for text.
func EntityPrompt(text string) string {
	var b strings.Builder
	b.Grow(len(entityPromptHeader) + len(text))
	b.WriteString(entityPromptHeader)
	b.WriteString(text)
	return b.String()
}

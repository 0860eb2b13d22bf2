package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/utility.txt
	utilityRaw string

	//go:embed template/finance.txt
	financeRaw string

	//go:embed template/spanish.txt
	spanishRaw string
)

// PromptSet holds the instruction text for each agent configuration.
type PromptSet struct {
	Utility string
	Finance string
	Spanish string
}

// LoadPromptSet returns the embedded instructions with surrounding
// whitespace trimmed. Safe for concurrent use.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Utility: strings.TrimSpace(utilityRaw),
		Finance: strings.TrimSpace(financeRaw),
		Spanish: strings.TrimSpace(spanishRaw),
	}
}

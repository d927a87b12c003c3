package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"perfume-chat/internal/domain"
)

// Tool names the model is allowed to invoke. Anything else is treated as a
// no-op by the orchestrating layer.
const (
	ToolSearchPerfumes = "search_perfumes"
	ToolNextResults    = "get_next_results"
)

// DefaultPageCount is the paginate count when the model omits the argument
const DefaultPageCount = 5

var searchParameters = json.RawMessage(`{
	"type": "object",
	"properties": {
		"top_notes": {"type": "string"},
		"middle_notes": {"type": "string"},
		"base_notes": {"type": "string"},
		"main_accords": {"type": "string"},
		"gender": {"type": "string", "enum": ["men", "women"], "description": "Gender category for the perfume"}
	}
}`)

var nextResultsParameters = json.RawMessage(`{
	"type": "object",
	"properties": {
		"count": {"type": "integer", "description": "How many results to fetch", "default": 5}
	}
}`)

// ChatTools returns the tool declarations for a chat turn
func ChatTools() []Tool {
	return []Tool{
		{
			Name:        ToolSearchPerfumes,
			Description: "Search perfumes by notes, accords, or gender",
			Parameters:  searchParameters,
		},
		{
			Name:        ToolNextResults,
			Description: "Fetch the next N perfumes (default 5) from the stored results of the last search",
			Parameters:  nextResultsParameters,
		},
	}
}

// ParseSearchArgs decodes search_perfumes arguments. Empty arguments are a
// valid unfiltered search.
func ParseSearchArgs(raw json.RawMessage) (domain.SearchFilters, error) {
	var filters domain.SearchFilters
	if len(raw) == 0 || strings.TrimSpace(string(raw)) == "" {
		return filters, nil
	}
	if err := json.Unmarshal(raw, &filters); err != nil {
		return filters, fmt.Errorf("malformed search arguments: %w", err)
	}
	return filters, nil
}

// ParseCountArg decodes the get_next_results count, defaulting to
// DefaultPageCount when absent or malformed.
func ParseCountArg(raw json.RawMessage) int {
	var args struct {
		Count *int `json:"count"`
	}
	if len(raw) == 0 || json.Unmarshal(raw, &args) != nil || args.Count == nil {
		return DefaultPageCount
	}
	return *args.Count
}

// Package search describes full-text queries over the chat history.
package search

import (
	"strconv"
	"strings"
)

const DefaultLimit = 10

// Query represents the structured parameters of a history search.
// It decouples the raw user input from the actual index engine requirements.
type Query struct {
	RawInput string // The original input
	Terms    string // The actual text to search in content
	Room     string // Target room
	Author   string // Optional author filter
	Limit    int    // Number of results
}

// NewSearchQuery parses a raw string to extract command-line style arguments.
// Example: /find "deploy" --room ops --author alice --limit 5
func NewSearchQuery(input string) Query {
	query := Query{
		RawInput: input,
		Limit:    DefaultLimit,
	}

	parts := strings.Fields(input)
	var textTerms []string

	for i := 0; i < len(parts); i++ {
		part := parts[i]

		// Handle flags like --room ops or --limit 4
		if strings.HasPrefix(part, "--") && i+1 < len(parts) {
			val := parts[i+1]
			switch strings.TrimPrefix(part, "--") {
			case "room":
				query.Room = val
			case "author":
				query.Author = val
			case "limit":
				if n, err := strconv.Atoi(val); err == nil && n > 0 {
					query.Limit = n
				}
			}
			i++ // Skip the value part in next iteration
			continue
		}

		// If it's not a flag or a command, it's a search term
		if !strings.HasPrefix(part, "/") {
			textTerms = append(textTerms, strings.Trim(part, `"`))
		}
	}

	query.Terms = strings.Join(textTerms, " ")
	return query
}

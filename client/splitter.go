package client

import "strings"

// SplitStatements splits raw SQL text on ';' into trimmed, non-empty
// statements in source order.
//
// The split is purely lexical: a ';' inside a string literal, quoted
// identifier or dollar-quoted body also splits.
func SplitStatements(text string) []string {
	parts := strings.Split(text, ";")
	stmts := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts
}

package expr

import (
	"regexp"
	"strings"
)

// MaxStatementLength bounds a single statement's source text.
const MaxStatementLength = 100_000

var (
	// ifPattern rewrites the dialect's float-typed conditional spelling
	// if( into milkif(. "milkif(" itself has no word boundary before "if",
	// so the rewrite is idempotent.
	ifPattern = regexp.MustCompile(`\bif\s*\(`)

	// intAssignPattern appends ".0" to bare signed integer literals on the
	// right of an assignment so the value is float-typed. "x = 1.0" does
	// not rematch: the literal is followed by '.', which the trailing
	// class excludes.
	intAssignPattern = regexp.MustCompile(`(\w+)\s*=\s*(-?\d+)([^\d.]|$)`)

	// identPattern extracts identifiers for variable auto-initialization.
	identPattern = regexp.MustCompile(`\b[a-zA-Z_][a-zA-Z0-9_]*\b`)
)

// Preprocess rewrites one statement of MilkDrop surface syntax into the
// dialect the evaluator executes:
//
//  1. if( becomes milkif( so conditions stay float-typed
//  2. bare integer literals in assignments gain a ".0" suffix
//  3. identifiers not yet bound in env are initialized to 0.0
//
// Applying Preprocess twice yields the same text as applying it once.
func Preprocess(env *Env, statement string) string {
	s := strings.TrimSpace(statement)
	s = strings.TrimSuffix(s, ";")
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	for _, name := range identPattern.FindAllString(s, -1) {
		if IsFunction(strings.ToLower(name)) {
			continue
		}
		if !env.Has(name) {
			env.Set(name, 0.0)
		}
	}

	s = intAssignPattern.ReplaceAllString(s, "$1 = $2.0$3")
	s = ifPattern.ReplaceAllString(s, "milkif(")
	return s
}

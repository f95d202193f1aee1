package query

import (
	"fmt"
	"strings"

	"github.com/codesift/codesift/pkg/types"
)

// Op identifies the variant of a plan clause.
type Op int

const (
	OpTerm Op = iota
	OpAnd
	OpOr
)

// Clause is one node of the query plan: either a term leaf (Term/Phrase set)
// or a binary operator (Left/Right set). Operators bind left-to-right with no
// precedence distinction and no nested grouping.
type Clause struct {
	Op     Op
	Term   string
	Phrase bool
	Left   *Clause
	Right  *Clause
}

// FilterKind is a field-scoped query constraint evaluated before matching.
type FilterKind string

const (
	FilterExt  FilterKind = "ext"
	FilterFile FilterKind = "file"
	FilterDir  FilterKind = "dir"
	FilterType FilterKind = "type"
	FilterLang FilterKind = "lang"
)

// Filter constrains which files are searched; it is never matched against
// code content.
type Filter struct {
	Kind    FilterKind
	Pattern string
}

// Plan is the immutable structural representation of one query string.
// Root is nil when the query consists of filters only.
type Plan struct {
	Raw     string
	Root    *Clause
	Filters []Filter
}

// filterKeys maps the recognized filter-hint prefixes.
var filterKeys = map[string]FilterKind{
	"ext":  FilterExt,
	"file": FilterFile,
	"dir":  FilterDir,
	"type": FilterType,
	"lang": FilterLang,
}

// Parse tokenizes and parses a query string into a Plan.
//
// Whitespace separates tokens; double-quoted phrases stay intact. Bare AND/OR
// are binary operators; two adjacent terms without an operator are joined by
// an implicit AND. key:value tokens for ext/file/dir/type/lang are lifted out
// as filters; a filter still counts as an operand, so it may sit on either
// side of AND/OR. An unknown key: prefix is kept as a plain literal term
// unless strict is set, in which case it is an error. NOT is reported as
// unsupported.
func Parse(raw string, strict bool) (*Plan, error) {
	tokens, err := tokenize(raw)
	if err != nil {
		return nil, err
	}

	plan := &Plan{Raw: raw}
	var pending Op = OpTerm // operator awaiting its right operand; OpTerm means none
	haveOp := false
	haveOperand := false

	push := func(c *Clause) {
		haveOperand = true
		if plan.Root == nil {
			plan.Root = c
			haveOp = false
			return
		}
		op := OpAnd
		if haveOp {
			op = pending
		}
		plan.Root = &Clause{Op: op, Left: plan.Root, Right: c}
		haveOp = false
	}

	for _, tok := range tokens {
		switch {
		case !tok.phrase && tok.text == "AND":
			if !haveOperand || haveOp {
				return nil, &types.QuerySyntaxError{Query: raw, Reason: "operator AND is missing an operand"}
			}
			pending, haveOp = OpAnd, true

		case !tok.phrase && tok.text == "OR":
			if !haveOperand || haveOp {
				return nil, &types.QuerySyntaxError{Query: raw, Reason: "operator OR is missing an operand"}
			}
			pending, haveOp = OpOr, true

		case !tok.phrase && tok.text == "NOT":
			return nil, &types.QuerySyntaxError{Query: raw, Reason: "operator NOT is not supported"}

		default:
			if !tok.phrase {
				if key, value, ok := splitFilter(tok.text); ok {
					if kind, known := filterKeys[key]; known {
						plan.Filters = append(plan.Filters, Filter{Kind: kind, Pattern: value})
						// A lifted-out filter satisfies a pending operator.
						haveOp = false
						haveOperand = true
						continue
					}
					if strict {
						return nil, &types.QuerySyntaxError{Query: raw, Reason: fmt.Sprintf("unknown filter key %q", key)}
					}
					// Fall through: unknown key stays a literal term.
				}
			}
			push(&Clause{Op: OpTerm, Term: tok.text, Phrase: tok.phrase})
		}
	}

	if haveOp {
		return nil, &types.QuerySyntaxError{Query: raw, Reason: "trailing operator"}
	}
	if plan.Root == nil && len(plan.Filters) == 0 {
		return nil, &types.QuerySyntaxError{Query: raw, Reason: "empty query"}
	}

	return plan, nil
}

// token is one lexical unit of the query string.
type token struct {
	text   string
	phrase bool
}

// tokenize splits on whitespace while keeping double-quoted phrases whole.
func tokenize(raw string) ([]token, error) {
	var tokens []token
	var sb strings.Builder
	inQuote := false

	flush := func(phrase bool) {
		if sb.Len() == 0 && !phrase {
			return
		}
		tokens = append(tokens, token{text: sb.String(), phrase: phrase})
		sb.Reset()
	}

	for _, r := range raw {
		switch {
		case r == '"':
			if inQuote {
				flush(true)
				inQuote = false
			} else {
				flush(false)
				inQuote = true
			}
		case !inQuote && (r == ' ' || r == '\t' || r == '\n' || r == '\r'):
			flush(false)
		default:
			sb.WriteRune(r)
		}
	}
	if inQuote {
		return nil, &types.QuerySyntaxError{Query: raw, Reason: "unbalanced quotes"}
	}
	flush(false)

	return tokens, nil
}

// splitFilter splits a key:value token. A token qualifies only when both
// sides of the first colon are non-empty and the key is all lowercase letters.
func splitFilter(text string) (key, value string, ok bool) {
	idx := strings.IndexByte(text, ':')
	if idx <= 0 || idx == len(text)-1 {
		return "", "", false
	}
	key = text[:idx]
	for _, r := range key {
		if r < 'a' || r > 'z' {
			return "", "", false
		}
	}
	return key, text[idx+1:], true
}

// Terms returns the distinct literal terms of the plan in query order.
// Phrases contribute their full text as a single term.
func (p *Plan) Terms() []string {
	var terms []string
	seen := make(map[string]struct{})
	var walk func(c *Clause)
	walk = func(c *Clause) {
		if c == nil {
			return
		}
		if c.Op == OpTerm {
			if _, dup := seen[c.Term]; !dup {
				seen[c.Term] = struct{}{}
				terms = append(terms, c.Term)
			}
			return
		}
		walk(c.Left)
		walk(c.Right)
	}
	walk(p.Root)
	return terms
}

// String renders the realized plan for diagnostics.
func (p *Plan) String() string {
	var sb strings.Builder
	sb.WriteString(clauseString(p.Root))
	for _, f := range p.Filters {
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%s:%s", f.Kind, f.Pattern)
	}
	return sb.String()
}

func clauseString(c *Clause) string {
	if c == nil {
		return ""
	}
	switch c.Op {
	case OpTerm:
		if c.Phrase {
			return fmt.Sprintf("%q", c.Term)
		}
		return c.Term
	case OpAnd:
		return fmt.Sprintf("(%s AND %s)", clauseString(c.Left), clauseString(c.Right))
	case OpOr:
		return fmt.Sprintf("(%s OR %s)", clauseString(c.Left), clauseString(c.Right))
	}
	return ""
}

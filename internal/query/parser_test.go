package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codesift/codesift/pkg/types"
)

func TestParse_SingleTerm(t *testing.T) {
	plan, err := Parse("handler", false)
	require.NoError(t, err)
	require.NotNil(t, plan.Root)

	assert.Equal(t, OpTerm, plan.Root.Op)
	assert.Equal(t, "handler", plan.Root.Term)
	assert.False(t, plan.Root.Phrase)
	assert.Empty(t, plan.Filters)
}

func TestParse_ImplicitAnd(t *testing.T) {
	plan, err := Parse("auth login", false)
	require.NoError(t, err)

	root := plan.Root
	require.Equal(t, OpAnd, root.Op)
	assert.Equal(t, "auth", root.Left.Term)
	assert.Equal(t, "login", root.Right.Term)
}

func TestParse_ExplicitOperatorsLeftAssociative(t *testing.T) {
	// No precedence: "a OR b AND c" parses as ((a OR b) AND c).
	plan, err := Parse("a OR b AND c", false)
	require.NoError(t, err)

	root := plan.Root
	require.Equal(t, OpAnd, root.Op)
	assert.Equal(t, "c", root.Right.Term)

	inner := root.Left
	require.Equal(t, OpOr, inner.Op)
	assert.Equal(t, "a", inner.Left.Term)
	assert.Equal(t, "b", inner.Right.Term)
}

func TestParse_Phrase(t *testing.T) {
	plan, err := Parse(`"error handling" retry`, false)
	require.NoError(t, err)

	root := plan.Root
	require.Equal(t, OpAnd, root.Op)
	assert.True(t, root.Left.Phrase)
	assert.Equal(t, "error handling", root.Left.Term)
	assert.Equal(t, "retry", root.Right.Term)
}

func TestParse_PhraseKeepsOperatorWords(t *testing.T) {
	// Quoted AND is content, not an operator.
	plan, err := Parse(`"AND"`, false)
	require.NoError(t, err)
	assert.Equal(t, OpTerm, plan.Root.Op)
	assert.True(t, plan.Root.Phrase)
	assert.Equal(t, "AND", plan.Root.Term)
}

func TestParse_Filters(t *testing.T) {
	plan, err := Parse("handler AND ext:rs dir:src", false)
	require.NoError(t, err)

	require.Len(t, plan.Filters, 2)
	assert.Equal(t, FilterExt, plan.Filters[0].Kind)
	assert.Equal(t, "rs", plan.Filters[0].Pattern)
	assert.Equal(t, FilterDir, plan.Filters[1].Kind)
	assert.Equal(t, "src", plan.Filters[1].Pattern)

	// The filter tokens never enter the clause tree.
	require.Equal(t, OpTerm, plan.Root.Op)
	assert.Equal(t, "handler", plan.Root.Term)
}

func TestParse_FilterOnEitherSideOfOperator(t *testing.T) {
	// A filter counts as an operand, so AND/OR next to one is well-formed.
	plan, err := Parse("handler AND ext:rs", false)
	require.NoError(t, err)
	require.Len(t, plan.Filters, 1)
	assert.Equal(t, FilterExt, plan.Filters[0].Kind)
	require.NotNil(t, plan.Root)
	assert.Equal(t, OpTerm, plan.Root.Op)
	assert.Equal(t, "handler", plan.Root.Term)

	plan, err = Parse("ext:rs AND handler", false)
	require.NoError(t, err)
	require.Len(t, plan.Filters, 1)
	require.NotNil(t, plan.Root)
	assert.Equal(t, "handler", plan.Root.Term)
}

func TestParse_FilterOnlyQuery(t *testing.T) {
	plan, err := Parse("ext:go", false)
	require.NoError(t, err)
	assert.Nil(t, plan.Root)
	require.Len(t, plan.Filters, 1)
}

func TestParse_UnknownFilterKeyIsLiteral(t *testing.T) {
	plan, err := Parse("foo:bar", false)
	require.NoError(t, err)
	require.NotNil(t, plan.Root)
	assert.Equal(t, "foo:bar", plan.Root.Term)
	assert.Empty(t, plan.Filters)
}

func TestParse_UnknownFilterKeyStrict(t *testing.T) {
	_, err := Parse("foo:bar", true)
	var syntaxErr *types.QuerySyntaxError
	require.ErrorAs(t, err, &syntaxErr)
	assert.Contains(t, syntaxErr.Error(), "foo")
}

func TestParse_NotUnsupported(t *testing.T) {
	_, err := Parse("auth NOT login", false)
	var syntaxErr *types.QuerySyntaxError
	require.ErrorAs(t, err, &syntaxErr)
	assert.Contains(t, syntaxErr.Error(), "NOT")
}

func TestParse_UnbalancedQuotes(t *testing.T) {
	_, err := Parse(`"auth login`, false)
	var syntaxErr *types.QuerySyntaxError
	require.ErrorAs(t, err, &syntaxErr)
	assert.Contains(t, syntaxErr.Error(), "unbalanced")
}

func TestParse_OperatorErrors(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"trailing", "auth AND"},
		{"leading", "OR auth"},
		{"doubled", "auth AND OR login"},
		{"empty", "   "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.query, false)
			var syntaxErr *types.QuerySyntaxError
			assert.ErrorAs(t, err, &syntaxErr)
		})
	}
}

func TestTerms_DistinctInOrder(t *testing.T) {
	plan, err := Parse(`login OR "sign in" login`, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"login", "sign in"}, plan.Terms())
}

func TestString_EchoesPlan(t *testing.T) {
	plan, err := Parse("a OR b ext:go", false)
	require.NoError(t, err)
	assert.Equal(t, "(a OR b) ext:go", plan.String())
}

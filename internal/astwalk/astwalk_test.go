package astwalk_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astenc/binjs/internal/arena"
	"github.com/astenc/binjs/internal/astwalk"
	"github.com/astenc/binjs/internal/parsetree"
)

func identifier(name string) *parsetree.Node {
	return &parsetree.Node{
		Kind:     "Identifier",
		Children: []*parsetree.Node{{Value: name}},
	}
}

// literal builds an ESTree-shaped Literal node: the primitive value sits
// directly on Value (Walk dispatches on it before ever consulting the
// schema table), not nested under Children.
func literal(v any) *parsetree.Node {
	return &parsetree.Node{Kind: "Literal", Value: v}
}

func exprStmt(expr *parsetree.Node) *parsetree.Node {
	return &parsetree.Node{Kind: "ExpressionStatement", Children: []*parsetree.Node{expr}}
}

func list(children ...*parsetree.Node) *parsetree.Node {
	return &parsetree.Node{Children: children}
}

func program(stmts ...*parsetree.Node) *parsetree.Node {
	return &parsetree.Node{Kind: "Program", Children: []*parsetree.Node{list(stmts...)}}
}

func TestWalkNilProducesNullLeaf(t *testing.T) {
	t.Parallel()

	w := astwalk.NewWalker(arena.New())

	n, err := w.Walk(nil)
	require.NoError(t, err)
	assert.Same(t, w.Registry().Null, n.Label)
}

func TestWalkUnknownKindIsSchemaMismatch(t *testing.T) {
	t.Parallel()

	w := astwalk.NewWalker(arena.New())

	_, err := w.Walk(&parsetree.Node{Kind: "NotARealKind"})
	require.Error(t, err)
	assert.ErrorIs(t, err, astwalk.ErrSchemaMismatch)
}

func TestWalkFieldCountMismatchIsSchemaMismatch(t *testing.T) {
	t.Parallel()

	w := astwalk.NewWalker(arena.New())

	// ExpressionStatement's schema wants exactly one child (its
	// "expression" field); give it two.
	_, err := w.Walk(&parsetree.Node{
		Kind:     "ExpressionStatement",
		Children: []*parsetree.Node{identifier("a"), identifier("b")},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, astwalk.ErrSchemaMismatch)
}

func TestWalkInternsRepeatedKindsToOneSymbol(t *testing.T) {
	t.Parallel()

	w := astwalk.NewWalker(arena.New())

	prog := program(exprStmt(identifier("x")), exprStmt(identifier("y")))

	axiom, err := w.Walk(prog)
	require.NoError(t, err)

	// Program -> List -> [ExpressionStatement, ExpressionStatement]
	listNode := axiom.Children()[0]
	require.Len(t, listNode.Children(), 2)

	stmt1, stmt2 := listNode.Children()[0], listNode.Children()[1]
	assert.Same(t, stmt1.Label, stmt2.Label, "repeated ExpressionStatement occurrences must share one Symbol")
}

func TestWalkPrimitiveLeavesRecordValues(t *testing.T) {
	t.Parallel()

	w := astwalk.NewWalker(arena.New())

	axiom, err := w.Walk(program(exprStmt(literal(42.0))))
	require.NoError(t, err)

	listNode := axiom.Children()[0]
	stmt := listNode.Children()[0]
	lit := stmt.Children()[0]

	assert.Same(t, w.Registry().Number, lit.Label)
	assert.InDelta(t, 42.0, w.Values[lit], 0)
}

func TestWalkStringLiteralsInternIntoStringTable(t *testing.T) {
	t.Parallel()

	w := astwalk.NewWalker(arena.New())

	_, err := w.Walk(program(exprStmt(literal("hello")), exprStmt(literal("hello"))))
	require.NoError(t, err)

	strs := w.Strings.Finalize()
	require.Len(t, strs, 1)
	assert.Equal(t, "hello", strs[0])
}

func TestWalkBoolAndUndefinedLeaves(t *testing.T) {
	t.Parallel()

	w := astwalk.NewWalker(arena.New())

	trueNode, err := w.Walk(literal(true))
	require.NoError(t, err)
	assert.Same(t, w.Registry().True, trueNode.Label)

	falseNode, err := w.Walk(literal(false))
	require.NoError(t, err)
	assert.Same(t, w.Registry().False, falseNode.Label)

	undefinedNode, err := w.Walk(&parsetree.Node{Value: astwalk.Undefined{}})
	require.NoError(t, err)
	assert.Same(t, w.Registry().Undefined, undefinedNode.Label)
}

func TestWalkListRankMatchesElementCount(t *testing.T) {
	t.Parallel()

	w := astwalk.NewWalker(arena.New())

	axiom, err := w.Walk(program(exprStmt(identifier("a")), exprStmt(identifier("b")), exprStmt(identifier("c"))))
	require.NoError(t, err)

	listNode := axiom.Children()[0]
	assert.Equal(t, 3, listNode.Rank())
	assert.True(t, w.Registry().IsList(listNode.Label))
}

func TestAnalyzeScopesCollectsVarAndLexicalNames(t *testing.T) {
	t.Parallel()

	// function f(a) { var b; let c; }
	fn := &parsetree.Node{
		Kind: "FunctionDeclaration",
		Children: []*parsetree.Node{
			identifier("f"),
			list(identifier("a")),
			&parsetree.Node{
				Kind: "BlockStatement",
				Children: []*parsetree.Node{
					list(
						&parsetree.Node{
							Kind: "VariableDeclaration",
							Children: []*parsetree.Node{
								{Value: "var"},
								list(&parsetree.Node{Kind: "VariableDeclarator", Children: []*parsetree.Node{identifier("b"), nil}}),
							},
						},
						&parsetree.Node{
							Kind: "VariableDeclaration",
							Children: []*parsetree.Node{
								{Value: "let"},
								list(&parsetree.Node{Kind: "VariableDeclarator", Children: []*parsetree.Node{identifier("c"), nil}}),
							},
						},
					),
				},
			},
			{Value: false},
			{Value: false},
		},
	}

	root := program(fn)

	scopes := astwalk.AnalyzeScopes(root)

	var fnScope *astwalk.Scope
	var lexicalNames []string
	for _, s := range scopes {
		if s.Kind == astwalk.ScopeFunction {
			fnScope = s
		}
		lexicalNames = append(lexicalNames, s.LexicallyDeclaredNames...)
	}

	require.NotNil(t, fnScope)
	assert.Equal(t, []string{"a"}, fnScope.ParameterNames)
	// "var b" hoists all the way up to the function's own scope.
	assert.Contains(t, fnScope.VarDeclaredNames, "b")
	// "let c" stays lexically scoped to its own block, not the function.
	assert.Contains(t, lexicalNames, "c")
}

func TestAnalyzeScopesProgramIsAlwaysFirst(t *testing.T) {
	t.Parallel()

	scopes := astwalk.AnalyzeScopes(program(exprStmt(identifier("x"))))

	require.NotEmpty(t, scopes)
	assert.Equal(t, astwalk.ScopeProgram, scopes[0].Kind)
}

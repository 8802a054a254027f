package astwalk

import "github.com/astenc/binjs/internal/parsetree"

// ScopeKind distinguishes the scope-bearing node kinds spec §4.6 names:
// the script/module scope, a function's own scope, a plain lexical
// block, and a catch clause's binding.
type ScopeKind uint8

const (
	ScopeProgram ScopeKind = iota
	ScopeFunction
	ScopeBlock
	ScopeCatch
)

var functionKinds = map[string]bool{
	"FunctionDeclaration":     true,
	"FunctionExpression":      true,
	"ArrowFunctionExpression": true,
}

// Scope records the four name sets spec §4.6 requires per scope-bearing
// node.
type Scope struct {
	Kind ScopeKind
	Node *parsetree.Node

	ParameterNames         []string
	LexicallyDeclaredNames []string
	VarDeclaredNames       []string
	CapturedNames          []string
}

// AnalyzeScopes walks root and returns one Scope per scope-bearing node,
// in traversal order.
func AnalyzeScopes(root *parsetree.Node) []*Scope {
	a := &scopeAnalyzer{}
	a.walk(root, nil)

	return a.scopes
}

type scopeAnalyzer struct {
	scopes []*Scope
}

// varScopeFrame tracks the nearest enclosing var-hoisting scope
// (Program or Function) while descending, so a `var` found inside
// nested blocks is attributed to the right Scope.
type varScopeFrame struct {
	scope *Scope
	names map[string]bool
}

func (a *scopeAnalyzer) walk(n *parsetree.Node, varScope *varScopeFrame) {
	if n == nil {
		return
	}

	switch n.Kind {
	case "Program":
		s := &Scope{Kind: ScopeProgram, Node: n}
		a.scopes = append(a.scopes, s)

		frame := &varScopeFrame{scope: s, names: map[string]bool{}}
		a.collectLexical(n, s)

		for _, c := range n.Children {
			a.collectVarNames(c, frame)
		}

		a.walkChildren(n, frame)
		a.finishVarFrame(frame)
		a.fillCaptured(s, n)

		return
	case "FunctionDeclaration", "FunctionExpression", "ArrowFunctionExpression":
		s := &Scope{Kind: ScopeFunction, Node: n}
		a.scopes = append(a.scopes, s)

		schema := Schema[n.Kind]
		for i, f := range schema.Fields {
			if f.Name == "params" {
				for _, p := range childArrayElements(n.Children[i]) {
					s.ParameterNames = append(s.ParameterNames, collectPatternNames(p)...)
				}
			}
		}

		frame := &varScopeFrame{scope: s, names: map[string]bool{}}
		a.collectLexical(n, s)

		for _, c := range n.Children {
			a.collectVarNames(c, frame)
		}

		a.walkChildren(n, frame)
		a.finishVarFrame(frame)
		a.fillCaptured(s, n)

		return
	case "BlockStatement":
		// Every BlockStatement, a function's own body included, gets its
		// own block Scope for the lexical declarations directly in it; var
		// declarations still hoist to varScope.
		s := &Scope{Kind: ScopeBlock, Node: n}
		a.scopes = append(a.scopes, s)
		a.collectLexical(n, s)
	case "CatchClause":
		s := &Scope{Kind: ScopeCatch, Node: n}
		a.scopes = append(a.scopes, s)

		schema := Schema[n.Kind]
		for i, f := range schema.Fields {
			if f.Name == "param" {
				s.ParameterNames = collectPatternNames(n.Children[i])
			}
		}
	}

	for _, c := range n.Children {
		a.walk(c, varScope)
	}
}

func (a *scopeAnalyzer) walkChildren(n *parsetree.Node, frame *varScopeFrame) {
	schema := Schema[n.Kind]

	for i, c := range n.Children {
		fieldName := ""
		if i < len(schema.Fields) {
			fieldName = schema.Fields[i].Name
		}

		if fieldName == "params" {
			continue // already collected as ParameterNames
		}

		a.walk(c, frame)
	}
}

func (a *scopeAnalyzer) finishVarFrame(frame *varScopeFrame) {
	for name := range frame.names {
		frame.scope.VarDeclaredNames = append(frame.scope.VarDeclaredNames, name)
	}
}

// collectLexical gathers the let/const/class/function declarations
// directly in n's own statement list (not descending into nested
// blocks or functions).
func (a *scopeAnalyzer) collectLexical(n *parsetree.Node, s *Scope) {
	schema, ok := Schema[n.Kind]
	if !ok {
		return
	}

	for i, f := range schema.Fields {
		if f.Kind != FieldChildArray || f.Name != "body" {
			continue
		}

		for _, stmt := range childArrayElements(n.Children[i]) {
			collectStatementLexicalNames(stmt, s)
		}
	}
}

func collectStatementLexicalNames(stmt *parsetree.Node, s *Scope) {
	if stmt == nil {
		return
	}

	switch stmt.Kind {
	case "VariableDeclaration":
		kind, _ := fieldValue(stmt, "kind").(string)
		if kind == "let" || kind == "const" {
			for _, d := range childArrayElements(fieldNode(stmt, "declarations")) {
				idField := fieldNode(d, "id")
				s.LexicallyDeclaredNames = append(s.LexicallyDeclaredNames, collectPatternNames(idField)...)
			}
		}
	case "ClassDeclaration":
		if name, ok := fieldValue(fieldNode(stmt, "id"), "name").(string); ok {
			s.LexicallyDeclaredNames = append(s.LexicallyDeclaredNames, name)
		}
	case "FunctionDeclaration":
		if name, ok := fieldValue(fieldNode(stmt, "id"), "name").(string); ok {
			s.LexicallyDeclaredNames = append(s.LexicallyDeclaredNames, name)
		}
	}
}

// collectVarNames finds every `var`-kind VariableDeclaration in n's
// subtree, stopping at nested function boundaries, and records the
// declared names on frame.
func (a *scopeAnalyzer) collectVarNames(n *parsetree.Node, frame *varScopeFrame) {
	if n == nil || functionKinds[n.Kind] {
		return
	}

	if n.Kind == "VariableDeclaration" {
		if kind, _ := fieldValue(n, "kind").(string); kind == "var" {
			for _, d := range childArrayElements(fieldNode(n, "declarations")) {
				for _, name := range collectPatternNames(fieldNode(d, "id")) {
					frame.names[name] = true
				}
			}
		}
	}

	for _, c := range n.Children {
		a.collectVarNames(c, frame)
	}
}

// fillCaptured computes names referenced inside nested function scopes
// within n's subtree that match one of s's own bindings — the names
// spec §4.6 calls "captured" (referenced from an enclosing scope).
func (a *scopeAnalyzer) fillCaptured(s *Scope, n *parsetree.Node) {
	bound := make(map[string]bool)

	for _, name := range s.ParameterNames {
		bound[name] = true
	}

	for _, name := range s.LexicallyDeclaredNames {
		bound[name] = true
	}

	for _, name := range s.VarDeclaredNames {
		bound[name] = true
	}

	if len(bound) == 0 {
		return
	}

	seen := make(map[string]bool)

	var walkNested func(n *parsetree.Node, insideNested bool)
	walkNested = func(n *parsetree.Node, insideNested bool) {
		if n == nil {
			return
		}

		nowNested := insideNested || functionKinds[n.Kind]

		if insideNested && n.Kind == "Identifier" {
			if name, ok := fieldValue(n, "name").(string); ok && bound[name] && !seen[name] {
				seen[name] = true
				s.CapturedNames = append(s.CapturedNames, name)
			}
		}

		for _, c := range n.Children {
			walkNested(c, nowNested)
		}
	}

	for _, c := range n.Children {
		walkNested(c, functionKinds[n.Kind])
	}
}

// collectPatternNames returns every binding name introduced by a
// (possibly destructuring) binding pattern: Identifier, ObjectPattern,
// ArrayPattern, AssignmentPattern, RestElement.
func collectPatternNames(n *parsetree.Node) []string {
	if n == nil {
		return nil
	}

	switch n.Kind {
	case "Identifier":
		if name, ok := fieldValue(n, "name").(string); ok {
			return []string{name}
		}
	case "AssignmentPattern":
		return collectPatternNames(fieldNode(n, "left"))
	case "RestElement":
		return collectPatternNames(fieldNode(n, "argument"))
	case "ArrayPattern":
		var names []string
		for _, e := range childArrayElements(fieldNode(n, "elements")) {
			names = append(names, collectPatternNames(e)...)
		}

		return names
	case "ObjectPattern":
		var names []string
		for _, p := range childArrayElements(fieldNode(n, "properties")) {
			if p.Kind == "RestElement" {
				names = append(names, collectPatternNames(p)...)

				continue
			}

			names = append(names, collectPatternNames(fieldNode(p, "value"))...)
		}

		return names
	}

	return nil
}

// fieldNode returns n's child at fieldName's schema position, or nil.
func fieldNode(n *parsetree.Node, fieldName string) *parsetree.Node {
	if n == nil {
		return nil
	}

	schema, ok := Schema[n.Kind]
	if !ok {
		return nil
	}

	for i, f := range schema.Fields {
		if f.Name == fieldName && i < len(n.Children) {
			return n.Children[i]
		}
	}

	return nil
}

// fieldValue returns a primitive field's raw value, or nil.
func fieldValue(n *parsetree.Node, fieldName string) any {
	fn := fieldNode(n, fieldName)
	if fn == nil {
		return nil
	}

	return fn.Value
}

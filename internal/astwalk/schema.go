// Package astwalk turns the external parser's untyped parse tree
// (internal/parsetree) into the ranked tree the TreeRePair engine
// consumes. Node kinds are described by a static schema rather than by
// per-type methods, per the polymorphic-scan design: one descriptor
// table, keyed by node-kind name, naming each kind's fields in canonical
// order and how to read them off a parsetree.Node.
package astwalk

// FieldKind tags how a schema field's value should be read off a
// parsetree.Node and how it participates in the ranked tree.
type FieldKind uint8

const (
	// FieldChild is a single optional child (nil allowed).
	FieldChild FieldKind = iota
	// FieldChildArray is an ordered list of children (a JS AST "body",
	// "elements", "arguments", etc).
	FieldChildArray
	// FieldPrimitive is a primitive value (string, number, bool) stored
	// directly on the node, becoming a distinguished leaf Terminal.
	FieldPrimitive
)

// FieldDescriptor names one field of a node kind, in the position it
// occupies within that kind's canonical field order.
type FieldDescriptor struct {
	Name string
	Kind FieldKind
}

// NodeSchema is the scan descriptor for one AST node kind: its fields,
// in canonical left-to-right order. Rank is len(Fields).
type NodeSchema struct {
	Kind   string
	Fields []FieldDescriptor
}

func child(name string) FieldDescriptor     { return FieldDescriptor{Name: name, Kind: FieldChild} }
func childArray(name string) FieldDescriptor { return FieldDescriptor{Name: name, Kind: FieldChildArray} }
func primitive(name string) FieldDescriptor { return FieldDescriptor{Name: name, Kind: FieldPrimitive} }

// Schema is the full descriptor table: every node kind the walker
// accepts, and its canonical field order. Unlisted kinds are a
// SchemaMismatch.
var Schema = buildSchema()

func buildSchema() map[string]NodeSchema {
	entries := []NodeSchema{
		{"Program", []FieldDescriptor{childArray("body")}},
		{"ExpressionStatement", []FieldDescriptor{child("expression")}},
		{"BlockStatement", []FieldDescriptor{childArray("body")}},
		{"EmptyStatement", nil},
		{"DebuggerStatement", nil},
		{"WithStatement", []FieldDescriptor{child("object"), child("body")}},
		{"ReturnStatement", []FieldDescriptor{child("argument")}},
		{"LabeledStatement", []FieldDescriptor{primitive("label"), child("body")}},
		{"BreakStatement", []FieldDescriptor{primitive("label")}},
		{"ContinueStatement", []FieldDescriptor{primitive("label")}},
		{"IfStatement", []FieldDescriptor{child("test"), child("consequent"), child("alternate")}},
		{"SwitchStatement", []FieldDescriptor{child("discriminant"), childArray("cases")}},
		{"SwitchCase", []FieldDescriptor{child("test"), childArray("consequent")}},
		{"ThrowStatement", []FieldDescriptor{child("argument")}},
		{"TryStatement", []FieldDescriptor{child("block"), child("handler"), child("finalizer")}},
		{"CatchClause", []FieldDescriptor{child("param"), child("body")}},
		{"WhileStatement", []FieldDescriptor{child("test"), child("body")}},
		{"DoWhileStatement", []FieldDescriptor{child("body"), child("test")}},
		{"ForStatement", []FieldDescriptor{child("init"), child("test"), child("update"), child("body")}},
		{"ForInStatement", []FieldDescriptor{child("left"), child("right"), child("body")}},
		{"ForOfStatement", []FieldDescriptor{primitive("await"), child("left"), child("right"), child("body")}},
		{"FunctionDeclaration", []FieldDescriptor{
			child("id"), childArray("params"), child("body"), primitive("generator"), primitive("async"),
		}},
		{"VariableDeclaration", []FieldDescriptor{primitive("kind"), childArray("declarations")}},
		{"VariableDeclarator", []FieldDescriptor{child("id"), child("init")}},
		{"ClassDeclaration", []FieldDescriptor{child("id"), child("superClass"), child("body")}},
		{"ClassBody", []FieldDescriptor{childArray("body")}},
		{"MethodDefinition", []FieldDescriptor{
			child("key"), child("value"), primitive("kind"), primitive("static"), primitive("computed"),
		}},
		{"PropertyDefinition", []FieldDescriptor{
			child("key"), child("value"), primitive("static"), primitive("computed"),
		}},

		{"Identifier", []FieldDescriptor{primitive("name")}},
		{"PrivateIdentifier", []FieldDescriptor{primitive("name")}},
		{"Literal", []FieldDescriptor{primitive("value")}},
		{"ThisExpression", nil},
		{"Super", nil},
		{"ArrayExpression", []FieldDescriptor{childArray("elements")}},
		{"ObjectExpression", []FieldDescriptor{childArray("properties")}},
		{"Property", []FieldDescriptor{
			child("key"), child("value"), primitive("kind"), primitive("computed"), primitive("shorthand"),
		}},
		{"FunctionExpression", []FieldDescriptor{
			child("id"), childArray("params"), child("body"), primitive("generator"), primitive("async"),
		}},
		{"ArrowFunctionExpression", []FieldDescriptor{
			childArray("params"), child("body"), primitive("expression"), primitive("async"),
		}},
		{"ClassExpression", []FieldDescriptor{child("id"), child("superClass"), child("body")}},
		{"TemplateLiteral", []FieldDescriptor{childArray("quasis"), childArray("expressions")}},
		{"TemplateElement", []FieldDescriptor{primitive("raw"), primitive("cooked"), primitive("tail")}},
		{"TaggedTemplateExpression", []FieldDescriptor{child("tag"), child("quasi")}},
		{"RegExpLiteral", []FieldDescriptor{primitive("pattern"), primitive("flags")}},

		{"UnaryExpression", []FieldDescriptor{primitive("operator"), primitive("prefix"), child("argument")}},
		{"UpdateExpression", []FieldDescriptor{primitive("operator"), primitive("prefix"), child("argument")}},
		{"BinaryExpression", []FieldDescriptor{primitive("operator"), child("left"), child("right")}},
		{"LogicalExpression", []FieldDescriptor{primitive("operator"), child("left"), child("right")}},
		{"AssignmentExpression", []FieldDescriptor{primitive("operator"), child("left"), child("right")}},
		{"ConditionalExpression", []FieldDescriptor{child("test"), child("consequent"), child("alternate")}},
		{"CallExpression", []FieldDescriptor{child("callee"), childArray("arguments"), primitive("optional")}},
		{"NewExpression", []FieldDescriptor{child("callee"), childArray("arguments")}},
		{"SequenceExpression", []FieldDescriptor{childArray("expressions")}},
		{"MemberExpression", []FieldDescriptor{
			child("object"), child("property"), primitive("computed"), primitive("optional"),
		}},
		{"SpreadElement", []FieldDescriptor{child("argument")}},
		{"YieldExpression", []FieldDescriptor{child("argument"), primitive("delegate")}},
		{"AwaitExpression", []FieldDescriptor{child("argument")}},
		{"ChainExpression", []FieldDescriptor{child("expression")}},

		{"ObjectPattern", []FieldDescriptor{childArray("properties")}},
		{"ArrayPattern", []FieldDescriptor{childArray("elements")}},
		{"AssignmentPattern", []FieldDescriptor{child("left"), child("right")}},
		{"RestElement", []FieldDescriptor{child("argument")}},

		{"ImportDeclaration", []FieldDescriptor{childArray("specifiers"), primitive("source")}},
		{"ImportSpecifier", []FieldDescriptor{child("imported"), child("local")}},
		{"ImportDefaultSpecifier", []FieldDescriptor{child("local")}},
		{"ImportNamespaceSpecifier", []FieldDescriptor{child("local")}},
		{"ExportNamedDeclaration", []FieldDescriptor{
			child("declaration"), childArray("specifiers"), primitive("source"),
		}},
		{"ExportSpecifier", []FieldDescriptor{child("local"), child("exported")}},
		{"ExportDefaultDeclaration", []FieldDescriptor{child("declaration")}},
		{"ExportAllDeclaration", []FieldDescriptor{primitive("source"), child("exported")}},
	}

	out := make(map[string]NodeSchema, len(entries))
	for _, e := range entries {
		out[e.Kind] = e
	}

	return out
}

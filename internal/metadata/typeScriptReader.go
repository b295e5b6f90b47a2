package metadata

import (
	"strings"

	"github.com/cockroachdb/errors"
	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// TypeScriptReader turns TypeScript declaration source into a Forest.
type TypeScriptReader struct {
	language *sitter.Language
}

// ReadStats reports how much of the input could not be parsed cleanly.
// Reading continues best-effort past syntax errors and undecodable types.
type ReadStats struct {
	SyntaxErrors int
	// Skipped lists declarations that were left out of the forest.
	Skipped []string
}

func NewTypeScriptReader() *TypeScriptReader {
	return &TypeScriptReader{
		language: sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()),
	}
}

// Read parses source and collects every module, interface, class and type
// alias found in it.
func (reader *TypeScriptReader) Read(path string, source []byte) (*Forest, ReadStats, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(reader.language); err != nil {
		return nil, ReadStats{}, errors.Wrap(err, "could not load typescript grammar")
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, ReadStats{}, errors.Newf("parse failed for %s", path)
	}
	defer tree.Close()

	root := tree.RootNode()
	walker := &tsWalker{source: source}
	forest := &Forest{Source: path, Nodes: walker.statements(root)}
	if root.HasError() {
		walker.stats.SyntaxErrors = countErrors(root)
	}
	return forest, walker.stats, nil
}

type tsWalker struct {
	source []byte
	stats  ReadStats
}

func (w *tsWalker) text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return string(w.source[node.StartByte():node.EndByte()])
}

func namedChildren(node *sitter.Node) []*sitter.Node {
	if node == nil {
		return nil
	}
	children := make([]*sitter.Node, 0, node.ChildCount())
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil || !child.IsNamed() || child.Kind() == "comment" {
			continue
		}
		children = append(children, child)
	}
	return children
}

func hasToken(node *sitter.Node, token string) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && !child.IsNamed() && child.Kind() == token {
			return true
		}
	}
	return false
}

func countErrors(node *sitter.Node) int {
	count := 0
	if node.IsError() || node.IsMissing() {
		count++
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		if child := node.Child(i); child != nil && child.HasError() {
			count += countErrors(child)
		}
	}
	return count
}

func (w *tsWalker) statements(node *sitter.Node) []Node {
	nodes := make([]Node, 0)
	for _, child := range namedChildren(node) {
		nodes = append(nodes, w.statement(child)...)
	}
	return nodes
}

func (w *tsWalker) statement(node *sitter.Node) []Node {
	switch node.Kind() {
	case "export_statement":
		if declaration := node.ChildByFieldName("declaration"); declaration != nil {
			return w.statement(declaration)
		}
		return nil
	case "ambient_declaration", "expression_statement":
		nodes := make([]Node, 0)
		for _, child := range namedChildren(node) {
			if child.Kind() == "statement_block" {
				// declare global { ... }
				nodes = append(nodes, w.statements(child)...)
				continue
			}
			nodes = append(nodes, w.statement(child)...)
		}
		return nodes
	case "module", "internal_module":
		return []Node{w.module(node)}
	case "interface_declaration":
		return []Node{w.interfaceDeclaration(node)}
	case "class_declaration", "abstract_class_declaration":
		return []Node{w.classDeclaration(node)}
	case "type_alias_declaration":
		return []Node{w.aliasDeclaration(node)}
	}
	return nil
}

func (w *tsWalker) module(node *sitter.Node) *Module {
	name := strings.Trim(w.text(node.ChildByFieldName("name")), "\"'`")
	module := &Module{Name: name, Body: make([]Node, 0)}
	if body := node.ChildByFieldName("body"); body != nil {
		module.Body = w.statements(body)
	}
	return module
}

func (w *tsWalker) interfaceDeclaration(node *sitter.Node) *Interface {
	declaration := &Interface{
		Name:    w.text(node.ChildByFieldName("name")),
		Bases:   make([]*ReferenceType, 0),
		Members: make([]Node, 0),
	}

	for _, child := range namedChildren(node) {
		switch child.Kind() {
		case "extends_type_clause":
			for _, base := range namedChildren(child) {
				if reference, ok := w.typeNode(base).(*ReferenceType); ok {
					declaration.Bases = append(declaration.Bases, reference)
				}
			}
		case "interface_body", "object_type":
			declaration.Members = w.members(child)
		}
	}

	return declaration
}

func (w *tsWalker) classDeclaration(node *sitter.Node) *Interface {
	declaration := &Interface{
		Name:    w.text(node.ChildByFieldName("name")),
		Bases:   make([]*ReferenceType, 0),
		Members: make([]Node, 0),
	}

	for _, child := range namedChildren(node) {
		switch child.Kind() {
		case "class_heritage":
			for _, clause := range namedChildren(child) {
				for _, base := range namedChildren(clause) {
					if base.Kind() == "type_arguments" {
						continue
					}
					declaration.Bases = append(declaration.Bases, &ReferenceType{Name: w.text(base)})
				}
			}
		case "class_body":
			declaration.Members = w.members(child)
		}
	}

	return declaration
}

func (w *tsWalker) aliasDeclaration(node *sitter.Node) *Alias {
	alias := &Alias{
		Name:    w.text(node.ChildByFieldName("name")),
		Bases:   make([]*ReferenceType, 0),
		Members: make([]Node, 0),
	}

	value := node.ChildByFieldName("value")
	if value == nil {
		return alias
	}
	alias.Value = w.typeNode(value)

	var collect func(part *sitter.Node)
	collect = func(part *sitter.Node) {
		switch part.Kind() {
		case "object_type":
			alias.Members = append(alias.Members, w.members(part)...)
		case "intersection_type":
			for _, arm := range namedChildren(part) {
				collect(arm)
			}
		case "parenthesized_type":
			for _, inner := range namedChildren(part) {
				collect(inner)
			}
		case "type_identifier", "nested_type_identifier", "generic_type":
			if reference, ok := w.typeNode(part).(*ReferenceType); ok {
				alias.Bases = append(alias.Bases, reference)
			}
		}
	}
	collect(value)

	return alias
}

func (w *tsWalker) members(body *sitter.Node) []Node {
	members := make([]Node, 0)
	for _, child := range namedChildren(body) {
		switch child.Kind() {
		case "property_signature", "public_field_definition":
			members = append(members, w.property(child))
		case "method_signature", "method_definition", "abstract_method_signature":
			members = append(members, w.method(child))
		case "call_signature", "construct_signature":
			members = append(members, &Method{Returns: w.typeAnnotation(child.ChildByFieldName("return_type"))})
		case "index_signature":
			members = append(members, &Property{Type: w.typeAnnotation(child.ChildByFieldName("type"))})
		}
	}
	return members
}

func (w *tsWalker) property(node *sitter.Node) *Property {
	return &Property{
		Name:     w.propertyName(node.ChildByFieldName("name")),
		Type:     w.typeAnnotation(node.ChildByFieldName("type")),
		Optional: hasToken(node, "?"),
		Readonly: hasToken(node, "readonly"),
	}
}

func (w *tsWalker) method(node *sitter.Node) *Method {
	method := &Method{
		Name:       w.propertyName(node.ChildByFieldName("name")),
		Parameters: make([]*Property, 0),
		Returns:    w.typeAnnotation(node.ChildByFieldName("return_type")),
		Optional:   hasToken(node, "?"),
	}

	for _, parameter := range namedChildren(node.ChildByFieldName("parameters")) {
		switch parameter.Kind() {
		case "required_parameter", "optional_parameter":
			method.Parameters = append(method.Parameters, &Property{
				Name:     w.text(parameter.ChildByFieldName("pattern")),
				Type:     w.typeAnnotation(parameter.ChildByFieldName("type")),
				Optional: parameter.Kind() == "optional_parameter",
			})
		}
	}

	return method
}

func (w *tsWalker) propertyName(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	switch node.Kind() {
	case "string":
		return strings.Trim(w.text(node), "\"'")
	case "computed_property_name":
		// [Symbol.iterator] and friends have no usable member name
		return ""
	}
	return w.text(node)
}

// typeAnnotation unwraps `: T`. A missing annotation yields nil.
func (w *tsWalker) typeAnnotation(node *sitter.Node) TypeNode {
	if node == nil {
		return nil
	}
	if node.Kind() != "type_annotation" {
		// asserts / type predicate annotations
		if node.Kind() == "type_predicate_annotation" || node.Kind() == "asserts_annotation" {
			return &Primitive{Keyword: "boolean"}
		}
		return w.typeNode(node)
	}
	children := namedChildren(node)
	if len(children) == 0 {
		return nil
	}
	return w.typeNode(children[0])
}

func (w *tsWalker) typeNode(node *sitter.Node) TypeNode {
	switch node.Kind() {
	case "predefined_type":
		return &Primitive{Keyword: w.text(node)}
	case "literal_type":
		return w.literalType(node)
	case "type_identifier", "nested_type_identifier", "identifier":
		name := w.text(node)
		if name == "undefined" || name == "null" {
			return &Primitive{Keyword: name}
		}
		return &ReferenceType{Name: name}
	case "generic_type":
		return w.genericType(node)
	case "array_type":
		children := namedChildren(node)
		if len(children) == 0 {
			return &OpaqueType{Text: w.text(node)}
		}
		return &ArrayType{Element: w.typeNode(children[0])}
	case "readonly_type", "parenthesized_type":
		children := namedChildren(node)
		if len(children) == 0 {
			return &OpaqueType{Text: w.text(node)}
		}
		return w.typeNode(children[0])
	case "union_type":
		union := &UnionType{Arms: make([]TypeNode, 0)}
		w.flattenUnion(node, union)
		return union
	}
	return &OpaqueType{Text: w.text(node)}
}

func (w *tsWalker) flattenUnion(node *sitter.Node, union *UnionType) {
	for _, arm := range namedChildren(node) {
		if arm.Kind() == "union_type" {
			w.flattenUnion(arm, union)
			continue
		}
		union.Arms = append(union.Arms, w.typeNode(arm))
	}
}

func (w *tsWalker) literalType(node *sitter.Node) TypeNode {
	kind := w.text(node)
	if children := namedChildren(node); len(children) > 0 {
		kind = children[0].Kind()
	}

	switch kind {
	case "null", "undefined":
		return &Primitive{Keyword: kind}
	case "string", "template_string":
		return &Primitive{Keyword: "string"}
	case "number", "unary_expression":
		return &Primitive{Keyword: "number"}
	case "true", "false":
		return &Primitive{Keyword: "boolean"}
	}
	return &OpaqueType{Text: w.text(node)}
}

// genericType keeps arguments on the reference, except for the array
// spellings Array<T> and ReadonlyArray<T> which become array types.
func (w *tsWalker) genericType(node *sitter.Node) TypeNode {
	name := w.text(node.ChildByFieldName("name"))
	arguments := make([]TypeNode, 0)
	for _, argument := range namedChildren(node.ChildByFieldName("type_arguments")) {
		arguments = append(arguments, w.typeNode(argument))
	}

	if (name == "Array" || name == "ReadonlyArray") && len(arguments) == 1 {
		return &ArrayType{Element: arguments[0]}
	}
	return &ReferenceType{Name: name, Arguments: arguments}
}

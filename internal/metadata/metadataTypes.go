package metadata

import "fmt"

// Kind tags every node of a declaration forest.
type Kind int

const (
	KindModule Kind = iota
	KindInterface
	KindAlias
	KindProperty
	KindMethod
	KindArrayType
	KindReferenceType
	KindUnionType
	KindPrimitive
	KindOpaqueType
)

var kindNames = map[Kind]string{
	KindModule:        "module",
	KindInterface:     "interface",
	KindAlias:         "alias",
	KindProperty:      "property",
	KindMethod:        "method",
	KindArrayType:     "array-type",
	KindReferenceType: "reference-type",
	KindUnionType:     "union-type",
	KindPrimitive:     "primitive",
	KindOpaqueType:    "opaque-type",
}

func (k Kind) String() string {
	if name, found := kindNames[k]; found {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Node is any element of the declaration forest.
type Node interface {
	Kind() Kind
}

// TypeNode is a node that can appear in type position.
type TypeNode interface {
	Node
	typeNode()
}

// Declaration is a named, indexable node: an interface or an alias.
type Declaration interface {
	Node
	LocalName() string
	BaseTypes() []*ReferenceType
	MemberNodes() []Node
}

// Forest is the result of reading one input file.
type Forest struct {
	Source string
	Nodes  []Node
}

type Module struct {
	Name string
	Body []Node
}

type Interface struct {
	Name    string
	Bases   []*ReferenceType
	Members []Node
}

// Alias is a `type X = ...` declaration. Bases and Members are derived from
// Value by the reader: named intersection arms become bases and object
// literal arms contribute members.
type Alias struct {
	Name    string
	Bases   []*ReferenceType
	Members []Node
	Value   TypeNode
}

// Property is a property-like member. A nil Type marks a malformed member.
type Property struct {
	Name     string
	Type     TypeNode
	Optional bool
	Readonly bool
}

// Method is a callable member. Call and construct signatures have no name.
type Method struct {
	Name       string
	Parameters []*Property
	Returns    TypeNode
	Optional   bool
}

type ArrayType struct {
	Element TypeNode
}

// ReferenceType names another declaration exactly as written in the source.
type ReferenceType struct {
	Name      string
	Arguments []TypeNode
}

type UnionType struct {
	Arms []TypeNode
}

// Primitive holds a keyword: string, number, boolean, void, any, null,
// undefined, unknown, never, object, symbol or bigint.
type Primitive struct {
	Keyword string
}

// OpaqueType is any type shape the reader does not model (conditional
// types, mapped types, function types, inline object literals, ...).
type OpaqueType struct {
	Text string
}

func (*Module) Kind() Kind        { return KindModule }
func (*Interface) Kind() Kind     { return KindInterface }
func (*Alias) Kind() Kind         { return KindAlias }
func (*Property) Kind() Kind      { return KindProperty }
func (*Method) Kind() Kind        { return KindMethod }
func (*ArrayType) Kind() Kind     { return KindArrayType }
func (*ReferenceType) Kind() Kind { return KindReferenceType }
func (*UnionType) Kind() Kind     { return KindUnionType }
func (*Primitive) Kind() Kind     { return KindPrimitive }
func (*OpaqueType) Kind() Kind    { return KindOpaqueType }

func (*ArrayType) typeNode()     {}
func (*ReferenceType) typeNode() {}
func (*UnionType) typeNode()     {}
func (*Primitive) typeNode()     {}
func (*OpaqueType) typeNode()    {}

func (i *Interface) LocalName() string            { return i.Name }
func (i *Interface) BaseTypes() []*ReferenceType { return i.Bases }
func (i *Interface) MemberNodes() []Node          { return i.Members }

func (a *Alias) LocalName() string            { return a.Name }
func (a *Alias) BaseTypes() []*ReferenceType { return a.Bases }
func (a *Alias) MemberNodes() []Node          { return a.Members }

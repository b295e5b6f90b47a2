package resolution

import (
	"strings"
	"unicode"
)

type PrimitiveKind string

const (
	String  PrimitiveKind = "string"
	Number  PrimitiveKind = "number"
	Boolean PrimitiveKind = "boolean"
	Void    PrimitiveKind = "void"
	// Any is an opaque handle, not a dynamic type.
	Any PrimitiveKind = "any"
)

// TypeDescriptor is one of Primitive, Array, Nullable or Reference.
type TypeDescriptor interface {
	String() string
	descriptor()
}

type Primitive struct {
	Kind PrimitiveKind
}

// Array wraps a non-array element type Depth times.
type Array struct {
	Inner TypeDescriptor
	Depth int
}

type Nullable struct {
	Base TypeDescriptor
}

// Reference names another declaration. The name is not guaranteed to
// resolve. Synthetic references stand for multi-arm unions and are never
// scheduled for generation.
type Reference struct {
	QualifiedName string
	Synthetic     bool
}

func (Primitive) descriptor() {}
func (Array) descriptor()     {}
func (Nullable) descriptor()  {}
func (Reference) descriptor() {}

func (p Primitive) String() string {
	return string(p.Kind)
}

func (a Array) String() string {
	return strings.Repeat("Array<", a.Depth) + a.Inner.String() + strings.Repeat(">", a.Depth)
}

func (n Nullable) String() string {
	return n.Base.String() + "?"
}

func (r Reference) String() string {
	return r.QualifiedName
}

// MemberDescriptor describes one property or method. For methods Type is
// the return type.
type MemberDescriptor struct {
	Name       string
	Type       TypeDescriptor
	IsReadonly bool
	IsMethod   bool
}

// Element strips array and nullable wrapping.
func Element(descriptor TypeDescriptor) TypeDescriptor {
	for {
		switch d := descriptor.(type) {
		case Array:
			descriptor = d.Inner
		case Nullable:
			descriptor = d.Base
		default:
			return descriptor
		}
	}
}

// IsReference reports whether the element type names a real declaration.
func IsReference(descriptor TypeDescriptor) bool {
	reference, ok := Element(descriptor).(Reference)
	return ok && !reference.Synthetic
}

func nullable(descriptor TypeDescriptor) TypeDescriptor {
	if _, already := descriptor.(Nullable); already {
		return descriptor
	}
	return Nullable{Base: descriptor}
}

// syntheticName builds the name a multi-arm union is emitted under, e.g.
// string | Foo[] -> StringOrFooArray.
func syntheticName(arms []TypeDescriptor) string {
	parts := make([]string, 0, len(arms))
	for _, arm := range arms {
		parts = append(parts, armName(arm))
	}
	return strings.Join(parts, "Or")
}

func armName(descriptor TypeDescriptor) string {
	switch d := descriptor.(type) {
	case Primitive:
		return upperFirst(string(d.Kind))
	case Array:
		return armName(d.Inner) + strings.Repeat("Array", d.Depth)
	case Nullable:
		return "Nullable" + armName(d.Base)
	case Reference:
		_, local := SplitQualifiedName(d.QualifiedName)
		return upperFirst(local)
	}
	return "Unknown"
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

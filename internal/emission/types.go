package emission

import (
	"strings"

	"github.com/cockroachdb/errors"

	"declgen/internal/resolution"
)

const (
	TargetCSharp = "csharp"
	TargetGo     = "go"
)

// TypeMapper configures how descriptors are spelled in a target language.
type TypeMapper struct {
	Target string

	// Primitives maps every primitive kind to its target spelling. An empty
	// string means "no type" and is only valid for void.
	Primitives map[resolution.PrimitiveKind]string

	// ArrayFormat wraps an element type once, e.g. C#: "%s[]", Go: "[]%s".
	ArrayFormat func(element string) string

	// NullableFormat marks a type as optional.
	NullableFormat func(base string, descriptor resolution.TypeDescriptor) string

	// ReferenceFormat spells a qualified name as seen from namespace.
	ReferenceFormat func(qualifiedName, namespace string) string
}

var csharpTypes = &TypeMapper{
	Target: TargetCSharp,
	Primitives: map[resolution.PrimitiveKind]string{
		resolution.String:  "string",
		resolution.Number:  "double",
		resolution.Boolean: "bool",
		resolution.Void:    "void",
		resolution.Any:     "object",
	},
	ArrayFormat: func(element string) string {
		return element + "[]"
	},
	NullableFormat: func(base string, _ resolution.TypeDescriptor) string {
		return base + "?"
	},
	ReferenceFormat: relativeName,
}

var goTypes = &TypeMapper{
	Target: TargetGo,
	Primitives: map[resolution.PrimitiveKind]string{
		resolution.String:  "string",
		resolution.Number:  "float64",
		resolution.Boolean: "bool",
		resolution.Void:    "",
		resolution.Any:     "any",
	},
	ArrayFormat: func(element string) string {
		return "[]" + element
	},
	NullableFormat: func(base string, descriptor resolution.TypeDescriptor) string {
		// slices and any already have a nil value
		switch d := descriptor.(type) {
		case resolution.Array:
			return base
		case resolution.Primitive:
			if d.Kind == resolution.Any || d.Kind == resolution.Void {
				return base
			}
		}
		return "*" + base
	},
	ReferenceFormat: func(qualifiedName, _ string) string {
		return flattenName(qualifiedName)
	},
}

// MapperFor returns the type mapper of a target language.
func MapperFor(target string) (*TypeMapper, error) {
	switch target {
	case TargetCSharp:
		return csharpTypes, nil
	case TargetGo:
		return goTypes, nil
	}
	return nil, errors.WithHint(
		errors.Newf("unknown target %q", target),
		"supported targets are csharp and go")
}

// Convert spells descriptor in the target language. References are written
// relative to namespace where the target supports it.
func (m *TypeMapper) Convert(descriptor resolution.TypeDescriptor, namespace string) string {
	switch d := descriptor.(type) {
	case resolution.Primitive:
		if spelled, found := m.Primitives[d.Kind]; found {
			return spelled
		}
		return m.Primitives[resolution.Any]
	case resolution.Array:
		spelled := m.Convert(d.Inner, namespace)
		for i := 0; i < d.Depth; i++ {
			spelled = m.ArrayFormat(spelled)
		}
		return spelled
	case resolution.Nullable:
		return m.NullableFormat(m.Convert(d.Base, namespace), d.Base)
	case resolution.Reference:
		return m.ReferenceFormat(d.QualifiedName, namespace)
	}
	return m.Primitives[resolution.Any]
}

// relativeName drops the part of qualifiedName shared with namespace, so
// A.B.Foo is Foo inside A.B and B.Foo inside A.
func relativeName(qualifiedName, namespace string) string {
	for scope := namespace; scope != ""; {
		if strings.HasPrefix(qualifiedName, scope+".") {
			return strings.TrimPrefix(qualifiedName, scope+".")
		}
		index := strings.LastIndex(scope, ".")
		if index < 0 {
			break
		}
		scope = scope[:index]
	}
	return qualifiedName
}

func flattenName(qualifiedName string) string {
	return strings.ReplaceAll(qualifiedName, ".", "")
}

// ExtensionFor is the artifact file extension of a target.
func ExtensionFor(target string) string {
	if target == TargetGo {
		return ".go"
	}
	return ".cs"
}

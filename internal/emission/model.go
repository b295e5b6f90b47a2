package emission

import (
	"declgen/internal/generation"
	"declgen/internal/resolution"
)

// Model is what templates see.
type Model struct {
	Namespace       string
	RootNamespace   string
	ObjectName      string
	ExtendedClasses []string
	Properties      []Property
}

type Property struct {
	Name       string
	Type       string
	IsReadonly bool
	IsMethod   bool
	IsRefType  bool
}

// BuildModel converts a resolved entity into a template model. Properties
// behave like an ordered map keyed by name: a repeated member keeps the
// position of its first occurrence and the value of its last one.
func BuildModel(entity generation.ResolvedEntity, mapper *TypeMapper, rootNamespace string) Model {
	model := Model{
		Namespace:       entity.Namespace,
		RootNamespace:   rootNamespace,
		ObjectName:      mapper.ReferenceFormat(entity.QualifiedName, entity.Namespace),
		ExtendedClasses: make([]string, 0, len(entity.BaseTypeNames)),
		Properties:      make([]Property, 0, len(entity.Members)),
	}

	for _, base := range entity.BaseTypeNames {
		model.ExtendedClasses = append(model.ExtendedClasses, mapper.ReferenceFormat(base, entity.Namespace))
	}

	positions := make(map[string]int, len(entity.Members))
	for _, member := range entity.Members {
		property := Property{
			Name:       member.Name,
			Type:       mapper.Convert(member.Type, entity.Namespace),
			IsReadonly: member.IsReadonly,
			IsMethod:   member.IsMethod,
			IsRefType:  resolution.IsReference(member.Type),
		}
		if position, found := positions[member.Name]; found {
			model.Properties[position] = property
			continue
		}
		positions[member.Name] = len(model.Properties)
		model.Properties = append(model.Properties, property)
	}

	return model
}

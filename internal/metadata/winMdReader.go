// The package used for reading declaration sources and describing them as a
// forest of declaration nodes.
package metadata

import (
	"debug/pe"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/microsoft/go-winmd"
	"github.com/microsoft/go-winmd/flags"
)

type WinMdReader struct {
	metadata *winmd.Metadata
	// nested type definitions mapped to their enclosing type definition
	enclosing map[winmd.Index]winmd.Index
}

// Tables a TypeDefOrRef coded index can point into.
type referenceTable int

const (
	referenceTypeDef referenceTable = iota
	referenceTypeRef
	referenceOther
)

func referenceTableOf(index winmd.CodedIndex) referenceTable {
	switch index.Tag {
	case 0:
		return referenceTypeDef
	case 1:
		return referenceTypeRef
	}
	return referenceOther
}

// The map of basic metadata element types to declaration keywords
var builtInElementTypes map[flags.ElementType]string = map[flags.ElementType]string{
	flags.ElementType_BOOLEAN: "boolean",
	flags.ElementType_CHAR:    "string",
	flags.ElementType_STRING:  "string",
	flags.ElementType_I1:      "number",
	flags.ElementType_I2:      "number",
	flags.ElementType_I4:      "number",
	flags.ElementType_I8:      "number",
	flags.ElementType_U1:      "number",
	flags.ElementType_U2:      "number",
	flags.ElementType_U4:      "number",
	flags.ElementType_U8:      "number",
	flags.ElementType_R4:      "number",
	flags.ElementType_R8:      "number",
}

// The map of types created by `typedef` in C code to declaration keywords
var builtInTypeDefs map[string]string = map[string]string{
	"BOOL":    "number",
	"BOOLEAN": "number",
	"PSTR":    "string",
	"PWSTR":   "string",
}

// Opens a WinMD file under given path
func NewWinMdReader(winMdPath string) (*WinMdReader, error) {
	peFile, err := pe.Open(winMdPath)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open %s", winMdPath)
	}
	defer peFile.Close()

	winmdMetadata, err := winmd.New(peFile)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read metadata from %s", winMdPath)
	}

	reader := &WinMdReader{metadata: winmdMetadata, enclosing: make(map[winmd.Index]winmd.Index)}
	err = iterateOverTable(winmdMetadata.Tables.NestedClass, func(_ winmd.Index, nested *winmd.NestedClass) bool {
		reader.enclosing[nested.NestedClass] = nested.EnclosingClass
		return true
	})
	if err != nil {
		return nil, errors.Wrapf(err, "could not read nested types from %s", winMdPath)
	}
	return reader, nil
}

// Reads every type definition and groups them into one module per namespace.
// Nested types go to the namespace of their outermost enclosing type. Types
// that cannot be decoded are skipped and listed in the returned stats.
func (reader *WinMdReader) Read(source string) (*Forest, ReadStats, error) {
	modules := make(map[string]*Module)
	stats := ReadStats{Skipped: make([]string, 0)}

	err := iterateOverTable(reader.metadata.Tables.TypeDef, func(index winmd.Index, typeDef *winmd.TypeDef) bool {
		if typeDef.Name.String() == "" || typeDef.Name.String() == "<Module>" {
			return true
		}

		namespace, name, err := reader.typeDefName(index)
		if err != nil {
			stats.Skipped = append(stats.Skipped, typeDef.Name.String())
			return true
		}
		declaration, err := reader.getInterface(typeDef, name)
		if err != nil {
			stats.Skipped = append(stats.Skipped, qualify(namespace, name))
			return true
		}

		module, found := modules[namespace]
		if !found {
			module = &Module{Name: namespace, Body: make([]Node, 0)}
			modules[namespace] = module
		}
		module.Body = append(module.Body, declaration)
		return true
	})
	if err != nil {
		return nil, stats, err
	}

	namespaces := make([]string, 0, len(modules))
	for namespace := range modules {
		namespaces = append(namespaces, namespace)
	}
	sort.Strings(namespaces)

	forest := &Forest{Source: source, Nodes: make([]Node, 0, len(namespaces))}
	for _, namespace := range namespaces {
		if namespace == "" {
			forest.Nodes = append(forest.Nodes, modules[namespace].Body...)
			continue
		}
		forest.Nodes = append(forest.Nodes, modules[namespace])
	}
	return forest, stats, nil
}

// typeDefName returns the namespace and name a type definition is declared
// under. Nested types are named Outer_Inner after their enclosing types.
func (reader *WinMdReader) typeDefName(index winmd.Index) (string, string, error) {
	typeDef, err := reader.metadata.Tables.TypeDef.Record(index)
	if err != nil {
		return "", "", errors.Wrap(err, "did not find matching type definition")
	}
	name := typeDef.Name.String()

	for depth := 0; ; depth++ {
		parent, nested := reader.enclosing[index]
		if !nested {
			return typeDef.Namespace.String(), name, nil
		}
		if depth > len(reader.enclosing) {
			return "", "", errors.Newf("nesting cycle at type %s", name)
		}
		index = parent
		typeDef, err = reader.metadata.Tables.TypeDef.Record(index)
		if err != nil {
			return "", "", errors.Wrap(err, "did not find enclosing type definition")
		}
		name = typeDef.Name.String() + "_" + name
	}
}

func qualify(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + "." + name
}

func (reader *WinMdReader) getInterface(typeDef *winmd.TypeDef, name string) (*Interface, error) {
	declaration := &Interface{
		Name:    name,
		Bases:   make([]*ReferenceType, 0),
		Members: make([]Node, 0),
	}

	for i := typeDef.FieldList.Start; i < typeDef.FieldList.End; i++ {
		field, err := reader.metadata.Tables.Field.Record(i)
		if err != nil {
			return nil, errors.Wrap(err, "no matching field was found")
		}
		property, err := reader.getProperty(field)
		if err != nil {
			return nil, err
		}
		declaration.Members = append(declaration.Members, property)
	}

	return declaration, nil
}

func (reader *WinMdReader) getProperty(field *winmd.Field) (*Property, error) {
	fieldSignature, err := reader.metadata.FieldSignature(field.Signature)
	if err != nil {
		return nil, errors.Wrapf(err, "no matching field signature for field '%s' was found", field.Name.String())
	}
	propertyType, err := reader.getType(fieldSignature.Type)
	if err != nil {
		return nil, errors.Wrapf(err, "could not determine type of field '%s'", field.Name.String())
	}

	return &Property{Name: field.Name.String(), Type: propertyType}, nil
}

func (reader *WinMdReader) getType(sigType winmd.SigType) (TypeNode, error) {
	if keyword, found := builtInElementTypes[sigType.Kind]; found {
		return &Primitive{Keyword: keyword}, nil
	}

	switch value := sigType.Value.(type) {
	case winmd.SigType:
		inner, err := reader.getType(value)
		if err != nil {
			return nil, err
		}
		if sigType.Kind == flags.ElementType_ARRAY {
			return &ArrayType{Element: inner}, nil
		}
		// pointers and other wrappers collapse onto the pointee
		return inner, nil
	case winmd.CodedIndex:
		return reader.getReference(value)
	}

	return &Primitive{Keyword: "any"}, nil
}

func (reader *WinMdReader) getReference(index winmd.CodedIndex) (TypeNode, error) {
	var namespace, name string
	switch referenceTableOf(index) {
	case referenceTypeDef:
		var err error
		namespace, name, err = reader.typeDefName(index.Index)
		if err != nil {
			return nil, err
		}
	case referenceTypeRef:
		typeRef, err := reader.metadata.Tables.TypeRef.Record(index.Index)
		if err != nil {
			return nil, errors.Wrap(err, "did not find matching type reference")
		}
		namespace, name = typeRef.Namespace.String(), typeRef.Name.String()
	default:
		// type specifications (instantiated generics) have no name of their own
		return &OpaqueType{}, nil
	}

	if keyword, found := builtInTypeDefs[name]; found {
		return &Primitive{Keyword: keyword}, nil
	}
	return &ReferenceType{Name: qualify(namespace, name)}, nil
}

// Calls action for every record of the table until it returns false.
func iterateOverTable[T any, TP winmd.Record[T]](table winmd.Table[T, TP], action func(winmd.Index, TP) bool) error {
	for idx := uint32(0); idx < table.Len; idx++ {
		element, err := table.Record(winmd.Index(idx))
		if err != nil {
			return errors.Wrapf(err, "could not read record %d", idx)
		}
		if !action(winmd.Index(idx), element) {
			return nil
		}
	}
	return nil
}

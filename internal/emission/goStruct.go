package emission

import (
	"bytes"
	"strings"
	"unicode"

	"github.com/cockroachdb/errors"
	"github.com/dave/jennifer/jen"
)

const GoStructTemplate = "go-struct"

// GoStructRenderer writes one Go file per entity: a struct with the
// properties as fields, bases embedded, and a stub method per method member.
type GoStructRenderer struct {
	PackageName string
}

func NewGoStructRenderer(packageName string) *GoStructRenderer {
	return &GoStructRenderer{PackageName: packageName}
}

func (renderer *GoStructRenderer) Render(templateName string, model Model) ([]byte, error) {
	if templateName != GoStructTemplate {
		return nil, errors.Newf("unknown template %q for go renderer", templateName)
	}

	file := jen.NewFile(renderer.PackageName)
	file.HeaderComment("Code generated by declgen. DO NOT EDIT.")

	objectName := goIdentifier(model.ObjectName)
	file.Type().Id(objectName).StructFunc(func(g *jen.Group) {
		for _, base := range model.ExtendedClasses {
			g.Id(goIdentifier(base))
		}
		for _, property := range model.Properties {
			if property.IsMethod {
				continue
			}
			g.Id(goIdentifier(property.Name)).Id(fieldType(property)).Tag(map[string]string{"json": property.Name + ",omitempty"})
		}
	}).Line()

	for _, property := range model.Properties {
		if !property.IsMethod {
			continue
		}
		method := file.Func().Params(jen.Id("object").Op("*").Id(objectName)).Id(goIdentifier(property.Name)).Params()
		if property.Type != "" {
			method.Params(jen.Id("result").Id(property.Type))
		}
		method.Block(jen.Return()).Line()
	}

	var buffer bytes.Buffer
	if err := file.Render(&buffer); err != nil {
		return nil, errors.Wrapf(err, "could not render %s", objectName)
	}
	return buffer.Bytes(), nil
}

// fieldType is the Go type of a struct field. Declared types are held by
// pointer so that self and mutual references do not make the struct
// recursive.
func fieldType(property Property) string {
	switch {
	case property.Type == "":
		return "any"
	case property.IsRefType && !strings.HasPrefix(property.Type, "*") && !strings.HasPrefix(property.Type, "[]"):
		return "*" + property.Type
	}
	return property.Type
}

// goIdentifier makes an exported identifier out of a member or type name,
// dropping characters Go does not allow.
func goIdentifier(name string) string {
	var builder strings.Builder
	upper := true
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			upper = true
			continue
		}
		if builder.Len() == 0 && unicode.IsDigit(r) {
			builder.WriteRune('X')
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		builder.WriteRune(r)
	}
	if builder.Len() == 0 {
		return "X"
	}
	return builder.String()
}

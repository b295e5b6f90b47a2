package emission

import (
	"bytes"
	"embed"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
	"unicode"

	"github.com/cockroachdb/errors"

	"declgen/internal"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const templateSuffix = ".cs.tmpl"

// Renderer turns a model into the text of one artifact.
type Renderer interface {
	Render(templateName string, model Model) ([]byte, error)
}

var templateFuncs = template.FuncMap{
	"pascal":    pascal,
	"join":      strings.Join,
	"namespace": joinNamespace,
}

// TemplateRenderer renders the embedded C# templates. It is safe for
// concurrent use.
type TemplateRenderer struct {
	templates *template.Template
}

// NewTemplateRenderer parses the embedded templates and then every *.tmpl
// file of overrideDir, if given. A file in overrideDir replaces the embedded
// template of the same name.
func NewTemplateRenderer(overrideDir string) (*TemplateRenderer, error) {
	templates, err := template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.tmpl")
	internal.PanicOnError(err)

	if overrideDir != "" {
		files, err := filepath.Glob(filepath.Join(overrideDir, "*.tmpl"))
		if err != nil {
			return nil, errors.Wrapf(err, "could not list templates in %s", overrideDir)
		}
		for _, file := range files {
			data, err := os.ReadFile(file)
			if err != nil {
				return nil, errors.Wrapf(err, "could not read template %s", file)
			}
			if _, err := templates.New(filepath.Base(file)).Parse(string(data)); err != nil {
				return nil, errors.Wrapf(err, "could not parse template %s", file)
			}
		}
	}

	return &TemplateRenderer{templates: templates}, nil
}

// Names lists the available template names without their file suffix.
func (renderer *TemplateRenderer) Names() []string {
	names := make([]string, 0)
	for _, tmpl := range renderer.templates.Templates() {
		if name, found := strings.CutSuffix(tmpl.Name(), templateSuffix); found {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func (renderer *TemplateRenderer) Render(templateName string, model Model) ([]byte, error) {
	tmpl := renderer.templates.Lookup(templateName + templateSuffix)
	if tmpl == nil {
		return nil, errors.WithHint(
			errors.Newf("unknown template %q", templateName),
			"available templates: "+strings.Join(renderer.Names(), ", "))
	}

	var buffer bytes.Buffer
	if err := tmpl.Execute(&buffer, model); err != nil {
		return nil, errors.Wrapf(err, "could not execute template %s", templateName)
	}
	return buffer.Bytes(), nil
}

func pascal(name string) string {
	if name == "" {
		return name
	}
	runes := []rune(name)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func joinNamespace(parts ...string) string {
	nonEmpty := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" {
			nonEmpty = append(nonEmpty, part)
		}
	}
	return strings.Join(nonEmpty, ".")
}

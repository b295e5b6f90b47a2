package emission

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"declgen/internal/generation"
	"declgen/internal/metadata"
	"declgen/internal/resolution"
)

func generateInto(t *testing.T, store Store, root string, nodes ...metadata.Node) *generation.Report {
	t.Helper()
	renderer, err := NewTemplateRenderer("")
	require.NoError(t, err)

	index := resolution.Build(&metadata.Forest{Nodes: nodes})
	emitter := NewEmitter(renderer, store, csharpTypes, Settings{
		Template:      "interop",
		RootNamespace: "BlazorBrowser",
		Naming:        NamingQualified,
		Extension:     ".cs",
	}, nil)
	report, err := generation.NewGenerator(index, resolution.NewResolver(index), emitter).Generate(root)
	require.NoError(t, err)
	return report
}

func TestGenerationIsIdempotent(t *testing.T) {
	nodes := []metadata.Node{
		&metadata.Module{Name: "Crypto", Body: []metadata.Node{
			&metadata.Interface{
				Name:  "KeyParams",
				Bases: []*metadata.ReferenceType{{Name: "Algorithm"}},
				Members: []metadata.Node{
					&metadata.Property{Name: "name", Type: &metadata.Primitive{Keyword: "string"}, Readonly: true},
					&metadata.Property{Name: "next", Type: &metadata.ReferenceType{Name: "KeyParams"}, Optional: true},
					&metadata.Method{Name: "derive", Returns: &metadata.ReferenceType{Name: "Key"}},
				},
			},
			&metadata.Interface{Name: "Key", Members: []metadata.Node{
				&metadata.Property{Name: "usages", Type: &metadata.ArrayType{Element: &metadata.ArrayType{Element: &metadata.Primitive{Keyword: "string"}}}},
			}},
		}},
		&metadata.Interface{Name: "Algorithm", Members: []metadata.Node{
			&metadata.Property{Name: "name", Type: &metadata.Primitive{Keyword: "string"}},
		}},
	}

	first := NewMemoryStore()
	second := NewMemoryStore()
	report := generateInto(t, first, "Crypto.KeyParams", nodes...)
	generateInto(t, second, "Crypto.KeyParams", nodes...)

	assert.ElementsMatch(t, []string{"Crypto.KeyParams", "Algorithm", "Crypto.Key"}, report.Emitted)
	require.Equal(t, []string{"Algorithm.cs", "Crypto.Key.cs", "Crypto.KeyParams.cs"}, first.Names())
	assert.Equal(t, first.Names(), second.Names())
	for _, name := range first.Names() {
		a, _ := first.Get(name)
		b, _ := second.Get(name)
		assert.Equal(t, string(a), string(b), name)
	}

	keyParams, _ := first.Get("Crypto.KeyParams.cs")
	assert.Contains(t, string(keyParams), "namespace BlazorBrowser.Crypto")
	assert.Contains(t, string(keyParams), "public class KeyParams : Algorithm")
	assert.Contains(t, string(keyParams), "public KeyParams? Next")
	assert.Contains(t, string(keyParams), "public Key Derive()")
}

package metadata

import (
	"go/build"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/microsoft/go-winmd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const winMdModule = "github.com/microsoft/go-winmd@v0.0.0-20240327084656-1395bb24174a"

func TestReferenceTableOf(t *testing.T) {
	tests := []struct {
		tag  int8
		want referenceTable
	}{
		{0, referenceTypeDef},
		{1, referenceTypeRef},
		{2, referenceOther},
		{-1, referenceOther},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, referenceTableOf(winmd.CodedIndex{Index: 7, Tag: tt.tag}), "tag %d", tt.tag)
	}
}

// win32Metadata locates the Windows.Win32.winmd shipped in go-winmd's
// testdata inside the module cache.
func win32Metadata(t *testing.T) string {
	t.Helper()
	modCache := os.Getenv("GOMODCACHE")
	if modCache == "" {
		modCache = filepath.Join(build.Default.GOPATH, "pkg", "mod")
	}
	path := filepath.Join(modCache, winMdModule, "testdata", "Windows.Win32.winmd")
	if _, err := os.Stat(path); err != nil {
		t.Skipf("Win32 metadata not available: %v", err)
	}
	return path
}

func findInterface(nodes []Node, name string) *Interface {
	for _, node := range nodes {
		switch node := node.(type) {
		case *Interface:
			if node.Name == name {
				return node
			}
		case *Module:
			if found := findInterface(node.Body, name); found != nil {
				return found
			}
		}
	}
	return nil
}

func TestWinMdReaderReadsWin32Metadata(t *testing.T) {
	path := win32Metadata(t)

	forest, stats, err := ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, stats.Skipped)
	require.NotEmpty(t, forest.Nodes)

	// BdaTransportInfo points at a type defined in the same file
	transport := findInterface(forest.Nodes, "KS_DATARANGE_BDA_TRANSPORT")
	require.NotNil(t, transport)

	var info *Property
	for _, member := range transport.Members {
		if property := member.(*Property); property.Name == "BdaTransportInfo" {
			info = property
		}
	}
	require.NotNil(t, info)
	reference, ok := info.Type.(*ReferenceType)
	require.True(t, ok, "expected reference, got %T", info.Type)
	assert.True(t, strings.HasSuffix(reference.Name, ".BDA_TRANSPORT_INFO"), reference.Name)
}

func TestWinMdReaderNamesNestedTypes(t *testing.T) {
	path := win32Metadata(t)
	reader, err := NewWinMdReader(path)
	require.NoError(t, err)
	require.NotEmpty(t, reader.enclosing)

	for nested, parent := range reader.enclosing {
		namespace, name, err := reader.typeDefName(nested)
		require.NoError(t, err)

		parentNamespace, parentName, err := reader.typeDefName(parent)
		require.NoError(t, err)
		assert.Equal(t, parentNamespace, namespace)
		assert.True(t, strings.HasPrefix(name, parentName+"_"), "%s nested in %s", name, parentName)
		break
	}
}

func TestNewWinMdReaderMissingFile(t *testing.T) {
	_, err := NewWinMdReader(filepath.Join(t.TempDir(), "missing.winmd"))
	assert.Error(t, err)
}

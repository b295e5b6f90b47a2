package metadata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cryptoDeclarations = `
declare namespace Crypto {
    interface KeyParams extends Algorithm {
        readonly name: string;
        length?: number;
        usages: string[][];
        next: KeyParams | null;
        derive(base: Algorithm, extractable?: boolean): CryptoKey;
        [key: string]: any;
    }

    namespace Subtle.Engine {
        interface Handle {}
    }
}

interface Algorithm {
    name: string;
    tags: Array<string>;
}

type Derived = Algorithm & { extra: boolean };
`

func readSource(t *testing.T, source string) (*Forest, ReadStats) {
	t.Helper()
	forest, stats, err := NewTypeScriptReader().Read("test.d.ts", []byte(source))
	require.NoError(t, err)
	return forest, stats
}

func TestTypeScriptReaderModulesAndDeclarations(t *testing.T) {
	forest, stats := readSource(t, cryptoDeclarations)
	assert.Zero(t, stats.SyntaxErrors)
	assert.Equal(t, "test.d.ts", forest.Source)
	require.Len(t, forest.Nodes, 3)

	crypto, ok := forest.Nodes[0].(*Module)
	require.True(t, ok, "expected module, got %T", forest.Nodes[0])
	assert.Equal(t, "Crypto", crypto.Name)
	require.Len(t, crypto.Body, 2)

	nested, ok := crypto.Body[1].(*Module)
	require.True(t, ok)
	assert.Equal(t, "Subtle.Engine", nested.Name)
	require.Len(t, nested.Body, 1)
	assert.Equal(t, "Handle", nested.Body[0].(*Interface).Name)

	algorithm, ok := forest.Nodes[1].(*Interface)
	require.True(t, ok)
	assert.Equal(t, "Algorithm", algorithm.Name)
	require.Len(t, algorithm.Members, 2)
	assert.Equal(t, &ArrayType{Element: &Primitive{Keyword: "string"}}, algorithm.Members[1].(*Property).Type)
}

func TestTypeScriptReaderMembers(t *testing.T) {
	forest, _ := readSource(t, cryptoDeclarations)
	keyParams := forest.Nodes[0].(*Module).Body[0].(*Interface)

	assert.Equal(t, "KeyParams", keyParams.Name)
	require.Len(t, keyParams.Bases, 1)
	assert.Equal(t, "Algorithm", keyParams.Bases[0].Name)
	require.Len(t, keyParams.Members, 6)

	name := keyParams.Members[0].(*Property)
	assert.Equal(t, "name", name.Name)
	assert.True(t, name.Readonly)
	assert.False(t, name.Optional)
	assert.Equal(t, &Primitive{Keyword: "string"}, name.Type)

	length := keyParams.Members[1].(*Property)
	assert.True(t, length.Optional)
	assert.False(t, length.Readonly)

	usages := keyParams.Members[2].(*Property)
	assert.Equal(t, &ArrayType{Element: &ArrayType{Element: &Primitive{Keyword: "string"}}}, usages.Type)

	next := keyParams.Members[3].(*Property)
	assert.Equal(t, &UnionType{Arms: []TypeNode{
		&ReferenceType{Name: "KeyParams", Arguments: nil},
		&Primitive{Keyword: "null"},
	}}, next.Type)

	derive := keyParams.Members[4].(*Method)
	assert.Equal(t, "derive", derive.Name)
	assert.Equal(t, &ReferenceType{Name: "CryptoKey"}, derive.Returns)
	require.Len(t, derive.Parameters, 2)
	assert.Equal(t, "extractable", derive.Parameters[1].Name)
	assert.True(t, derive.Parameters[1].Optional)

	index := keyParams.Members[5].(*Property)
	assert.Empty(t, index.Name)
}

func TestTypeScriptReaderAliases(t *testing.T) {
	forest, _ := readSource(t, cryptoDeclarations)

	derived, ok := forest.Nodes[2].(*Alias)
	require.True(t, ok)
	assert.Equal(t, "Derived", derived.Name)
	require.Len(t, derived.Bases, 1)
	assert.Equal(t, "Algorithm", derived.Bases[0].Name)
	require.Len(t, derived.Members, 1)
	assert.Equal(t, "extra", derived.Members[0].(*Property).Name)
}

func TestTypeScriptReaderExportsAndLiterals(t *testing.T) {
	forest, _ := readSource(t, `
export interface Options {
    mode: "fast" | "slow";
    retries: 1 | 2;
    handler: () => void;
    cache: Map<string, number>;
}
`)
	require.Len(t, forest.Nodes, 1)
	options := forest.Nodes[0].(*Interface)
	require.Len(t, options.Members, 4)

	mode := options.Members[0].(*Property).Type.(*UnionType)
	assert.Equal(t, []TypeNode{&Primitive{Keyword: "string"}, &Primitive{Keyword: "string"}}, mode.Arms)

	retries := options.Members[1].(*Property).Type.(*UnionType)
	assert.Equal(t, []TypeNode{&Primitive{Keyword: "number"}, &Primitive{Keyword: "number"}}, retries.Arms)

	_, opaque := options.Members[2].(*Property).Type.(*OpaqueType)
	assert.True(t, opaque)

	cache := options.Members[3].(*Property).Type.(*ReferenceType)
	assert.Equal(t, "Map", cache.Name)
	assert.Len(t, cache.Arguments, 2)
}

func TestTypeScriptReaderCountsSyntaxErrors(t *testing.T) {
	forest, stats := readSource(t, `
interface Good { a: string; }
interface Broken { b: ; }
`)
	assert.Positive(t, stats.SyntaxErrors)
	require.NotEmpty(t, forest.Nodes)
	assert.Equal(t, "Good", forest.Nodes[0].(*Interface).Name)
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lib.d.ts")
	require.NoError(t, os.WriteFile(path, []byte("interface A { b: B }\ninterface B {}\n"), 0644))

	forest, _, err := ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, forest.Nodes, 2)

	_, _, err = ReadFile(filepath.Join(dir, "lib.ts"))
	assert.True(t, errors.Is(err, ErrUnsupportedInput))
	assert.NotEmpty(t, errors.GetAllHints(err))

	_, _, err = ReadFile(filepath.Join(dir, "missing.d.ts"))
	assert.Error(t, err)
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"declgen/internal/config"
	"declgen/internal/emission"
	"declgen/internal/metadata"
	"declgen/internal/observability"
	"declgen/internal/resolution"
)

const declarations = `
declare namespace Crypto {
    interface KeyParams extends Algorithm {
        readonly name: string;
        usages: string[][];
        next?: KeyParams;
    }
}

interface Algorithm {
    name: string;
}

interface Unreachable {
    x: number;
}
`

func writeInput(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lib.d.ts")
	require.NoError(t, os.WriteFile(path, []byte(declarations), 0644))
	return path
}

func testConfig(t *testing.T, input string) *config.Config {
	cfg := config.Default()
	cfg.Input.Files = []string{input}
	cfg.Generate.Roots = []string{"Crypto.*"}
	cfg.Output.Dir = filepath.Join(t.TempDir(), "gen")
	cfg.Metrics.File = filepath.Join(t.TempDir(), "declgen.prom")
	return cfg
}

func TestRunGenerationAndCompare(t *testing.T) {
	cfg := testConfig(t, writeInput(t))
	log := zap.NewNop().Sugar()

	store, err := emission.NewDirStore(cfg.Output.Dir)
	require.NoError(t, err)
	reports, err := runGeneration(context.Background(), cfg, store, log, observability.NewMetrics())
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.ElementsMatch(t, []string{"Crypto.KeyParams", "Algorithm"}, reports[0].Emitted)

	assert.FileExists(t, filepath.Join(cfg.Output.Dir, "KeyParams.cs"))
	assert.FileExists(t, filepath.Join(cfg.Output.Dir, "Algorithm.cs"))
	assert.NoFileExists(t, filepath.Join(cfg.Output.Dir, "Unreachable.cs"))
	assert.FileExists(t, cfg.Metrics.File)

	memory := emission.NewMemoryStore()
	_, err = runGeneration(context.Background(), cfg, memory, log, nil)
	require.NoError(t, err)

	stale, err := compareWithDirectory(memory, cfg.Output.Dir)
	require.NoError(t, err)
	assert.Empty(t, stale)

	require.NoError(t, os.WriteFile(filepath.Join(cfg.Output.Dir, "Algorithm.cs"), []byte("edited"), 0644))
	require.NoError(t, os.Remove(filepath.Join(cfg.Output.Dir, "KeyParams.cs")))
	stale, err = compareWithDirectory(memory, cfg.Output.Dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"Algorithm.cs", "KeyParams.cs"}, stale)
}

func TestRunGenerationRequiresRoots(t *testing.T) {
	cfg := testConfig(t, writeInput(t))
	cfg.Generate.Roots = nil

	_, err := runGeneration(context.Background(), cfg, emission.NewMemoryStore(), zap.NewNop().Sugar(), nil)
	assert.ErrorContains(t, err, "no root declarations")
}

func TestGoStructGeneration(t *testing.T) {
	cfg := testConfig(t, writeInput(t))
	cfg.Output.Template = emission.GoStructTemplate
	cfg.Output.Target = emission.TargetGo
	cfg.Output.Extension = ".go"
	cfg.Output.Naming = emission.NamingQualified

	store := emission.NewMemoryStore()
	_, err := runGeneration(context.Background(), cfg, store, zap.NewNop().Sugar(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Algorithm.go", "Crypto.KeyParams.go"}, store.Names())

	content, _ := store.Get("Crypto.KeyParams.go")
	assert.Contains(t, string(content), "type CryptoKeyParams struct")
	assert.Regexp(t, `Next\s+\*CryptoKeyParams`, string(content))
}

func TestGenerateFlagsPairTemplateAndTarget(t *testing.T) {
	tests := []struct {
		name             string
		args             []string
		template, target string
		valid            bool
	}{
		{"target go picks go-struct", []string{"--target", "go"}, emission.GoStructTemplate, emission.TargetGo, true},
		{"go-struct picks target go", []string{"--template", "go-struct"}, emission.GoStructTemplate, emission.TargetGo, true},
		{"csharp template with go", []string{"--template", "plain", "--target", "go"}, "plain", emission.TargetGo, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := &cobra.Command{Use: "generate"}
			addGenerateFlags(cmd)
			require.NoError(t, cmd.Flags().Parse(tt.args))

			cfg := config.Default()
			applyGenerateFlags(cmd, nil)(cfg)

			assert.Equal(t, tt.template, cfg.Output.Template)
			assert.Equal(t, tt.target, cfg.Output.Target)
			assert.Equal(t, ".go", cfg.Output.Extension)
			if tt.valid {
				assert.NoError(t, cfg.Validate())
			} else {
				assert.Error(t, cfg.Validate())
			}
		})
	}
}

func TestDeclarationTree(t *testing.T) {
	forest, _, err := metadata.ReadFile(writeInput(t))
	require.NoError(t, err)

	index := resolution.Build(forest)
	resolver := resolution.NewResolver(index, resolution.WithKeepUnresolved(true))
	tree := map[string]any{"root": declarationTree(forest.Nodes, "", resolver, zap.NewNop().Sugar())}

	var out bytes.Buffer
	require.NoError(t, writeTree(&out, "json", tree))

	var decoded map[string]map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))

	crypto := decoded["root"]["Crypto"].(map[string]any)
	keyParams := crypto["KeyParams"].(map[string]any)
	assert.Equal(t, "string", keyParams["name"])
	assert.Equal(t, "Array<Array<string>>", keyParams["usages"])
	assert.Equal(t, "Crypto.KeyParams?", keyParams["next"])

	out.Reset()
	require.NoError(t, writeTree(&out, "yaml", tree))
	assert.Contains(t, out.String(), "usages: Array<Array<string>>")

	assert.Error(t, writeTree(&out, "xml", tree))
}

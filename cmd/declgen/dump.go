package main

import (
	"encoding/json"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"declgen/internal/metadata"
	"declgen/internal/resolution"
)

var dumpFormat string

var dumpCmd = &cobra.Command{
	Use:   "dump <file>",
	Short: "Print the namespace, declaration and member tree of an input file",
	Long: `Print every module, declaration and member of an input file as a nested
tree. Member values are the resolved type descriptors, e.g. Array<string>.`,
	Args: cobra.ExactArgs(1),
	RunE: runDump,
}

func init() {
	dumpCmd.Flags().StringVarP(&dumpFormat, "format", "f", "json", "Output format: json or yaml")
}

func runDump(cmd *cobra.Command, args []string) error {
	_, log, err := prepare(cmd, nil)
	if err != nil {
		return err
	}
	defer log.Sync()

	forest, stats, err := metadata.ReadFile(args[0])
	if err != nil {
		return err
	}
	if stats.SyntaxErrors > 0 {
		log.Warnw("Input has syntax errors, reading best-effort", "file", args[0], "errors", stats.SyntaxErrors)
	}
	if len(stats.Skipped) > 0 {
		log.Warnw("Skipped declarations that could not be decoded", "file", args[0], "count", len(stats.Skipped), "first", stats.Skipped[0])
	}

	index := resolution.Build(forest)
	resolver := resolution.NewResolver(index, resolution.WithKeepUnresolved(true), resolution.WithLogger(log))
	tree := map[string]any{"root": declarationTree(forest.Nodes, "", resolver, log)}

	return writeTree(cmd.OutOrStdout(), dumpFormat, tree)
}

func writeTree(out io.Writer, format string, tree map[string]any) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(tree)
	case "yaml":
		encoder := yaml.NewEncoder(out)
		encoder.SetIndent(2)
		defer encoder.Close()
		return encoder.Encode(tree)
	}
	return errors.WithHint(errors.Newf("unknown format %q", format), "use json or yaml")
}

// declarationTree nests modules and declarations by name. Modules declared
// more than once are merged.
func declarationTree(nodes []metadata.Node, namespace string, resolver *resolution.Resolver, log *zap.SugaredLogger) map[string]any {
	tree := make(map[string]any)
	for _, node := range nodes {
		switch n := node.(type) {
		case *metadata.Module:
			child := declarationTree(n.Body, joinName(namespace, n.Name), resolver, log)
			if existing, ok := tree[n.Name].(map[string]any); ok {
				for key, value := range child {
					existing[key] = value
				}
				continue
			}
			tree[n.Name] = child

		case metadata.Declaration:
			members := make(map[string]any)
			for _, memberNode := range n.MemberNodes() {
				member, ok, err := resolver.ResolveMember(memberNode, namespace, nil)
				if err != nil {
					log.Warnw("Could not resolve member", "declaration", n.LocalName(), "error", err)
					continue
				}
				if ok {
					members[member.Name] = member.Type.String()
				}
			}
			tree[n.LocalName()] = members
		}
	}
	return tree
}

func joinName(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + "." + name
}

package main

import (
	"os"

	"github.com/spf13/cobra"

	"declgen/internal/config"
	"declgen/internal/emission"
	"declgen/internal/observability"
)

var (
	generateRoots          []string
	generateOutput         string
	generateTemplate       string
	generateTarget         string
	generateClean          bool
	generateForceClean     bool
	generateKeepUnresolved bool
	generateParallel       int
	generateMetricsFile    string
)

var generateCmd = &cobra.Command{
	Use:   "generate [files...]",
	Short: "Generate stubs for the root declarations and everything they reach",
	Long: `Generate one artifact per declaration reachable from the given roots.

Roots are qualified names or glob patterns with '.' as separator:
  --root AesDerivedKeyParams     # one declaration
  --root 'Crypto.*'              # every declaration directly in Crypto
  --root 'Crypto.**'             # everything below Crypto

Templates: plain (get/set properties), interop (members routed through a
runtime bridge) and go-struct (Go structs).`,
	RunE: runGenerate,
}

func init() {
	addGenerateFlags(generateCmd)
}

// addGenerateFlags registers the generation flags on cmd. generate, check
// and watch share them.
func addGenerateFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringSliceVarP(&generateRoots, "root", "r", nil, "Root declaration or pattern (repeatable)")
	flags.StringVarP(&generateOutput, "output", "o", "", "Output directory")
	flags.StringVarP(&generateTemplate, "template", "t", "", "Template: plain, interop or go-struct")
	flags.StringVar(&generateTarget, "target", "", "Type mapping target: csharp or go")
	flags.BoolVar(&generateClean, "clean", false, "Remove the output directory before generating")
	flags.BoolVar(&generateForceClean, "force-clean", false, "Remove the output directory without asking")
	flags.BoolVar(&generateKeepUnresolved, "keep-unresolved", false, "Keep references to undeclared types instead of mapping them to object")
	flags.IntVar(&generateParallel, "parallel", 0, "Number of roots generated concurrently")
	flags.StringVar(&generateMetricsFile, "metrics-file", "", "Write prometheus metrics to this textfile")
}

func applyGenerateFlags(cmd *cobra.Command, args []string) func(*config.Config) {
	return func(cfg *config.Config) {
		flags := cmd.Flags()
		if len(args) > 0 {
			cfg.Input.Files = args
		}
		if flags.Changed("root") {
			cfg.Generate.Roots = generateRoots
		}
		if flags.Changed("output") {
			cfg.Output.Dir = generateOutput
		}
		if flags.Changed("template") {
			cfg.Output.Template = generateTemplate
			if generateTemplate == emission.GoStructTemplate && !flags.Changed("target") {
				cfg.Output.Target = emission.TargetGo
			}
		}
		if flags.Changed("target") {
			cfg.Output.Target = generateTarget
			if generateTarget == emission.TargetGo && !flags.Changed("template") {
				cfg.Output.Template = emission.GoStructTemplate
			}
		}
		if flags.Changed("template") || flags.Changed("target") {
			cfg.Output.Extension = emission.ExtensionFor(cfg.Output.Target)
		}
		if flags.Changed("clean") || flags.Changed("force-clean") {
			cfg.Output.Clean = generateClean || generateForceClean
		}
		if flags.Changed("keep-unresolved") {
			cfg.Generate.KeepUnresolved = generateKeepUnresolved
		}
		if flags.Changed("parallel") {
			cfg.Generate.Parallelism = generateParallel
		}
		if flags.Changed("metrics-file") {
			cfg.Metrics.File = generateMetricsFile
		}
	}
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, log, err := prepare(cmd, applyGenerateFlags(cmd, args))
	if err != nil {
		return err
	}
	defer log.Sync()

	if cfg.Output.Clean {
		if err := ClearDirectoryIfNotEmpty(cfg.Output.Dir, generateForceClean, os.Stdin, cmd.OutOrStdout()); err != nil {
			return err
		}
	}

	store, err := emission.NewDirStore(cfg.Output.Dir)
	if err != nil {
		return err
	}

	reports, err := runGeneration(cmd.Context(), cfg, store, log, observability.NewMetrics())
	summarize(reports, log)
	return err
}

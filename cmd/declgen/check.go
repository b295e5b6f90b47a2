package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"declgen/internal/emission"
)

var checkCmd = &cobra.Command{
	Use:   "check [files...]",
	Short: "Verify that the output directory is up to date",
	Long: `Generate into memory and compare every artifact with the file of the
same name in the output directory. Exits with an error listing the artifacts
that are missing or differ.`,
	RunE: runCheck,
}

func init() {
	addGenerateFlags(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, log, err := prepare(cmd, applyGenerateFlags(cmd, args))
	if err != nil {
		return err
	}
	defer log.Sync()

	store := emission.NewMemoryStore()
	reports, err := runGeneration(cmd.Context(), cfg, store, log, nil)
	summarize(reports, log)
	if err != nil {
		return err
	}

	stale, err := compareWithDirectory(store, cfg.Output.Dir)
	if err != nil {
		return err
	}
	if len(stale) > 0 {
		return errors.WithHint(
			errors.Newf("%d artifacts are out of date: %s", len(stale), strings.Join(stale, ", ")),
			"run declgen generate to refresh them")
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d artifacts up to date\n", len(store.Names()))
	return nil
}

// compareWithDirectory lists the artifacts of store that are missing from
// dir or whose content differs.
func compareWithDirectory(store *emission.MemoryStore, dir string) ([]string, error) {
	stale := make([]string, 0)
	for _, name := range store.Names() {
		expected, _ := store.Get(name)
		actual, err := os.ReadFile(filepath.Join(dir, name))
		if errors.Is(err, os.ErrNotExist) {
			stale = append(stale, name)
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "could not read %s", name)
		}
		if !bytes.Equal(expected, actual) {
			stale = append(stale, name)
		}
	}
	return stale, nil
}

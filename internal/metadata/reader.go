package metadata

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrUnsupportedInput is returned for files that are neither TypeScript
// declaration files nor WinMD metadata.
var ErrUnsupportedInput = errors.New("unsupported input file")

// ReadFile reads a *.d.ts or *.winmd file into a forest.
func ReadFile(path string) (*Forest, ReadStats, error) {
	switch {
	case strings.HasSuffix(path, ".d.ts"):
		source, err := os.ReadFile(path)
		if err != nil {
			return nil, ReadStats{}, errors.Wrapf(err, "could not read %s", path)
		}
		return NewTypeScriptReader().Read(path, source)
	case strings.EqualFold(filepath.Ext(path), ".winmd"):
		reader, err := NewWinMdReader(path)
		if err != nil {
			return nil, ReadStats{}, err
		}
		return reader.Read(path)
	}

	return nil, ReadStats{}, errors.WithHint(
		errors.Wrapf(ErrUnsupportedInput, "%s", path),
		"file name should have *.d.ts or *.winmd extension instead of "+filepath.Ext(path))
}

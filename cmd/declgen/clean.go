package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
)

var errNoAgreement = errors.New("explicit agreement was not given")

// ClearDirectoryIfNotEmpty removes path when it holds any entry. Unless
// silent, the user has to confirm on in first.
func ClearDirectoryIfNotEmpty(path string, silent bool, in io.Reader, out io.Writer) error {
	directory, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "could not open %s", path)
	}

	_, err = directory.Readdirnames(1)
	directory.Close()
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "could not list %s", path)
	}

	if !silent {
		var response string
		fmt.Fprint(out, "Output directory is not empty. Continuation will result in removing all output files. Proceed? [Y/n] ")
		fmt.Fscan(in, &response)
		if strings.ToUpper(response) != "Y" {
			return errors.WithHint(errNoAgreement, "use --force-clean to skip the question")
		}
	}

	fmt.Fprintln(out, "Cleaning output directory.")
	if err := os.RemoveAll(path); err != nil {
		return errors.Wrapf(err, "could not clean %s", path)
	}
	return nil
}

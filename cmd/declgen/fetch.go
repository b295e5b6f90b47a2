package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"declgen/internal/metadata"
)

var fetchTimeout time.Duration

var fetchWinMdCmd = &cobra.Command{
	Use:   "fetch-winmd [destination]",
	Short: "Download the newest Win32 metadata (.winmd) from nuget",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runFetchWinMd,
}

func init() {
	fetchWinMdCmd.Flags().DurationVar(&fetchTimeout, "timeout", 5*time.Minute, "Download timeout")
}

func runFetchWinMd(cmd *cobra.Command, args []string) error {
	_, log, err := prepare(cmd, nil)
	if err != nil {
		return err
	}
	defer log.Sync()

	destination := "Windows.Win32.winmd"
	if len(args) == 1 {
		destination = args[0]
	}

	client := &http.Client{Timeout: fetchTimeout}
	log.Infow("Downloading metadata", "destination", destination)
	version, err := metadata.DownloadMetadata(cmd.Context(), client, destination)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Downloaded metadata %s to %s\n", version, destination)
	return nil
}

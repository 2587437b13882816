package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tekacs/scriptr/internal/cache"
	"github.com/tekacs/scriptr/internal/config"
	"github.com/tekacs/scriptr/internal/history"
	"github.com/tekacs/scriptr/internal/log"
)

var statsCmd = &cobra.Command{
	Use:          "stats",
	Short:        "Show cache and run statistics",
	RunE:         runStats,
	SilenceUsage: true,
	Args:         cobra.NoArgs,
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := config.NewLoader().LoadForScript(cmd, "")
	if err != nil {
		return err
	}

	log.Init(cfg.Verbose)

	store, err := cache.New(cfg.CacheDir)
	if err != nil {
		return err
	}

	count, size, err := store.Stats()
	if err != nil {
		return err
	}

	fmt.Printf("Cache directory: %s\n", store.Dir())
	fmt.Printf("Entries:         %d\n", count)
	fmt.Printf("Size:            %d bytes\n", size)

	hist, err := history.Open(cfg.CacheDir)
	if err != nil {
		return err
	}
	defer hist.Close()

	summary, err := hist.Summary()
	if err != nil {
		return err
	}

	fmt.Printf("Builds recorded: %d\n", summary.Builds)
	fmt.Printf("Failed builds:   %d\n", summary.Failures)

	if !summary.LastBuild.IsZero() {
		fmt.Printf("Last build:      %s\n", summary.LastBuild.Format(time.RFC3339))
	}

	return nil
}

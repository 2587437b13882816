package cmd

import (
	"github.com/spf13/cobra"

	"github.com/tekacs/scriptr/internal/config"
	"github.com/tekacs/scriptr/internal/launcher"
	"github.com/tekacs/scriptr/internal/log"
)

var cleanCmd = &cobra.Command{
	Use:          "clean <script.rs>",
	Short:        "Remove the cache entry for a script",
	Long:         `Invalidates the cached build for the given script without building or running anything. Succeeds even when no entry exists.`,
	RunE:         runClean,
	SilenceUsage: true,
	Args:         cobra.ExactArgs(1),
}

func init() {
	cleanCmd.Flags().BoolP("verbose", "v", false, "Verbose output")
}

func runClean(cmd *cobra.Command, args []string) error {
	script := args[0]

	cfg, err := config.NewLoader().LoadForScript(cmd, script)
	if err != nil {
		return err
	}

	log.Init(cfg.Verbose)

	engine, err := newEngine(cfg)
	if err != nil {
		return err
	}

	return engine.Run(script, nil, launcher.Options{CleanOnly: true})
}

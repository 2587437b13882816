package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tekacs/scriptr/internal/cache"
	"github.com/tekacs/scriptr/internal/cargo"
	"github.com/tekacs/scriptr/internal/config"
	"github.com/tekacs/scriptr/internal/launcher"
	"github.com/tekacs/scriptr/internal/log"
	"github.com/tekacs/scriptr/internal/version"
)

var rootCmd = &cobra.Command{
	Use:          "scriptr <script.rs> [-- args...]",
	Short:        "Fast launcher for Rust single-file packages",
	Long:         `Runs a Rust script through cargo -Zscript, caching the built binary so unchanged scripts launch without invoking the toolchain.`,
	RunE:         runScript,
	SilenceUsage: true,
	Args:         cobra.MinimumNArgs(1),
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s (%s) %s", version.Version, version.Commit, version.BuildTime)

	rootCmd.Flags().BoolP("debug", "d", false, "Build in debug mode (default is release)")
	rootCmd.Flags().BoolP("verbose", "v", false, "Verbose output")
	rootCmd.Flags().BoolP("force", "f", false, "Force rebuild (ignore cache)")
	rootCmd.Flags().BoolP("clean", "c", false, "Clean cache entry before building")
	rootCmd.Flags().BoolP("clean-only", "C", false, "Clean cache entry and exit (don't run)")
	rootCmd.Flags().Bool("hash-only", false, "Skip the mtime fast path and always compare content hashes")

	// Everything after the script path belongs to the script
	rootCmd.Flags().SetInterspersed(false)

	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(statsCmd)
}

func runScript(cmd *cobra.Command, args []string) error {
	script, passthrough := splitScriptArgs(args)

	cfg, err := config.NewLoader().LoadForScript(cmd, script)
	if err != nil {
		return err
	}

	log.Init(cfg.Verbose)

	engine, err := newEngine(cfg)
	if err != nil {
		return err
	}

	opts := launcher.Options{
		Debug:     mustFlag(cmd, "debug"),
		Verbose:   cfg.Verbose,
		Force:     mustFlag(cmd, "force"),
		Clean:     mustFlag(cmd, "clean"),
		CleanOnly: mustFlag(cmd, "clean-only"),
		HashOnly:  cfg.HashOnly,
	}

	return engine.Run(script, passthrough, opts)
}

func newEngine(cfg *config.Config) (*launcher.Engine, error) {
	store, err := cache.New(cfg.CacheDir)
	if err != nil {
		return nil, err
	}

	builder := cargo.NewBuilder(cfg.CargoPath, cfg.Toolchain)

	return launcher.New(store, builder, cfg.CacheDir), nil
}

// splitScriptArgs separates the script path from the arguments forwarded to
// it. With interspersed parsing off, pflag leaves a "--" separator in the
// positional args; the separator belongs to scriptr, not to the script.
func splitScriptArgs(args []string) (script string, passthrough []string) {
	script = args[0]
	passthrough = args[1:]

	if len(passthrough) > 0 && passthrough[0] == "--" {
		passthrough = passthrough[1:]
	}

	return script, passthrough
}

func mustFlag(cmd *cobra.Command, name string) bool {
	v, _ := cmd.Flags().GetBool(name)
	return v
}

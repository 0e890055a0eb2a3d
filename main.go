/*
Anima2D testbed: opens a window and draws a rectangle and a couple of textures with the
engine's Vulkan renderer.
*/
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/anima2d/engine"
	"github.com/spaghettifunk/anima2d/engine/config"
	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/testbed"
	"github.com/spf13/cobra"
)

var (
	cfgFile   string
	maxFrames uint64
	logLevel  string
)

var rootCmd = &cobra.Command{
	Use:   "anima2d",
	Short: "Run the Anima2D testbed",
	Long: `Opens a window and renders the Anima2D testbed until the window is closed.

WASD moves the rectangle, 0-3 change its colour and Escape quits.`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVar(&cfgFile, "config", "anima2d.toml", "config file")
	rootCmd.Flags().Uint64Var(&maxFrames, "frames", 0, "stop after this many frames (0 runs until the window closes)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "override the configured log level")
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if err := core.SetLogLevel(cfg.Log.Level); err != nil {
		return err
	}

	appConfig := engine.NewApplicationConfig(cfg)
	appConfig.MaxFrames = maxFrames
	tb := testbed.NewTestGame(appConfig)

	e, err := engine.New(tb.Game)
	if err != nil {
		return err
	}

	// capture sigterm and other system calls; the loop notices and returns
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer stop()

	if err := e.Initialize(); err != nil {
		_ = e.Shutdown()
		return err
	}
	runErr := e.Run(ctx)
	if err := e.Shutdown(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

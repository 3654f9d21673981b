package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/gridnav/navmesh"
	"github.com/milk9111/gridnav/scene"
	"github.com/milk9111/gridnav/sim"
	"github.com/spf13/cobra"
	"golang.design/x/clipboard"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "navview <scene>",
		Short:        "Watch a navigation scene run in a window",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE:         runView,
	}
	cmd.Flags().String("strategy", "", "Override the scene strategy: grid|raycast")
	cmd.Flags().Bool("debug", false, "Log at debug level")
	return cmd
}

func runView(cmd *cobra.Command, args []string) error {
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	sc, err := scene.Open(args[0])
	if err != nil {
		return err
	}
	var opts []sim.Option
	if raw, _ := cmd.Flags().GetString("strategy"); raw != "" {
		st, err := navmesh.ParseStrategy(raw)
		if err != nil {
			return err
		}
		opts = append(opts, sim.WithStrategy(st))
	}
	s, err := sim.New(sc, opts...)
	if err != nil {
		return err
	}
	defer s.Close()

	copyText := func(data []byte) {}
	if err := clipboard.Init(); err != nil {
		slog.Warn("clipboard unavailable", slog.Any("err", err))
	} else {
		copyText = func(data []byte) { clipboard.Write(clipboard.FmtText, data) }
	}

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle(fmt.Sprintf("navview - %s", sc.Name))

	if err := ebiten.RunGame(newViewer(s, copyText)); err != nil {
		return fmt.Errorf("navview: %w", err)
	}
	return nil
}

package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

func newRootCommand(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "navmesh",
		Short: "Generate, search and simulate grid navigation meshes",
		Long: `navmesh builds a navigation graph from a yaml scene, searches routes
over it and steps the scene's agents along them.

A scene argument is a path to a yaml file, or the name of a scene
compiled into the binary (see "navmesh scenes").`,
		SilenceUsage:      true,
		PersistentPreRunE: setupLogging,
	}
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level: debug|info|warn|error")

	generateCmd := &cobra.Command{
		Use:   "generate <scene>",
		Short: "Generate the mesh and print its statistics",
		Args:  cobra.ExactArgs(1),
		RunE:  runGenerate,
	}
	generateCmd.Flags().String("strategy", "", "Override the scene strategy: grid|raycast")
	generateCmd.Flags().Bool("json", false, "Print machine-readable statistics")

	pathCmd := &cobra.Command{
		Use:   "path <scene>",
		Short: "Search a route between the nodes closest to two points",
		Args:  cobra.ExactArgs(1),
		RunE:  runPath,
	}
	pathCmd.Flags().String("from", "", "Start point as x,y,z")
	pathCmd.Flags().String("to", "", "End point as x,y,z")
	pathCmd.Flags().String("strategy", "", "Override the scene strategy: grid|raycast")
	pathCmd.Flags().String("state", "", "Write the found path's state to this yaml file")
	pathCmd.Flags().Bool("json", false, "Print the route as json")
	_ = pathCmd.MarkFlagRequired("from")
	_ = pathCmd.MarkFlagRequired("to")

	simulateCmd := &cobra.Command{
		Use:   "simulate <scene>",
		Short: "Step the scene's agents and print what happens",
		Args:  cobra.ExactArgs(1),
		RunE:  runSimulate,
	}
	simulateCmd.Flags().Int("ticks", 600, "Number of steps to run")
	simulateCmd.Flags().Float32("dt", 1.0/60, "Seconds per step")
	simulateCmd.Flags().String("metrics-addr", "", "Serve prometheus metrics on this address")
	simulateCmd.Flags().Bool("hold", false, "Keep serving metrics after the last step until interrupted")
	simulateCmd.Flags().Bool("json", false, "Print the final agent states as json")

	watchCmd := &cobra.Command{
		Use:   "watch <scene>",
		Short: "Reload and regenerate the scene whenever it or its script changes",
		Args:  cobra.ExactArgs(1),
		RunE:  runWatch,
	}
	watchCmd.Flags().Duration("debounce", 0, "Quiet period before a change is applied (default 100ms)")

	schemaCmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the json schema of scene files",
		Args:  cobra.NoArgs,
		RunE:  runSchema,
	}
	schemaCmd.Flags().String("out", "", "Write the schema to this file instead of stdout")

	scenesCmd := &cobra.Command{
		Use:   "scenes",
		Short: "List the scenes compiled into the binary",
		Args:  cobra.NoArgs,
		RunE:  runScenes,
	}

	showCmd := &cobra.Command{
		Use:   "show <scene>",
		Short: "Run the scene with a live top-down view in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  runShow,
	}
	showCmd.Flags().Float32("speed", 1, "Simulation speed multiplier")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "navmesh %s\n", version)
		},
	}

	rootCmd.AddCommand(
		generateCmd,
		pathCmd,
		simulateCmd,
		watchCmd,
		schemaCmd,
		scenesCmd,
		showCmd,
		versionCmd,
	)

	return rootCmd
}

func setupLogging(cmd *cobra.Command, args []string) error {
	raw, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return fmt.Errorf("failed to read --log-level flag: %w", err)
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return fmt.Errorf("invalid --log-level %q: %w", raw, err)
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
	return nil
}

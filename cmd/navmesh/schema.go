package main

import (
	"fmt"
	"os"

	"github.com/milk9111/gridnav/scene"
	"github.com/spf13/cobra"
)

func runSchema(cmd *cobra.Command, args []string) error {
	out, err := cmd.Flags().GetString("out")
	if err != nil {
		return fmt.Errorf("failed to read --out flag: %w", err)
	}
	data, err := scene.SchemaJSON()
	if err != nil {
		return err
	}
	if out == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("failed to write schema: %w", err)
	}
	return nil
}

func runScenes(cmd *cobra.Command, args []string) error {
	for _, name := range scene.Embedded() {
		fmt.Fprintln(cmd.OutOrStdout(), name)
	}
	return nil
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

type generateSummary struct {
	Scene      string `json:"scene"`
	Strategy   string `json:"strategy"`
	Nodes      int    `json:"nodes"`
	Accessible int    `json:"accessible"`
	Edges      int    `json:"edges"`
	Links      int    `json:"links"`
	Linked     int    `json:"linked"`
	Agents     int    `json:"agents"`
}

func runGenerate(cmd *cobra.Command, args []string) error {
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return fmt.Errorf("failed to read --json flag: %w", err)
	}

	s, err := openSim(cmd, args[0])
	if err != nil {
		return err
	}
	defer s.Close()

	graph := s.Graph()
	summary := generateSummary{
		Scene:      s.Scene().Name,
		Strategy:   s.Strategy().String(),
		Nodes:      graph.Len(),
		Accessible: graph.Accessible(),
		Edges:      graph.Edges(),
		Agents:     len(s.Agents()),
	}
	for _, l := range s.Linkers() {
		summary.Links++
		if l.Linked() {
			summary.Linked++
		}
	}

	out := cmd.OutOrStdout()
	if asJSON {
		return writeJSON(out, summary)
	}
	fmt.Fprintf(out, "scene %s (%s)\n", summary.Scene, summary.Strategy)
	fmt.Fprintf(out, "  nodes:      %d\n", summary.Nodes)
	fmt.Fprintf(out, "  accessible: %d\n", summary.Accessible)
	fmt.Fprintf(out, "  edges:      %d\n", summary.Edges)
	fmt.Fprintf(out, "  links:      %d/%d\n", summary.Linked, summary.Links)
	fmt.Fprintf(out, "  agents:     %d\n", summary.Agents)
	return nil
}

package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/milk9111/gridnav/common"
	"github.com/milk9111/gridnav/navmesh"
	"github.com/milk9111/gridnav/pathfind"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var errNoPath = errors.New("no path")

type pathNode struct {
	Ref      navmesh.NodeRef `json:"ref"`
	Location common.Vec3     `json:"location"`
}

type pathResult struct {
	Scene    string     `json:"scene"`
	From     pathNode   `json:"from"`
	To       pathNode   `json:"to"`
	Found    bool       `json:"found"`
	Expanded int        `json:"expanded"`
	Duration string     `json:"duration"`
	Nodes    []pathNode `json:"nodes,omitempty"`
}

func runPath(cmd *cobra.Command, args []string) error {
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return fmt.Errorf("failed to read --json flag: %w", err)
	}
	statePath, err := cmd.Flags().GetString("state")
	if err != nil {
		return fmt.Errorf("failed to read --state flag: %w", err)
	}
	fromRaw, _ := cmd.Flags().GetString("from")
	toRaw, _ := cmd.Flags().GetString("to")
	from, err := parseVec3(fromRaw)
	if err != nil {
		return err
	}
	to, err := parseVec3(toRaw)
	if err != nil {
		return err
	}

	s, err := openSim(cmd, args[0])
	if err != nil {
		return err
	}
	defer s.Close()

	graph := s.Graph()
	start := graph.ClosestNode(from)
	end := graph.ClosestNode(to)
	if start.IsNull() || end.IsNull() {
		return fmt.Errorf("%w: no accessible node near %s or %s", errNoPath, formatVec3(from), formatVec3(to))
	}

	search := pathfind.NewAStar(graph)
	var stats pathfind.Stats
	search.OnSearched.Add(func(st pathfind.Stats) { stats = st })
	p, ok := search.ComputePath(start, end)

	result := pathResult{
		Scene:    s.Scene().Name,
		From:     pathNode{Ref: start, Location: graph.Node(start).Location()},
		To:       pathNode{Ref: end, Location: graph.Node(end).Location()},
		Found:    ok,
		Expanded: stats.Expanded,
		Duration: stats.Duration.Round(time.Microsecond).String(),
	}
	if ok {
		for _, ref := range p.Nodes() {
			result.Nodes = append(result.Nodes, pathNode{Ref: ref, Location: graph.Node(ref).Location()})
		}
		if statePath != "" {
			data, err := yaml.Marshal(p.State())
			if err != nil {
				return fmt.Errorf("failed to encode path state: %w", err)
			}
			if err := os.WriteFile(statePath, data, 0o644); err != nil {
				return fmt.Errorf("failed to write path state: %w", err)
			}
		}
	}

	out := cmd.OutOrStdout()
	if asJSON {
		if err := writeJSON(out, result); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(out, "%s -> %s: ", result.From.Ref, result.To.Ref)
		if ok {
			fmt.Fprintf(out, "%d nodes, %d expanded\n", len(result.Nodes), result.Expanded)
			for i, n := range result.Nodes {
				fmt.Fprintf(out, "  %2d %s %s\n", i, n.Ref, formatVec3(n.Location))
			}
		} else {
			fmt.Fprintf(out, "no path, %d expanded\n", result.Expanded)
		}
	}
	if !ok {
		return errNoPath
	}
	return nil
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/milk9111/gridnav/common"
	"github.com/milk9111/gridnav/navmesh"
	"github.com/milk9111/gridnav/scene"
	"github.com/milk9111/gridnav/sim"
	"github.com/spf13/cobra"
)

// openSim loads the scene named by the command's argument and builds a
// simulation from it, honouring a --strategy flag when the command has one.
func openSim(cmd *cobra.Command, name string, opts ...sim.Option) (*sim.Sim, error) {
	sc, err := scene.Open(name)
	if err != nil {
		return nil, err
	}
	if f := cmd.Flags().Lookup("strategy"); f != nil && f.Value.String() != "" {
		st, err := navmesh.ParseStrategy(f.Value.String())
		if err != nil {
			return nil, err
		}
		opts = append(opts, sim.WithStrategy(st))
	}
	return sim.New(sc, opts...)
}

// parseVec3 reads "x,y,z". Missing trailing components are zero.
func parseVec3(s string) (common.Vec3, error) {
	var v common.Vec3
	parts := strings.Split(s, ",")
	if strings.TrimSpace(s) == "" || len(parts) > 3 {
		return v, fmt.Errorf("invalid point %q: want x,y,z", s)
	}
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return v, fmt.Errorf("invalid point %q: %w", s, err)
		}
		v[i] = float32(f)
	}
	return v, nil
}

func formatVec3(v common.Vec3) string {
	return fmt.Sprintf("(%.1f, %.1f, %.1f)", v[0], v[1], v[2])
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

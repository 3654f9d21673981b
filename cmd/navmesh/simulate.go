package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/milk9111/gridnav/common"
	"github.com/milk9111/gridnav/metrics"
	"github.com/milk9111/gridnav/sim"
	"github.com/spf13/cobra"
)

type agentSummary struct {
	Name     string      `json:"name"`
	Location common.Vec3 `json:"location"`
	State    string      `json:"state"`
	Enabled  bool        `json:"enabled"`
}

type simulateSummary struct {
	Scene  string         `json:"scene"`
	Ticks  int            `json:"ticks"`
	Time   float64        `json:"time"`
	Events map[string]int `json:"events"`
	Agents []agentSummary `json:"agents"`
}

func runSimulate(cmd *cobra.Command, args []string) error {
	ticks, err := cmd.Flags().GetInt("ticks")
	if err != nil {
		return fmt.Errorf("failed to read --ticks flag: %w", err)
	}
	dt, err := cmd.Flags().GetFloat32("dt")
	if err != nil {
		return fmt.Errorf("failed to read --dt flag: %w", err)
	}
	addr, err := cmd.Flags().GetString("metrics-addr")
	if err != nil {
		return fmt.Errorf("failed to read --metrics-addr flag: %w", err)
	}
	hold, err := cmd.Flags().GetBool("hold")
	if err != nil {
		return fmt.Errorf("failed to read --hold flag: %w", err)
	}
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return fmt.Errorf("failed to read --json flag: %w", err)
	}
	if ticks < 0 || dt <= 0 {
		return fmt.Errorf("invalid --ticks %d / --dt %v", ticks, dt)
	}

	ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt)
	defer stop()

	var srv *http.Server
	if addr != "" {
		srv, err = serveMetrics(addr)
		if err != nil {
			return err
		}
		defer shutdown(srv)
	}

	s, err := openSim(cmd, args[0], sim.WithMetrics(addr != ""))
	if err != nil {
		return err
	}
	defer s.Close()

	out := cmd.OutOrStdout()
	counts := make(map[string]int)
	report := func() {
		for _, ev := range s.Events() {
			counts[string(ev.Kind)]++
			if !asJSON {
				printEvent(out, ev)
			}
		}
	}
	report()

	ran := 0
	for ; ran < ticks; ran++ {
		if ctx.Err() != nil {
			break
		}
		s.Step(dt)
		report()
	}

	summary := simulateSummary{Scene: s.Scene().Name, Ticks: ran, Time: s.Time(), Events: counts}
	for _, a := range s.Agents() {
		summary.Agents = append(summary.Agents, agentSummary{
			Name:     a.Name,
			Location: a.Body.Location(),
			State:    a.Follower.State().String(),
			Enabled:  a.Follower.AgentEnabled(),
		})
	}
	if asJSON {
		if err := writeJSON(out, summary); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(out, "%d ticks, %.2fs simulated\n", summary.Ticks, summary.Time)
		for _, a := range summary.Agents {
			fmt.Fprintf(out, "  %-10s %s %s\n", a.Name, a.State, formatVec3(a.Location))
		}
	}

	if hold && srv != nil {
		slog.Info("holding metrics endpoint", slog.String("addr", srv.Addr))
		<-ctx.Done()
	}
	return nil
}

func printEvent(w io.Writer, ev sim.Event) {
	fmt.Fprintf(w, "%8.2f %-13s", ev.Time, ev.Kind)
	if ev.Agent != "" {
		fmt.Fprintf(w, " %s", ev.Agent)
	}
	if !ev.Node.IsNull() {
		fmt.Fprintf(w, " %s", ev.Node)
	}
	if ev.Detail != "" {
		fmt.Fprintf(w, " %s", ev.Detail)
	}
	fmt.Fprintln(w)
}

// serveMetrics binds addr before returning so a bad address fails the command
// instead of the background goroutine.
func serveMetrics(addr string) (*http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listen %s: %w", addr, err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: ln.Addr().String(), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server", slog.Any("err", err))
		}
	}()
	slog.Info("serving metrics", slog.String("addr", srv.Addr))
	return srv, nil
}

func shutdown(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

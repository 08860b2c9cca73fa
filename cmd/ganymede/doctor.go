package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"mercator-hq/ganymede/pkg/breaker"
	"mercator-hq/ganymede/pkg/cli"
)

var doctorFlags struct {
	output string
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check provider credentials and endpoint health",
	Long: `Probe every active provider and report on credentials, models-endpoint
reachability, circuit breaker states, and the runtime's admission levels.

The command exits non-zero when any active provider is missing required
credentials or has an open circuit.`,
	RunE: runDoctor,
}

func init() {
	doctorCmd.Flags().StringVarP(&doctorFlags.output, "output", "o", "text", "output format: text or json")

	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	rt, _, err := buildRuntime()
	if err != nil {
		return cli.NewCommandError("doctor", err)
	}
	defer rt.Close()

	report := rt.Doctor(cli.SetupSignalHandler())

	if cli.OutputFormat(doctorFlags.output) == cli.FormatJSON {
		if err := cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, report); err != nil {
			return err
		}
	} else {
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "PROVIDER\tKEY\tMODELS\tCIRCUITS")
		for _, p := range report.Providers {
			key := "missing"
			switch {
			case p.HasAPIKey:
				key = "ok"
			case p.KeyOptional:
				key = "optional"
			}

			models := "unreachable"
			if p.ModelsReachable {
				models = fmt.Sprintf("%d", p.ModelCount)
			}

			circuits := "all closed"
			for _, b := range p.Breakers {
				if b.State != breaker.StateClosed {
					circuits = fmt.Sprintf("%s: %s", b.Key, b.State)
					break
				}
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.Provider, key, models, circuits)
		}
		fmt.Fprintf(w, "\nlimiter\t%d requests, %d tokens available\n",
			report.LimiterRequestsAvailable, report.LimiterTokensAvailable)
		gateCap := "unbounded"
		if report.GateCapacity > 0 {
			gateCap = fmt.Sprintf("%d", report.GateCapacity)
		}
		fmt.Fprintf(w, "gate\t%d in flight of %s\n", report.GateInFlight, gateCap)
		w.Flush()
	}

	if !report.Healthy() {
		return cli.NewCommandError("doctor", fmt.Errorf("one or more providers are unhealthy"))
	}
	return nil
}

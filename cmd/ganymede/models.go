package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"mercator-hq/ganymede/pkg/cli"
	"mercator-hq/ganymede/pkg/registry"
)

var modelsFlags struct {
	provider string
	output   string
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List available models",
	Long: `List the model catalog of one provider, or of every active provider.

Catalogs are fetched from each provider's models endpoint with the
configured credentials and cached; a provider whose endpoint is
unreachable lists as empty rather than failing the command.`,
	RunE: runModels,
}

func init() {
	modelsCmd.Flags().StringVarP(&modelsFlags.provider, "provider", "p", "", "provider name (default: all active)")
	modelsCmd.Flags().StringVarP(&modelsFlags.output, "output", "o", "text", "output format: text or json")

	rootCmd.AddCommand(modelsCmd)
}

func runModels(cmd *cobra.Command, args []string) error {
	rt, _, err := buildRuntime()
	if err != nil {
		return cli.NewCommandError("models", err)
	}
	defer rt.Close()

	ctx := cli.SetupSignalHandler()

	var providers []string
	if modelsFlags.provider != "" {
		providers = []string{modelsFlags.provider}
	} else {
		for _, cfg := range rt.Registry().List(registry.ListOptions{ActiveOnly: true}) {
			providers = append(providers, cfg.Name)
		}
	}

	catalogs := make(map[string][]registry.Model, len(providers))
	for _, name := range providers {
		catalogs[name] = rt.Models(ctx, name, "")
	}

	if cli.OutputFormat(modelsFlags.output) == cli.FormatJSON {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, catalogs)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PROVIDER\tMODEL\tNAME\tCONTEXT")
	for _, name := range providers {
		models := catalogs[name]
		if len(models) == 0 {
			fmt.Fprintf(w, "%s\t(none)\t\t\n", name)
			continue
		}
		for _, m := range models {
			context := ""
			if m.ContextWindow > 0 {
				context = fmt.Sprintf("%d", m.ContextWindow)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", name, m.ID, m.DisplayName, context)
		}
	}
	return w.Flush()
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mercator-hq/ganymede/pkg/chat"
	"mercator-hq/ganymede/pkg/cli"
	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/tokens"
)

var estimateFlags struct {
	system    string
	estimator string
}

var estimateCmd = &cobra.Command{
	Use:   "estimate [message]",
	Short: "Price a prompt without sending it",
	Long: `Estimate the prompt tokens a message would be charged against the
rate limiter's token bucket, without any network traffic.

The estimate is admission-control pricing, not billing: the heuristic
mode charges ~4 characters per token plus a per-message overhead, and
tiktoken mode counts exact BPE tokens.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEstimate,
}

func init() {
	estimateCmd.Flags().StringVarP(&estimateFlags.system, "system", "s", "", "system prompt to include")
	estimateCmd.Flags().StringVar(&estimateFlags.estimator, "estimator", "", "estimator mode: heuristic or tiktoken (default: from config)")

	rootCmd.AddCommand(estimateCmd)
}

func runEstimate(cmd *cobra.Command, args []string) error {
	message, err := chatMessage(args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return cli.NewCommandError("estimate", err)
	}

	mode := cfg.Estimator.Mode
	if estimateFlags.estimator != "" {
		mode = estimateFlags.estimator
	}

	var estimator tokens.Estimator
	switch mode {
	case config.EstimatorTiktoken:
		estimator = tokens.NewTiktoken()
	case config.EstimatorHeuristic, "":
		estimator = tokens.NewHeuristic(cfg.Estimator.CharsPerToken, cfg.Estimator.MessageOverhead)
	default:
		return cli.NewConfigError("estimator", fmt.Sprintf("unknown mode %q", mode))
	}

	history := []chat.Message{}
	if estimateFlags.system != "" {
		history = append(history, chat.Message{Role: chat.RoleSystem, Content: estimateFlags.system})
	}
	history = append(history, chat.Message{Role: chat.RoleUser, Content: message})

	fmt.Printf("%d\n", estimator.EstimateMessages(history))
	return nil
}

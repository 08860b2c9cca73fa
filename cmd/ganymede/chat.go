package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/ganymede/pkg/chat"
	"mercator-hq/ganymede/pkg/cli"
	"mercator-hq/ganymede/pkg/runtime"
	"mercator-hq/ganymede/pkg/secrets"
)

var chatFlags struct {
	provider    string
	model       string
	apiKey      string
	system      string
	maxTokens   int
	temperature float64
	topP        float64
	jsonMode    bool
	retries     int
	timeout     time.Duration
	showUsage   bool
}

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Send a chat message and print the completion",
	Long: `Send a conversation to an LLM provider through the resilience pipeline.

The message comes from the argument, or from stdin when no argument is
given, so both forms work:

  ganymede chat "Explain token buckets in one paragraph"
  echo "Explain token buckets" | ganymede chat`,
	Args: cobra.MaximumNArgs(1),
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatFlags.provider, "provider", "p", "", "provider name (default: openai)")
	chatCmd.Flags().StringVarP(&chatFlags.model, "model", "m", "", "model id (default: provider's default)")
	chatCmd.Flags().StringVar(&chatFlags.apiKey, "api-key", "", "API key override for this call")
	chatCmd.Flags().StringVarP(&chatFlags.system, "system", "s", "", "system prompt")
	chatCmd.Flags().IntVar(&chatFlags.maxTokens, "max-tokens", 0, "completion token cap")
	chatCmd.Flags().Float64VarP(&chatFlags.temperature, "temperature", "t", -1, "sampling temperature")
	chatCmd.Flags().Float64Var(&chatFlags.topP, "top-p", -1, "nucleus sampling probability mass")
	chatCmd.Flags().BoolVar(&chatFlags.jsonMode, "json", false, "request a JSON object response")
	chatCmd.Flags().IntVar(&chatFlags.retries, "retries", -1, "additional attempts after the first")
	chatCmd.Flags().DurationVar(&chatFlags.timeout, "timeout", 0, "per-attempt timeout")
	chatCmd.Flags().BoolVar(&chatFlags.showUsage, "usage", false, "print attempt and token metadata to stderr")

	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	message, err := chatMessage(args)
	if err != nil {
		return err
	}

	rt, _, err := buildRuntime()
	if err != nil {
		return cli.NewCommandError("chat", err)
	}
	defer rt.Close()

	history := []chat.Message{}
	if chatFlags.system != "" {
		history = append(history, chat.Message{Role: chat.RoleSystem, Content: chatFlags.system})
	}
	history = append(history, chat.Message{Role: chat.RoleUser, Content: message})

	opts := &runtime.ChatOptions{
		Provider:  chatFlags.provider,
		Model:     chatFlags.model,
		APIKey:    secrets.Secret(chatFlags.apiKey),
		MaxTokens: chatFlags.maxTokens,
		Timeout:   chatFlags.timeout,
	}
	if chatFlags.temperature >= 0 {
		opts.Temperature = &chatFlags.temperature
	}
	if chatFlags.topP >= 0 {
		opts.TopP = &chatFlags.topP
	}
	if chatFlags.jsonMode {
		opts.ResponseFormat = map[string]interface{}{"type": "json_object"}
	}
	if chatFlags.retries >= 0 {
		opts.Retries = &chatFlags.retries
	}

	ctx := cli.SetupSignalHandler()
	result, err := rt.ChatResult(ctx, history, opts)
	if err != nil {
		switch chat.KindOf(err) {
		case chat.KindAuth:
			fmt.Fprintln(os.Stderr, "hint: set the provider's API key env var or pass --api-key")
		case chat.KindCircuitOpen:
			fmt.Fprintln(os.Stderr, "hint: the endpoint's circuit is open; retry after the cooldown or run `ganymede doctor`")
		}
		return cli.NewCommandError("chat", err)
	}

	fmt.Println(result.Content)
	if chatFlags.showUsage {
		fmt.Fprintf(os.Stderr, "provider=%s model=%s attempts=%d estimated_tokens=%d request_id=%s\n",
			result.Provider, result.Model, result.Attempts, result.EstimatedTokens, result.RequestID)
	}
	return nil
}

// chatMessage takes the prompt from the argument or stdin.
func chatMessage(args []string) (string, error) {
	if len(args) == 1 && args[0] != "" {
		return args[0], nil
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	message := strings.TrimSpace(string(data))
	if message == "" {
		return "", fmt.Errorf("no message given: pass an argument or pipe stdin")
	}
	return message, nil
}

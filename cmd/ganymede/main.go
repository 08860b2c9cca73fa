// Ganymede is a resilient multi-provider LLM chat client runtime.
//
// It invokes OpenAI, Anthropic, Google, Ollama, and arbitrary
// OpenAI-compatible chat endpoints through a pipeline of interlocking
// resilience mechanisms: token-estimate rate limiting, bounded
// concurrency, per-endpoint circuit breakers, and retry with backoff.
//
// Usage:
//
//	# Send a chat message with the default provider
//	ganymede chat "What is a circuit breaker?"
//
//	# Pick a provider and model
//	ganymede chat --provider anthropic --model claude-sonnet-4-5 "hi"
//
//	# List a provider's models
//	ganymede models --provider openai
//
//	# Check provider credentials and endpoint health
//	ganymede doctor
//
//	# Price a prompt without sending it
//	ganymede estimate "How many tokens is this?"
//
// For complete documentation, see: https://github.com/mercator-hq/ganymede
package main

func main() {
	Execute()
}

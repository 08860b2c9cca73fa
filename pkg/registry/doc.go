// Package registry is the provider-configuration surface of the runtime:
// which providers exist, where their endpoints live, how they
// authenticate, how their chat dialect is shaped, and what models they
// offer.
//
// A Registry ships with working defaults for openai, anthropic, google,
// and ollama; anything else (an OpenAI-compatible gateway, a second
// account) is added or adjusted with Configure and a Partial:
//
//	reg := registry.New(registry.Options{})
//	_, err := reg.Configure("my-gateway", registry.Partial{
//	    BaseURL: registry.String("https://llm.internal.example"),
//	    APIKey:  "sk-internal-...",
//	    Chat: &registry.PartialChat{
//	        ResponseParsePath: registry.String("choices[0].message.content"),
//	    },
//	})
//
// API keys handed to Configure are stripped into a separate secret store;
// configs returned by Get and List are deep copies and never carry a key.
// Model catalogs are fetched lazily, cached per provider, and invalidated
// whenever that provider is reconfigured.
package registry

// Package secrets holds provider API keys apart from provider configuration.
//
// Keys never live on config structs: the registry strips them into a Static
// store at configure time and resolves them again only at the moment an auth
// header or query parameter is built. The Secret type redacts itself under
// fmt, JSON, and YAML so a key cannot leak through a log line or a config
// dump; code that genuinely needs the raw value converts explicitly with
// string(secret).
//
// Sources answer "what is the key for provider X" and can be chained:
//
//	chain := secrets.NewChain(
//	    secrets.NewEnv("GANYMEDE_API_KEY_"),
//	    dirSource,
//	)
//	key, ok := chain.Lookup("openai")
//
// The runtime consults the static store first, then any configured chain,
// then the provider's own ordered env var list.
package secrets

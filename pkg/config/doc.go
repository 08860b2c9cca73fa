// Package config provides YAML-backed configuration for the Ganymede
// runtime: provider registry overlays, admission limits, breaker and retry
// tuning, estimator selection, telemetry, the usage journal, and the
// persistent model catalog.
//
// Loading follows a fixed sequence: read file, unmarshal, apply defaults,
// apply GANYMEDE_* environment overrides, validate. A process-wide
// singleton (Initialize/GetConfig/ReloadConfig) serves applications that
// want one shared configuration, and Watcher hot-reloads the file on
// change with debouncing, handing each successfully validated config to an
// OnReload hook.
//
// API keys appearing under providers are secrets.Secret values: they are
// stripped into the registry's key store at Apply time and redact
// themselves in any serialized form.
package config

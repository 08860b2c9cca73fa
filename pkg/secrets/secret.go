package secrets

// Redacted is what a Secret renders as anywhere it could be observed
// indirectly: fmt verbs, JSON, YAML.
const Redacted = "[REDACTED]"

// Secret is an API key with self-redacting representations. Only an
// explicit string(s) conversion yields the raw value.
type Secret string

// String implements fmt.Stringer and hides the value.
func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return Redacted
}

// GoString hides the value from %#v as well.
func (s Secret) GoString() string {
	return "secrets.Secret(" + s.String() + ")"
}

// MarshalJSON never emits the raw value.
func (s Secret) MarshalJSON() ([]byte, error) {
	if s == "" {
		return []byte(`""`), nil
	}
	return []byte(`"` + Redacted + `"`), nil
}

// MarshalYAML never emits the raw value.
func (s Secret) MarshalYAML() (interface{}, error) {
	if s == "" {
		return "", nil
	}
	return Redacted, nil
}

// Empty reports whether no key is present.
func (s Secret) Empty() bool {
	return s == ""
}

package secrets

// Chain consults sources in order and returns the first hit.
type Chain struct {
	sources []Source
}

// NewChain builds a chain. Nil sources are skipped.
func NewChain(sources ...Source) *Chain {
	kept := make([]Source, 0, len(sources))
	for _, s := range sources {
		if s != nil {
			kept = append(kept, s)
		}
	}
	return &Chain{sources: kept}
}

// Lookup walks the chain.
func (c *Chain) Lookup(provider string) (Secret, bool) {
	for _, s := range c.sources {
		if key, ok := s.Lookup(provider); ok {
			return key, true
		}
	}
	return "", false
}

// Name identifies the source.
func (c *Chain) Name() string {
	return "chain"
}

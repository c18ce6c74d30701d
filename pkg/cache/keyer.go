package cache

// Keyer generates cache keys for the pipeline stages. Using a single Keyer
// for all entry points guarantees that the CLI and the server derive
// identical keys for identical inputs.
type Keyer interface {
	// TopologyKey generates a key for a fetched topology.
	TopologyKey(sourceURL string) string

	// LayoutKey generates a key for a computed layout.
	LayoutKey(modelHash string, opts LayoutKeyOpts) string

	// ArtifactKey generates a key for a rendered artifact.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// LayoutKeyOpts are the options that affect layout computation.
type LayoutKeyOpts struct {
	Style  string
	Width  float64
	Height float64
}

// ArtifactKeyOpts are the options that affect artifact rendering.
type ArtifactKeyOpts struct {
	Format string
}

// DefaultKeyer generates hashed cache keys with stage prefixes.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// TopologyKey generates a key for a fetched topology.
func (k *DefaultKeyer) TopologyKey(sourceURL string) string {
	return hashKey("topology", sourceURL)
}

// LayoutKey generates a key for a computed layout.
func (k *DefaultKeyer) LayoutKey(modelHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", modelHash, opts)
}

// ArtifactKey generates a key for a rendered artifact.
func (k *DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}

// ScopedKeyer wraps a Keyer with a prefix, isolating cache namespaces when
// several topology sources share one redis instance.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// TopologyKey generates a prefixed key for a fetched topology.
func (k *ScopedKeyer) TopologyKey(sourceURL string) string {
	return k.prefix + k.inner.TopologyKey(sourceURL)
}

// LayoutKey generates a prefixed key for a computed layout.
func (k *ScopedKeyer) LayoutKey(modelHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(modelHash, opts)
}

// ArtifactKey generates a prefixed key for a rendered artifact.
func (k *ScopedKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(layoutHash, opts)
}

package cache

// ScopedKeyer wraps a Keyer with a prefix.
// Registry clients scope their keys by registry URL so a private mirror and
// the public registry never answer for each other:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "registry:"+Hash([]byte(baseURL))[:12]+":")
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

// HTTPKey generates a prefixed key for HTTP response caching.
func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}

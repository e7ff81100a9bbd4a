package integrations

import (
	"net/http"
	"strings"
	"time"

	"github.com/matzehuels/typescout/pkg/cache"
)

const httpTimeout = 10 * time.Second

// NewHTTPClient creates an HTTP client with a standard timeout for registry requests.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

// RegistryKeyer returns a keyer scoped to baseURL, so lookups cached for one
// registry are never served for another.
func RegistryKeyer(baseURL string) cache.Keyer {
	id := cache.Hash([]byte(NormalizeBaseURL(baseURL)))[:12]
	return cache.NewScopedKeyer(cache.NewDefaultKeyer(), "registry:"+id+":")
}

// NormalizeBaseURL trims whitespace and trailing slashes from a registry URL.
func NormalizeBaseURL(raw string) string {
	return strings.TrimRight(strings.TrimSpace(raw), "/")
}

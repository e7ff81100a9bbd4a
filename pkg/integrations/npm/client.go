package npm

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/matzehuels/typescout/pkg/cache"
	tserrors "github.com/matzehuels/typescout/pkg/errors"
	"github.com/matzehuels/typescout/pkg/integrations"
)

// DefaultRegistry is the public npm registry.
const DefaultRegistry = "https://registry.npmjs.org"

// abbreviatedAccept asks the registry for the install-time document, which
// carries dist-tags without READMEs or per-version metadata.
const abbreviatedAccept = "application/vnd.npm.install-v1+json; q=1.0, application/json; q=0.8"

// PackageInfo is the subset of registry metadata typescout needs.
type PackageInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Client queries an npm-compatible registry.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a client for the registry at baseURL (DefaultRegistry
// when empty). Successful lookups are cached in c for ttl.
func NewClient(c cache.Cache, baseURL string, ttl time.Duration, opts ...integrations.Option) *Client {
	if baseURL == "" {
		baseURL = DefaultRegistry
	}
	baseURL = integrations.NormalizeBaseURL(baseURL)
	opts = append([]integrations.Option{
		integrations.WithKeyer(integrations.RegistryKeyer(baseURL)),
		integrations.WithHeaders(map[string]string{"Accept": abbreviatedAccept}),
	}, opts...)
	return &Client{
		Client:  integrations.NewClient(c, "npm", ttl, opts...),
		baseURL: baseURL,
	}
}

// BaseURL returns the registry URL this client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// Lookup reports the latest published version of pkg. A package that the
// registry does not know yields an error matching [cache.ErrNotFound].
func (c *Client) Lookup(ctx context.Context, pkg string) (string, error) {
	info, err := c.FetchPackage(ctx, pkg, false)
	if err != nil {
		return "", err
	}
	return info.Version, nil
}

// FetchPackage fetches the latest version of pkg. If refresh is true the
// cache is bypassed.
func (c *Client) FetchPackage(ctx context.Context, pkg string, refresh bool) (*PackageInfo, error) {
	pkg = strings.ToLower(strings.TrimSpace(pkg))
	if err := tserrors.ValidateNpmPackageName(pkg); err != nil {
		return nil, err
	}

	var info PackageInfo
	err := c.Cached(ctx, pkg, refresh, &info, func() error {
		return c.fetch(ctx, pkg, &info)
	})
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) fetch(ctx context.Context, pkg string, info *PackageInfo) error {
	var data registryResponse
	if err := c.Get(ctx, c.packageURL(pkg), &data); err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return fmt.Errorf("%w: npm package %s", err, pkg)
		}
		return err
	}

	latest := data.DistTags.Latest
	if latest == "" {
		// Every version unpublished: the name exists but nothing is installable.
		return fmt.Errorf("%w: npm package %s has no latest version", cache.ErrNotFound, pkg)
	}

	*info = PackageInfo{Name: data.Name, Version: latest}
	if info.Name == "" {
		info.Name = pkg
	}
	return nil
}

// packageURL escapes the scope separator the way the registry expects:
// "@types/node" becomes "<base>/@types%2Fnode".
func (c *Client) packageURL(pkg string) string {
	return c.baseURL + "/" + url.PathEscape(pkg)
}

type registryResponse struct {
	Name     string   `json:"name"`
	DistTags distTags `json:"dist-tags"`
}

type distTags struct {
	Latest string `json:"latest"`
}

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	ghAPI "github.com/cli/go-gh/v2/pkg/api"
)

var ErrNotFound = errors.New("not found")

type Client struct {
	rest  *ghAPI.RESTClient
	http  *http.Client
	base  string
	owner string
	repo  string
}

func NewClient(owner, repo string) (*Client, error) {
	rest, err := ghAPI.DefaultRESTClient()
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub client (is gh authenticated?): %w", err)
	}
	httpClient, err := ghAPI.DefaultHTTPClient()
	if err != nil {
		return nil, fmt.Errorf("create http client: %w", err)
	}
	return newClient(rest, httpClient, "https://api.github.com/", owner, repo), nil
}

// NewClientWithOptions builds a client from explicit go-gh options, e.g. a
// token and transport for GitHub Enterprise or tests.
func NewClientWithOptions(owner, repo string, opts ghAPI.ClientOptions) (*Client, error) {
	rest, err := ghAPI.NewRESTClient(opts)
	if err != nil {
		return nil, fmt.Errorf("create REST client: %w", err)
	}
	httpClient, err := ghAPI.NewHTTPClient(opts)
	if err != nil {
		return nil, fmt.Errorf("create http client: %w", err)
	}
	base := "https://api.github.com/"
	if opts.Host != "" && opts.Host != "github.com" {
		base = fmt.Sprintf("https://%s/api/v3/", opts.Host)
	}
	return newClient(rest, httpClient, base, owner, repo), nil
}

func newClient(rest *ghAPI.RESTClient, httpClient *http.Client, base, owner, repo string) *Client {
	// Log endpoints answer with a redirect to a short-lived blob URL; the
	// redirect itself is the signal, so never follow it.
	httpClient.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return &Client{rest: rest, http: httpClient, base: base, owner: owner, repo: repo}
}

func (c *Client) repoPath(path string) string {
	return fmt.Sprintf("repos/%s/%s/%s", c.owner, c.repo, path)
}

func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	err := c.rest.DoWithContext(ctx, http.MethodGet, c.repoPath(path), nil, result)
	if isNotFound(err) {
		return fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	return err
}

func isNotFound(err error) bool {
	var httpErr *ghAPI.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == http.StatusNotFound || httpErr.StatusCode == http.StatusGone
	}
	return false
}

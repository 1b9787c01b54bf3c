package version

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Version is the sockbench release, overridden at link time
var Version = "0.1.0"

const (
	releaseURL   = "https://api.github.com/repos/studiowebux/sockbench/releases/latest"
	checkTimeout = 5 * time.Second
)

// Release is the subset of the GitHub release payload we read
type Release struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

// Update describes the result of a release check
type Update struct {
	Available bool
	Current   string
	Latest    string
	URL       string
}

// Checker queries a release endpoint for the latest version
type Checker struct {
	URL    string
	Client *http.Client
}

// NewChecker returns a checker for the public release feed
func NewChecker() *Checker {
	return &Checker{
		URL:    releaseURL,
		Client: &http.Client{Timeout: checkTimeout},
	}
}

// Check compares current against the latest published release
func (c *Checker) Check(ctx context.Context, current string) (*Update, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "sockbench/"+current)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch latest release: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var release Release
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	u := &Update{
		Current: strings.TrimPrefix(current, "v"),
		Latest:  strings.TrimPrefix(release.TagName, "v"),
		URL:     release.HTMLURL,
	}
	u.Available = u.Latest != "" && isNewerVersion(u.Latest, u.Current)
	return u, nil
}

// isNewerVersion reports whether latest > current.
// Pre-release and build suffixes are ignored: "0.2.0-dev" compares as "0.2.0".
func isNewerVersion(latest, current string) bool {
	a, b := parseVersion(latest), parseVersion(current)
	for len(a) < len(b) {
		a = append(a, 0)
	}
	for len(b) < len(a) {
		b = append(b, 0)
	}
	for i := range a {
		if a[i] != b[i] {
			return a[i] > b[i]
		}
	}
	return false
}

func parseVersion(version string) []int {
	if idx := strings.IndexAny(version, "-+"); idx != -1 {
		version = version[:idx]
	}

	parts := strings.Split(version, ".")
	result := make([]int, 0, len(parts))
	for _, part := range parts {
		num, err := strconv.Atoi(part)
		if err != nil {
			continue
		}
		result = append(result, num)
	}
	return result
}

// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package update

import (
	"context"
	"net/http"
	"runtime"
	"strings"

	"github.com/google/go-github/v60/github"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/mod/semver"
)

var ErrBadVersion = errors.Base("version is not semver")

// 🔌 GitHubClient is the part of the releases API the checker needs.
// *github.RepositoriesService satisfies it.
type GitHubClient interface {
	GetLatestRelease(ctx context.Context, owner, repo string) (*github.RepositoryRelease, *github.Response, error)
}

// ClientOptions configure NewGitHubClient; the zero value talks to github.com
// anonymously.
type ClientOptions struct {
	HTTPClient *http.Client
	Token      string
	// BaseURL points at a GitHub Enterprise API.
	BaseURL string
}

// 🏭 NewGitHubClient returns the releases API
func NewGitHubClient(opts ClientOptions) (GitHubClient, error) {
	client := github.NewClient(opts.HTTPClient)
	if opts.Token != "" {
		client = client.WithAuthToken(opts.Token)
	}
	if opts.BaseURL != "" {
		var err error
		client, err = client.WithEnterpriseURLs(opts.BaseURL, opts.BaseURL)
		if err != nil {
			return nil, errors.Errorf("setting base url: %w", err)
		}
	}
	return client.Repositories, nil
}

// 📦 Info is the result of an update check
type Info struct {
	Available      bool   `json:"available"`
	LatestVersion  string `json:"latest_version"`
	CurrentVersion string `json:"current_version"`
	DownloadURL    string `json:"download_url,omitempty"`
	SignatureURL   string `json:"signature_url,omitempty"`
	ReleaseURL     string `json:"release_url,omitempty"`
	Changelog      string `json:"changelog,omitempty"`
}

// 🔄 Checker compares the running version with the latest GitHub release
type Checker struct {
	Client         GitHubClient
	Owner          string
	Repo           string
	CurrentVersion string
	// GOOS selects the release asset, runtime.GOOS when empty.
	GOOS string
}

// Check fetches the latest release. An update is available when the release
// is newer and carries an asset for this platform.
func (c *Checker) Check(ctx context.Context) (*Info, error) {
	logger := zerolog.Ctx(ctx).With().Str("repo", c.Owner+"/"+c.Repo).Logger()

	release, _, err := c.Client.GetLatestRelease(ctx, c.Owner, c.Repo)
	if err != nil {
		return nil, errors.Errorf("getting latest release: %w", err)
	}

	latest := canonical(release.GetTagName())
	if !semver.IsValid(latest) {
		return nil, errors.Errorf("latest release tag %q: %w", release.GetTagName(), ErrBadVersion)
	}

	info := &Info{
		LatestVersion:  strings.TrimPrefix(latest, "v"),
		CurrentVersion: strings.TrimPrefix(canonical(c.CurrentVersion), "v"),
		ReleaseURL:     release.GetHTMLURL(),
		Changelog:      release.GetBody(),
	}

	if !Newer(latest, c.CurrentVersion) {
		logger.Debug().Str("latest", latest).Str("current", c.CurrentVersion).Msg("up to date")
		return info, nil
	}

	goos := c.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}
	info.DownloadURL, info.SignatureURL = pickAsset(release.Assets, goos)
	info.Available = info.DownloadURL != ""

	logger.Info().
		Str("latest", info.LatestVersion).
		Bool("available", info.Available).
		Str("asset", info.DownloadURL).
		Msg("update check complete")
	return info, nil
}

// Newer reports whether latest is a newer semver than current. The leading v
// is optional. A current version that is not semver (a dev build) is always
// older.
func Newer(latest, current string) bool {
	latest, current = canonical(latest), canonical(current)
	if !semver.IsValid(latest) {
		return false
	}
	if !semver.IsValid(current) {
		return true
	}
	return semver.Compare(latest, current) > 0
}

func canonical(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

var platformPatterns = map[string][]string{
	"windows": {"windows", "win", ".exe", ".msi"},
	"linux":   {"linux", ".deb", ".rpm", ".tar.gz"},
	"darwin":  {"macos", "darwin", "osx", ".dmg", ".pkg"},
}

// pickAsset returns the download URL of the first asset naming goos and of
// its "<asset>.sig" companion.
func pickAsset(assets []*github.ReleaseAsset, goos string) (download, signature string) {
	patterns := platformPatterns[goos]
	byName := make(map[string]string, len(assets))
	for _, a := range assets {
		byName[strings.ToLower(a.GetName())] = a.GetBrowserDownloadURL()
	}

	for _, a := range assets {
		name := strings.ToLower(a.GetName())
		if strings.HasSuffix(name, ".sig") {
			continue
		}
		for _, p := range patterns {
			if strings.Contains(name, p) {
				return a.GetBrowserDownloadURL(), byName[name+".sig"]
			}
		}
	}
	return "", ""
}

package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	getter "github.com/hashicorp/go-getter"
)

const remoteFetchTimeout = 60 * time.Second

// IsRemoteSource reports whether src has to be downloaded before it is read,
// e.g. https://host/kii.toml or github.com/org/repo//profiles/kii.toml.
func IsRemoteSource(src string) bool {
	return strings.Contains(src, "://") ||
		strings.Contains(src, "::") ||
		strings.HasPrefix(src, "github.com/") ||
		strings.HasPrefix(src, "git@")
}

// fetchRemote downloads a single file into a temp dir and returns its local
// path. cleanup removes the temp dir.
func fetchRemote(src string) (string, func(), error) {
	dir, err := os.MkdirTemp("", "explorer-chain-*")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	ext := ".toml"
	if strings.HasSuffix(strings.SplitN(src, "?", 2)[0], ".json") {
		ext = ".json"
	}
	dst := filepath.Join(dir, "profile"+ext)

	ctx, cancel := context.WithTimeout(context.Background(), remoteFetchTimeout)
	defer cancel()

	client := getter.Client{
		Ctx:  ctx,
		Src:  src,
		Dst:  dst,
		Mode: getter.ClientModeFile,
		Detectors: []getter.Detector{
			&getter.GitHubDetector{},
			&getter.GitDetector{},
		},
		Getters: map[string]getter.Getter{
			"http":  &getter.HttpGetter{},
			"https": &getter.HttpGetter{},
			"git":   &getter.GitGetter{},
		},
	}
	if err := client.Get(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to download %s: %w", src, err)
	}
	return dst, cleanup, nil
}

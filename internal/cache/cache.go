// Package cache keeps rendered frames under the user cache directory and
// bundles them for sharing.
package cache

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Dir returns the cache directory path.
func Dir() string {
	dir := os.Getenv("XDG_CACHE_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".cache")
	}
	return filepath.Join(dir, "clustermap")
}

// RunDir returns the frame directory for one named run, creating it.
func RunDir(name string) (string, error) {
	dir := filepath.Join(Dir(), "runs", sanitize(name))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// Runs lists cached run names.
func Runs() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(Dir(), "runs"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// Clear removes every cached run.
func Clear() error {
	return os.RemoveAll(filepath.Join(Dir(), "runs"))
}

// Bundle writes a tar.gz archive of src to output.
func Bundle(src, output string) error {
	if _, err := os.Stat(src); err != nil {
		return fmt.Errorf("nothing to bundle in %s: %w", src, err)
	}

	f, err := os.Create(output)
	if err != nil {
		return err
	}
	defer f.Close()

	gw := gzip.NewWriter(f)
	tw := tar.NewWriter(gw)

	walkErr := filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(src, path)
		if rel == "." {
			return nil
		}
		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(rel)
		if err := tw.WriteHeader(header); err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		file, err := os.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()
		_, err = io.Copy(tw, file)
		return err
	})
	if walkErr != nil {
		return walkErr
	}
	if err := tw.Close(); err != nil {
		return err
	}
	return gw.Close()
}

func sanitize(s string) string {
	r := strings.NewReplacer("/", "_", ":", "_", "@", "_", " ", "_")
	return r.Replace(s)
}

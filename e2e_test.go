//go:build e2e

package main

import (
	"fmt"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

var clustermapBin string

func TestMain(m *testing.M) {
	tmp, err := os.MkdirTemp("", "clustermap-e2e-*")
	if err != nil {
		panic("failed to create temp dir: " + err.Error())
	}
	defer os.RemoveAll(tmp)

	clustermapBin = filepath.Join(tmp, "clustermap")
	build := exec.Command("go", "build", "-ldflags", "-X github.com/msalah0e/clustermap/cmd.version=0.3.0-test", "-o", clustermapBin, ".")
	build.Stderr = os.Stderr
	if err := build.Run(); err != nil {
		panic("failed to build clustermap: " + err.Error())
	}

	os.Exit(m.Run())
}

// runClustermap executes the binary with HOME and the XDG dirs under home.
func runClustermap(t *testing.T, home string, args ...string) (stdout, stderr string, exitCode int) {
	t.Helper()
	cmd := exec.Command(clustermapBin, args...)
	cmd.Dir = home
	cmd.Env = append(os.Environ(),
		"HOME="+home,
		"XDG_CONFIG_HOME="+filepath.Join(home, ".config"),
		"XDG_CACHE_HOME="+filepath.Join(home, ".cache"),
		"NO_COLOR=1",
	)

	var outBuf, errBuf strings.Builder
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err := cmd.Run()
	exitCode = 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			t.Fatalf("failed to run clustermap %v: %v", args, err)
		}
	}
	return outBuf.String(), errBuf.String(), exitCode
}

// writeRecords writes 12 papers in two clusters plus one unplaceable paper.
func writeRecords(t *testing.T, dir string) (papers, clusters string) {
	t.Helper()
	var b strings.Builder
	b.WriteString(`{"papers": [`)
	for i := 1; i <= 12; i++ {
		fmt.Fprintf(&b, `{"id": %d, "title": "Paper %d", "x": %d, "y": %d, "cluster_id": %d},`, i, i, i, i%4, 1+i%2)
	}
	b.WriteString(`{"id": 99, "title": "Nowhere", "x": null, "y": 1, "cluster_id": 1}]}`)

	papers = filepath.Join(dir, "papers.json")
	clusters = filepath.Join(dir, "clusters.json")
	if err := os.WriteFile(papers, []byte(b.String()), 0o644); err != nil {
		t.Fatal(err)
	}
	doc := `{"clusters": [{"cluster_id": 1, "cluster_label": "Graphs", "count": 6, "color": "#4e79a7"},
		{"cluster_id": 2, "cluster_label": "Physics", "count": 6, "color": "#f28e2b"}]}`
	if err := os.WriteFile(clusters, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	return papers, clusters
}

func TestE2E_Version(t *testing.T) {
	out, _, code := runClustermap(t, t.TempDir(), "--version")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if !strings.Contains(out, "0.3.0-test") {
		t.Errorf("expected version output to contain '0.3.0-test', got %q", out)
	}
}

func TestE2E_Help(t *testing.T) {
	out, _, code := runClustermap(t, t.TempDir(), "--help")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	for _, want := range []string{"render", "inspect", "sweep", "serve"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected help to list %q", want)
		}
	}
}

func TestE2E_RenderAndHistory(t *testing.T) {
	home := t.TempDir()
	papers, clusters := writeRecords(t, home)
	out := filepath.Join(home, "frames", "graph.png")

	stdout, stderr, code := runClustermap(t, home, "render", "-p", papers, "-c", clusters, "--expand", "1", "-o", out, "--metrics")
	if code != 0 {
		t.Fatalf("render failed (%d): %s", code, stderr)
	}
	if !strings.Contains(stdout, "clustermap_graph_builds_total") {
		t.Errorf("expected metrics table, got %q", stdout)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("expected PNG at %s: %v", out, err)
	}
	img, err := png.Decode(f)
	f.Close()
	if err != nil {
		t.Fatalf("output is not a PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 800 || b.Dy() != 600 {
		t.Errorf("expected default 800x600 canvas, got %v", b)
	}

	stdout, _, code = runClustermap(t, home, "history")
	if code != 0 {
		t.Fatalf("history failed (%d)", code)
	}
	if !strings.Contains(stdout, "render") {
		t.Errorf("expected the render run in history, got %q", stdout)
	}
}

func TestE2E_RenderMissingPapers(t *testing.T) {
	_, _, code := runClustermap(t, t.TempDir(), "render", "-p", "nope.json")
	if code == 0 {
		t.Fatal("expected non-zero exit for a missing papers file")
	}
}

func TestE2E_Inspect(t *testing.T) {
	home := t.TempDir()
	papers, clusters := writeRecords(t, home)

	stdout, stderr, code := runClustermap(t, home, "inspect", "-p", papers, "-c", clusters, "--density", "50")
	if code != 0 {
		t.Fatalf("inspect failed (%d): %s", code, stderr)
	}
	for _, want := range []string{"Graphs", "Physics", "2 nodes"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected %q in inspect output, got %q", want, stdout)
		}
	}
}

func TestE2E_SweepBundle(t *testing.T) {
	home := t.TempDir()
	papers, _ := writeRecords(t, home)
	dir := filepath.Join(home, "sweep")
	bundle := filepath.Join(home, "sweep.tar.gz")

	_, stderr, code := runClustermap(t, home, "sweep", "-p", papers, "--expand", "1,2", "--densities", "25,100", "-o", dir, "--bundle", bundle)
	if code != 0 {
		t.Fatalf("sweep failed (%d): %s", code, stderr)
	}
	for _, name := range []string{"density-025.png", "density-100.png"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected %s: %v", name, err)
		}
	}
	if _, err := os.Stat(bundle); err != nil {
		t.Errorf("expected bundle: %v", err)
	}
}

func TestE2E_ConfigInitAndPath(t *testing.T) {
	home := t.TempDir()
	stdout, _, code := runClustermap(t, home, "config", "path")
	if code != 0 {
		t.Fatalf("config path failed (%d)", code)
	}
	want := filepath.Join(home, ".config", "clustermap", "config.toml")
	if strings.TrimSpace(stdout) != want {
		t.Errorf("expected %q, got %q", want, stdout)
	}

	if _, _, code = runClustermap(t, home, "config", "init"); code != 0 {
		t.Fatalf("config init failed (%d)", code)
	}
	if _, err := os.Stat(want); err != nil {
		t.Errorf("config init should write %s: %v", want, err)
	}

	stdout, _, _ = runClustermap(t, home, "config", "show")
	if !strings.Contains(stdout, "[physics]") {
		t.Errorf("expected TOML sections in config show, got %q", stdout)
	}
}

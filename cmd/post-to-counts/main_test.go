package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ieee0824/asrtools/internal/cli"
)

func TestPostToCounts(t *testing.T) {
	dir := t.TempDir()
	post := filepath.Join(dir, "post")
	os.WriteFile(post, []byte("u1 [ 0 0.5 2 0.5 ] [ 2 1 ]\nu2 [ 1 0.25 ]\n"), 0o644)
	out := filepath.Join(dir, "counts")

	var stderr bytes.Buffer
	if code := cli.Execute(context.Background(), tool, []string{"ark:" + post, out}, &stderr, &stderr); code != cli.ExitOK {
		t.Fatalf("exit = %d, stderr:\n%s", code, stderr.String())
	}
	got, _ := os.ReadFile(out)
	if want := "[ 0.5 0.25 1.5 ]\n"; string(got) != want {
		t.Errorf("counts = %q, want %q", got, want)
	}
}

func TestPostToCountsNothingRead(t *testing.T) {
	dir := t.TempDir()
	post := filepath.Join(dir, "post")
	os.WriteFile(post, nil, 0o644)
	var stderr bytes.Buffer
	if code := cli.Execute(context.Background(), tool, []string{"ark:" + post, filepath.Join(dir, "c")}, &stderr, &stderr); code != cli.ExitFailed {
		t.Errorf("exit = %d, want %d", code, cli.ExitFailed)
	}
}

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ieee0824/asrtools/internal/cli"
)

func TestGetC0(t *testing.T) {
	dir := t.TempDir()
	path := func(name string) string { return filepath.Join(dir, name) }
	os.WriteFile(path("feats"), []byte("u1  [\n  1 5 6\n  3 7 8 ]\nu2  [ ]\n"), 0o644)

	var stderr bytes.Buffer
	args := []string{"ark:" + path("feats"), "ark,t:" + path("c0"), "ark,t:" + path("avg")}
	if code := cli.Execute(context.Background(), tool, args, &stderr, &stderr); code != cli.ExitOK {
		t.Fatalf("exit = %d, stderr:\n%s", code, stderr.String())
	}
	c0, _ := os.ReadFile(path("c0"))
	if want := "u1 [ 1 3 ]\nu2 [ ]\n"; string(c0) != want {
		t.Errorf("c0 = %q, want %q", c0, want)
	}
	avg, _ := os.ReadFile(path("avg"))
	if want := "u1 2\n"; string(avg) != want {
		t.Errorf("avg = %q, want %q", avg, want)
	}
}

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ieee0824/asrtools/internal/cli"
)

func TestGetPdfCountsOnAli(t *testing.T) {
	dir := t.TempDir()
	ali := filepath.Join(dir, "ali")
	weights := filepath.Join(dir, "w")
	os.WriteFile(ali, []byte("u1 0 1 1 3\nu2 1 1\n"), 0o644)
	os.WriteFile(weights, []byte("u1 [ 0.9 0.1 0.8 0.7 ]\nu2 [ 0.5 ]\n"), 0o644)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no weights", []string{"ark:" + ali}, "Counts 1 4 0 1\n"},
		{"weights", []string{"--weight-threshold=0.5", "ark:" + ali, "ark:" + weights}, "Counts 1 3 0 1\n"},
	}
	for _, tt := range tests {
		out := filepath.Join(dir, "counts")
		var stderr bytes.Buffer
		args := append(tt.args, "ark,t:"+out)
		if code := cli.Execute(context.Background(), tool, args, &stderr, &stderr); code != cli.ExitOK {
			t.Fatalf("%s: exit = %d, stderr:\n%s", tt.name, code, stderr.String())
		}
		got, _ := os.ReadFile(out)
		if string(got) != tt.want {
			t.Errorf("%s: counts = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestGetPdfCountsNegativeLabel(t *testing.T) {
	dir := t.TempDir()
	ali := filepath.Join(dir, "ali")
	os.WriteFile(ali, []byte("u1 0 -1\n"), 0o644)
	var stderr bytes.Buffer
	code := cli.Execute(context.Background(), tool, []string{"ark:" + ali, "ark:" + filepath.Join(dir, "c")}, &stderr, &stderr)
	if code != cli.ExitFatal {
		t.Errorf("exit = %d, want %d", code, cli.ExitFatal)
	}
}

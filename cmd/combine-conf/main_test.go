package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ieee0824/asrtools/internal/cli"
)

func TestCombineConf(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"0.ali": "utt1 1 1 2\nutt2 3 3\n",
		"0.w":   "utt1 [ 0.9 0.8 0.6 ]\nutt2 [ 0.2 0.2 ]\n",
		"1.ali": "utt1 1 2 2\nutt2 4\n",
		"1.w":   "utt1 [ 0.95 0.7 0.9 ]\nutt2 [ 0.9 ]\n",
		"2.ali": "utt1 3 3 3\n",
		"2.w":   "utt1 [ 0.1 0.1 0.1 ]\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	p := func(name string) string { return "ark:" + filepath.Join(dir, name) }

	var stderr bytes.Buffer
	args := []string{p("0.ali"), p("0.w"), p("1.ali"), p("1.w"), p("2.ali"), p("2.w"), p("out.ali"), p("out.w")}
	code := cli.Execute(context.Background(), tool, args, &stderr, &stderr)
	// utt1 is clean; utt2 is written with a mismatch in system 1 and a missing
	// key in system 2, so failures outnumber clean successes.
	if code != cli.ExitFailed {
		t.Errorf("exit = %d, want %d", code, cli.ExitFailed)
	}

	ali, _ := os.ReadFile(filepath.Join(dir, "out.ali"))
	if want := "utt1 1 1 2\nutt2 3 3\n"; string(ali) != want {
		t.Errorf("alignments = %q, want %q", ali, want)
	}
	w, _ := os.ReadFile(filepath.Join(dir, "out.w"))
	if want := "utt1 [ 0.95 0.8 0.9 ]\nutt2 [ 0.2 0.2 ]\n"; string(w) != want {
		t.Errorf("weights = %q, want %q", w, want)
	}
}

func TestCombineConfHealthy(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"0.ali": "a 1\nb 1\nc 1\n",
		"0.w":   "a [ 0.5 ]\nb [ 0.5 ]\nc [ 0.5 ]\n",
		"1.ali": "a 2\nb 2\nc 2\n",
		"1.w":   "a [ 0.6 ]\nb [ 0.4 ]\nc [ 0.5 ]\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	p := func(name string) string { return "ark:" + filepath.Join(dir, name) }
	var stderr bytes.Buffer
	args := []string{p("0.ali"), p("0.w"), p("1.ali"), p("1.w"), p("out.ali"), p("out.w")}
	if code := cli.Execute(context.Background(), tool, args, &stderr, &stderr); code != cli.ExitOK {
		t.Fatalf("exit = %d, stderr:\n%s", code, stderr.String())
	}
	ali, _ := os.ReadFile(filepath.Join(dir, "out.ali"))
	if want := "a 2\nb 1\nc 1\n"; string(ali) != want {
		t.Errorf("alignments = %q, want %q", ali, want)
	}
}

func TestCombineConfUsage(t *testing.T) {
	for _, args := range [][]string{
		{"ark:a", "ark:b", "ark:c"},
		{"ark:a", "ark:b", "ark:c", "ark:d", "ark:e"},
	} {
		var stderr bytes.Buffer
		if code := cli.Execute(context.Background(), tool, args, &stderr, &stderr); code != cli.ExitUsage {
			t.Errorf("%d arguments: exit = %d, want %d", len(args), code, cli.ExitUsage)
		}
	}
}

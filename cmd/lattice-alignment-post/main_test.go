package main

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/ieee0824/asrtools/internal/cli"
	"github.com/ieee0824/asrtools/posterior"
	"github.com/ieee0824/asrtools/table"
)

const twoFrames = `0 1 1 10 1,1
0 1 2 20 1,2
1 2 3 0 0,1
1 2 4 0 0,2
2 3 0 0 0.5,0
3
`

func TestLatticeAlignmentPost(t *testing.T) {
	dir := t.TempDir()
	path := func(name string) string { return filepath.Join(dir, name) }
	// utt2 is empty, utt3 has no alignment
	os.WriteFile(path("lats"), []byte("utt1\n"+twoFrames+"\nutt2\n\nutt3\n"+twoFrames+"\n"), 0o644)
	os.WriteFile(path("ali"), []byte("utt1 2 3\nutt2 1\n"), 0o644)

	var stderr bytes.Buffer
	args := []string{"ark:" + path("lats"), "ark:" + path("ali"), "ark,t:" + path("post"), "ark,t:" + path("w"), "ark,t:" + path("avg")}
	if code := cli.Execute(context.Background(), tool, args, &stderr, &stderr); code != cli.ExitOK {
		t.Fatalf("exit = %d, stderr:\n%s", code, stderr.String())
	}
	p := 1 / (1 + math.Exp(-1))
	want := []posterior.Pair{{Label: 2, Weight: 1 - p}, {Label: 3, Weight: p}}

	r, err := posterior.OpenSequential("ark:" + path("post"))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	n := 0
	for r.Next() {
		n++
		post := r.Value()
		if r.Key() != "utt1" || len(post) != 2 {
			t.Fatalf("record %s = %v", r.Key(), post)
		}
		for i, frame := range post {
			if len(frame) != 1 || frame[0].Label != want[i].Label || math.Abs(frame[0].Weight-want[i].Weight) > 1e-6 {
				t.Errorf("frame %d = %v, want %+v", i, frame, want[i])
			}
		}
	}
	if err := r.Err(); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("wrote %d posteriors, want 1", n)
	}

	w, err := table.OpenFloatVectorRandomAccess("ark:" + path("w"))
	if err != nil {
		t.Fatal(err)
	}
	if v, err := w.Value("utt1"); err != nil || len(v) != 2 || math.Abs(v[1]-p) > 1e-6 {
		t.Errorf("weights = %v, %v", v, err)
	}
	got, _ := os.ReadFile(path("avg"))
	fields := strings.Fields(string(got))
	if len(fields) != 2 || fields[0] != "utt1" {
		t.Fatalf("avg = %q", got)
	}
	if avg, err := strconv.ParseFloat(fields[1], 64); err != nil || math.Abs(avg-0.5) > 1e-9 {
		t.Errorf("average = %s, want 0.5", fields[1])
	}
	if !strings.Contains(stderr.String(), "done 1 lattices, missing alignments for 1, other errors on 1") {
		t.Errorf("summary missing from stderr:\n%s", stderr.String())
	}
}

func TestLatticeAlignmentPostErrors(t *testing.T) {
	dir := t.TempDir()
	path := func(name string) string { return filepath.Join(dir, name) }
	os.WriteFile(path("lats"), []byte("utt1\n"+twoFrames+"\n"), 0o644)
	os.WriteFile(path("short"), []byte("utt1 2\n"), 0o644)
	os.WriteFile(path("other"), []byte("utt9 2 3\n"), 0o644)
	os.WriteFile(path("cyclic"), []byte("utt1\n0 1 1 0\n1 0 1 0\n1\n\n"), 0o644)
	out := "ark:" + path("post")

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"length mismatch", []string{"ark:" + path("lats"), "ark:" + path("short"), out}, cli.ExitFatal},
		{"no alignments", []string{"ark:" + path("lats"), "ark:" + path("other"), out}, cli.ExitFailed},
		{"cycle", []string{"ark:" + path("cyclic"), "ark:" + path("other"), out}, cli.ExitFatal},
		{"zero acoustic scale", []string{"--acoustic-scale=0", "ark:" + path("lats"), "ark:" + path("other"), out}, cli.ExitUsage},
	}
	for _, tt := range tests {
		var stderr bytes.Buffer
		if code := cli.Execute(context.Background(), tool, tt.args, &stderr, &stderr); code != tt.want {
			t.Errorf("%s: exit = %d, want %d (stderr %s)", tt.name, code, tt.want, stderr.String())
		}
	}
}

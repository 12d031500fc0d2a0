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
	"github.com/ieee0824/asrtools/table"
)

// utt1 has two frames with labels 1|2 then 3|4; utt2 never reaches a final
// state; utt3 is empty.
const lats = `utt1
0 1 1 10 1,1
0 1 2 20 1,2
1 2 3 0 0,1
1 2 4 0 0,2
2 3 0 0 0.5,0
3

utt2
0 1 1 0 0,0

utt3

`

var bestPost = 1 / (1 + math.Exp(-1))

func TestLatticeBestPathPost(t *testing.T) {
	dir := t.TempDir()
	path := func(name string) string { return filepath.Join(dir, name) }
	os.WriteFile(path("lats"), []byte(lats), 0o644)

	var stderr bytes.Buffer
	args := []string{"ark:" + path("lats"), "ark,t:" + path("ali"), "ark,t:" + path("w")}
	if code := cli.Execute(context.Background(), tool, args, &stderr, &stderr); code != cli.ExitOK {
		t.Fatalf("exit = %d, stderr:\n%s", code, stderr.String())
	}
	if got, _ := os.ReadFile(path("ali")); string(got) != "utt1 1 3\n" {
		t.Errorf("ali = %q, want %q", got, "utt1 1 3\n")
	}
	w, err := table.OpenFloatVectorRandomAccess("ark:" + path("w"))
	if err != nil {
		t.Fatal(err)
	}
	if w.Len() != 1 {
		t.Errorf("%d weight records, want 1", w.Len())
	}
	v, err := w.Value("utt1")
	if err != nil || len(v) != 2 {
		t.Fatalf("weights = %v, %v", v, err)
	}
	for i, x := range v {
		if math.Abs(x-bestPost) > 1e-6 {
			t.Errorf("weight[%d] = %f, want %f", i, x, bestPost)
		}
	}
	if !strings.Contains(stderr.String(), "done 1 lattices, failed for 2") {
		t.Errorf("summary missing from stderr:\n%s", stderr.String())
	}
}

func TestLatticeBestPathPostAverage(t *testing.T) {
	dir := t.TempDir()
	path := func(name string) string { return filepath.Join(dir, name) }
	os.WriteFile(path("lats"), []byte(lats), 0o644)

	var stderr bytes.Buffer
	args := []string{"--get-average-post", "--acoustic-scale=1", "ark:" + path("lats"), "ark:" + path("ali"), "ark,t:" + path("avg")}
	if code := cli.Execute(context.Background(), tool, args, &stderr, &stderr); code != cli.ExitOK {
		t.Fatalf("exit = %d, stderr:\n%s", code, stderr.String())
	}
	got, _ := os.ReadFile(path("avg"))
	fields := strings.Fields(string(got))
	if len(fields) != 2 || fields[0] != "utt1" {
		t.Fatalf("avg = %q", got)
	}
	if avg, err := strconv.ParseFloat(fields[1], 64); err != nil || math.Abs(avg-bestPost) > 1e-6 {
		t.Errorf("average = %s, want %f", fields[1], bestPost)
	}
}

func TestLatticeBestPathPostErrors(t *testing.T) {
	dir := t.TempDir()
	path := func(name string) string { return filepath.Join(dir, name) }
	os.WriteFile(path("lats"), []byte(lats), 0o644)
	os.WriteFile(path("cyclic"), []byte("c1\n0 1 1 0\n1 0 1 0\n1\n\n"), 0o644)
	os.WriteFile(path("nopath"), []byte("utt2\n0 1 1 0 0,0\n\n"), 0o644)
	out := []string{"ark:" + path("ali"), "ark:" + path("w")}

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"zero acoustic scale", append([]string{"--acoustic-scale=0", "ark:" + path("lats")}, out...), cli.ExitUsage},
		{"cycle", append([]string{"ark:" + path("cyclic")}, out...), cli.ExitFatal},
		{"no successful lattice", append([]string{"ark:" + path("nopath")}, out...), cli.ExitFailed},
		{"missing weights wspecifier", []string{"ark:" + path("lats"), out[0]}, cli.ExitUsage},
	}
	for _, tt := range tests {
		var stderr bytes.Buffer
		if code := cli.Execute(context.Background(), tool, tt.args, &stderr, &stderr); code != tt.want {
			t.Errorf("%s: exit = %d, want %d (stderr %s)", tt.name, code, tt.want, stderr.String())
		}
	}
}

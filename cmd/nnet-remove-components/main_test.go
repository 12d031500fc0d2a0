package main

import (
	"bytes"
	"context"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/ieee0824/asrtools/acoustic"
	"github.com/ieee0824/asrtools/internal/cli"
)

func TestNnetRemoveComponents(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "raw.nnet")
	// 3 -> 4 -> 4 -> 6
	if err := acoustic.WriteDNN(in, true, acoustic.NewDNN(1, 4, 6, 1, 2, true, rand.New(rand.NewSource(1)))); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		opts    []string
		layers  int
		in, out int
	}{
		{"copy", nil, 3, 3, 6},
		{"last", []string{"--remove-last-layers=1"}, 2, 3, 4},
		{"first", []string{"--remove-first-layers=1"}, 2, 4, 6},
		{"both", []string{"--remove-first-layers=1", "--remove-last-layers=1"}, 1, 4, 4},
	}
	for _, tt := range tests {
		out := filepath.Join(dir, "out.nnet")
		var stderr bytes.Buffer
		args := append(append([]string{"--binary=false"}, tt.opts...), in, out)
		if code := cli.Execute(context.Background(), tool, args, &stderr, &stderr); code != cli.ExitOK {
			t.Fatalf("%s: exit = %d, stderr:\n%s", tt.name, code, stderr.String())
		}
		d, err := acoustic.ReadDNN(out)
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if len(d.Layers) != tt.layers || d.InputDim() != tt.in || d.OutputDim() != tt.out {
			t.Errorf("%s: %d layers %d -> %d, want %d layers %d -> %d", tt.name, len(d.Layers), d.InputDim(), d.OutputDim(), tt.layers, tt.in, tt.out)
		}
	}

	var stderr bytes.Buffer
	code := cli.Execute(context.Background(), tool, []string{"--remove-first-layers=2", "--remove-last-layers=1", in, filepath.Join(dir, "x")}, &stderr, &stderr)
	if code != cli.ExitUsage {
		t.Errorf("removing every layer: exit = %d, want %d", code, cli.ExitUsage)
	}
}

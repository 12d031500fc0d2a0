package main

import (
	"bytes"
	"context"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/ieee0824/asrtools/acoustic"
	"github.com/ieee0824/asrtools/internal/cli"
)

func writeAmNnet(t *testing.T, dir string) string {
	t.Helper()
	tm, err := acoustic.NewTransitionModel([][]int{{0, 1, 2}, {3, 4, 5}})
	if err != nil {
		t.Fatal(err)
	}
	am := &acoustic.AmNnet{Trans: tm, Nnet: acoustic.NewDNN(2, 4, 6, 1, 1, false, rand.New(rand.NewSource(1)))}
	path := filepath.Join(dir, "1.nnet")
	if err := am.Write(path, true); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNnetAmSetPriors(t *testing.T) {
	dir := t.TempDir()
	nnet := writeAmNnet(t, dir)
	counts := filepath.Join(dir, "counts")
	os.WriteFile(counts, []byte("[ 1 1 2 0 0 0 ]\n"), 0o644)
	out := filepath.Join(dir, "2.nnet")

	var stderr bytes.Buffer
	code := cli.Execute(context.Background(), tool, []string{"--prior-floor=0.1", nnet, counts, out}, &stderr, &stderr)
	if code != cli.ExitOK {
		t.Fatalf("exit = %d, stderr:\n%s", code, stderr.String())
	}
	am, err := acoustic.ReadAmNnet(out)
	if err != nil {
		t.Fatal(err)
	}
	// 0.25 0.25 0.5, then three floored entries of 0.1
	want := []float64{0.25 / 1.3, 0.25 / 1.3, 0.5 / 1.3, 0.1 / 1.3, 0.1 / 1.3, 0.1 / 1.3}
	for i, w := range want {
		if got := math.Exp(am.Nnet.LogPrior[i]); math.Abs(got-w) > 1e-9 {
			t.Errorf("prior[%d] = %f, want %f", i, got, w)
		}
	}
}

func TestNnetAmSetPriorsErrors(t *testing.T) {
	dir := t.TempDir()
	nnet := writeAmNnet(t, dir)
	short := filepath.Join(dir, "short")
	zero := filepath.Join(dir, "zero")
	os.WriteFile(short, []byte("[ 1 2 ]\n"), 0o644)
	os.WriteFile(zero, []byte("[ 0 0 0 0 0 0 ]\n"), 0o644)
	out := filepath.Join(dir, "2.nnet")

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"floor of one", []string{"--prior-floor=1", nnet, short, out}, cli.ExitUsage},
		{"wrong dimension", []string{nnet, short, out}, cli.ExitFatal},
		{"zero counts", []string{nnet, zero, out}, cli.ExitFatal},
	}
	for _, tt := range tests {
		var stderr bytes.Buffer
		if code := cli.Execute(context.Background(), tool, tt.args, &stderr, &stderr); code != tt.want {
			t.Errorf("%s: exit = %d, want %d", tt.name, code, tt.want)
		}
	}
}

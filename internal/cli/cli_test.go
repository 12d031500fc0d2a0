package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func echoTool(run func(env *Env, args []string) error) Tool {
	return Tool{
		Name:  "echo-tool",
		Short: "test tool",
		Usage: "<a> <b>",
		Args:  ArgsBetween(2, 2),
		Flags: func(fs *pflag.FlagSet) {
			fs.Int("scale", 1, "scale")
			fs.String("write-counts", "", "output")
		},
		Run: func(_ context.Context, env *Env, args []string) error {
			return run(env, args)
		},
	}
}

func TestExecuteExitStatus(t *testing.T) {
	tests := []struct {
		name string
		args []string
		err  error
		want int
	}{
		{"ok", []string{"a", "b"}, nil, ExitOK},
		{"too few args", []string{"a"}, nil, ExitUsage},
		{"unknown flag", []string{"--nope", "a", "b"}, nil, ExitUsage},
		{"failed", []string{"a", "b"}, Failedf("nothing written"), ExitFailed},
		{"usage from run", []string{"a", "b"}, Usagef("bad option"), ExitUsage},
		{"fatal", []string{"a", "b"}, os.ErrClosed, ExitFatal},
		{"bad log format", []string{"--log-format=xml", "a", "b"}, nil, ExitUsage},
	}
	for _, tt := range tests {
		var stdout, stderr bytes.Buffer
		tool := echoTool(func(*Env, []string) error { return tt.err })
		if got := Execute(context.Background(), tool, tt.args, &stdout, &stderr); got != tt.want {
			t.Errorf("%s: exit = %d, want %d (stderr %q)", tt.name, got, tt.want, stderr.String())
		}
	}
}

func TestOptionPrecedence(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "opts.yaml")
	if err := os.WriteFile(cfg, []byte("scale: 3\nwrite-counts: from-file\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ASRTOOLS_WRITE_COUNTS", "from-env")

	var scale int
	var counts string
	tool := echoTool(func(env *Env, _ []string) error {
		scale = env.Config.GetInt("scale")
		counts = env.Config.GetString("write-counts")
		return nil
	})

	var stderr bytes.Buffer
	if code := Execute(context.Background(), tool, []string{"--config", cfg, "a", "b"}, &stderr, &stderr); code != ExitOK {
		t.Fatalf("exit = %d: %s", code, stderr.String())
	}
	if scale != 3 {
		t.Errorf("scale = %d, want 3 from config file", scale)
	}
	if counts != "from-env" {
		t.Errorf("write-counts = %q, want environment to beat config file", counts)
	}

	if code := Execute(context.Background(), tool, []string{"--config", cfg, "--write-counts=flag", "--scale=5", "a", "b"}, &stderr, &stderr); code != ExitOK {
		t.Fatalf("exit = %d: %s", code, stderr.String())
	}
	if scale != 5 || counts != "flag" {
		t.Errorf("scale, write-counts = %d, %q; want flag values", scale, counts)
	}
}

func TestWarningsGoToStderr(t *testing.T) {
	tool := echoTool(func(env *Env, _ []string) error {
		env.Log.WithField("key", "utt1").Warn("no data")
		return nil
	})
	var stdout, stderr bytes.Buffer
	Execute(context.Background(), tool, []string{"a", "b"}, &stdout, &stderr)
	if stdout.Len() != 0 {
		t.Errorf("stdout = %q, want empty", stdout.String())
	}
	if !strings.Contains(stderr.String(), "key=utt1") {
		t.Errorf("stderr = %q, want key field", stderr.String())
	}
}

func TestArgValidators(t *testing.T) {
	tests := []struct {
		name string
		n    int
		ok   bool
	}{
		{"odd 3", 3, true},
		{"odd 5", 5, true},
		{"odd 4", 4, false},
		{"odd 1", 1, false},
	}
	for _, tt := range tests {
		err := ArgsOdd(3)(nil, make([]string, tt.n))
		if (err == nil) != tt.ok {
			t.Errorf("ArgsOdd(3) with %s: err = %v", tt.name, err)
		}
	}
	if ArgsEven(4)(nil, make([]string, 4)) != nil {
		t.Error("ArgsEven(4) rejected 4 arguments")
	}
	if ArgsEven(4)(nil, make([]string, 2)) == nil {
		t.Error("ArgsEven(4) accepted 2 arguments")
	}
	if ArgsEven(4)(nil, make([]string, 5)) == nil {
		t.Error("ArgsEven(4) accepted 5 arguments")
	}
}

func TestParseIntList(t *testing.T) {
	got, err := ParseIntList("5:1:3")
	if err != nil || len(got) != 3 || got[0] != 1 || got[2] != 5 {
		t.Errorf("ParseIntList = %v, %v", got, err)
	}
	if _, err := ParseIntList("1:1"); err == nil {
		t.Error("duplicate entries should fail")
	}
	if got, err := ParseIntList(""); err != nil || got != nil {
		t.Errorf("ParseIntList(\"\") = %v, %v", got, err)
	}
}

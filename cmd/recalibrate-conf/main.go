package main

import (
	"context"

	"github.com/spf13/pflag"

	"github.com/ieee0824/asrtools/confidence"
	"github.com/ieee0824/asrtools/internal/cli"
	"github.com/ieee0824/asrtools/table"
)

var tool = cli.Tool{
	Name:  "recalibrate-conf",
	Short: "Recalibrate best-path confidences of one system using other systems",
	Long: `Recalibrate the best path confidence scores of a system using the best path
and corresponding confidences from other systems. It makes sense only when the
alignments are pdf alignments of the same model and tree.`,
	Usage:   "ali-rspecifier0 weight-rspecifier0 [ali-rspecifier1 weight-rspecifier1 ...] weight-wspecifier",
	Example: "  recalibrate-conf ark:0.1.best_path_ali ark:0.1.weights ark:1.1.best_path_ali ark:1.1.weights ark:0.1.recalibrated_weights",
	Args:    cli.ArgsOdd(3),
	Flags: func(fs *pflag.FlagSet) {
		fs.Int("primary-system", 0, "index of the primary system")
	},
	Run: run,
}

func run(ctx context.Context, env *cli.Env, args []string) error {
	numSystems := (len(args) - 1) / 2
	primary := env.Config.GetInt("primary-system")
	if primary < 0 || primary >= numSystems {
		return cli.Usagef("--primary-system=%d out of range for %d systems", primary, numSystems)
	}

	out, err := table.OpenFloatVectorWriter(args[len(args)-1])
	if err != nil {
		return err
	}
	defer out.Close()
	in, err := confidence.OpenInputs(args[:len(args)-1])
	if err != nil {
		return err
	}
	defer in.Close()

	r := &confidence.Recalibrator{Inputs: *in, Primary: primary, Out: out, Log: env.Log}
	st, err := r.Run(ctx)
	if err != nil {
		return err
	}
	st.Log(env.Log, numSystems)
	if err := out.Close(); err != nil {
		return err
	}
	if !st.Healthy() {
		return cli.Failedf("%d of %d utterances written, %d missing, %d mismatched",
			st.Succeeded, st.Utterances, st.Missing, st.Mismatched)
	}
	return nil
}

func main() {
	cli.Main(tool)
}

package main

import (
	"context"

	"github.com/ieee0824/asrtools/confidence"
	"github.com/ieee0824/asrtools/internal/cli"
	"github.com/ieee0824/asrtools/table"
)

var tool = cli.Tool{
	Name:  "combine-conf",
	Short: "Pick the most confident label per frame across systems",
	Long: `Combine the best paths of several systems: for every frame keep the label and
confidence of the system with the highest confidence, system 0 first on ties.
Secondary systems without usable data for an utterance are left out of it.`,
	Usage:   "ali-rspecifier0 weight-rspecifier0 [ali-rspecifier1 weight-rspecifier1 ...] ali-wspecifier weight-wspecifier",
	Example: "  combine-conf ark:0.1.best_path_ali ark:0.1.weights ark:1.1.best_path_ali ark:1.1.weights ark:combined.ali ark:combined.weights",
	Args:    cli.ArgsEven(4),
	Run:     run,
}

func run(ctx context.Context, env *cli.Env, args []string) error {
	numSystems := (len(args) - 2) / 2

	aliOut, err := table.OpenInt32VectorWriter(args[len(args)-2])
	if err != nil {
		return err
	}
	defer aliOut.Close()
	weightOut, err := table.OpenFloatVectorWriter(args[len(args)-1])
	if err != nil {
		return err
	}
	defer weightOut.Close()
	in, err := confidence.OpenInputs(args[:len(args)-2])
	if err != nil {
		return err
	}
	defer in.Close()

	c := &confidence.Combiner{Inputs: *in, AliOut: aliOut, Out: weightOut, Log: env.Log}
	st, err := c.Run(ctx)
	if err != nil {
		return err
	}
	st.Log(env.Log, numSystems)
	if err := aliOut.Close(); err != nil {
		return err
	}
	if err := weightOut.Close(); err != nil {
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

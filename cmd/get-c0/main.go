package main

import (
	"context"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/ieee0824/asrtools/internal/cli"
	"github.com/ieee0824/asrtools/table"
)

var tool = cli.Tool{
	Name:    "get-c0",
	Short:   "Extract the first feature dimension (c0) of each feature matrix",
	Usage:   "feats-rspecifier c0-wspecifier [avg-c0-wspecifier]",
	Example: "  get-c0 ark:feats.ark ark,t:c0.ark ark,t:avg_c0.ark",
	Args:    cli.ArgsBetween(2, 3),
	Run:     run,
}

func run(ctx context.Context, env *cli.Env, args []string) error {
	feats, err := table.OpenMatrixSequential(args[0])
	if err != nil {
		return err
	}
	defer feats.Close()
	c0Out, err := table.OpenFloatVectorWriter(args[1])
	if err != nil {
		return err
	}
	defer c0Out.Close()
	avgOut, err := table.OpenFloatWriter(cli.Arg(args, 2))
	if err != nil {
		return err
	}
	defer avgOut.Close()

	n := 0
	for feats.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		key, m := feats.Key(), feats.Value()
		c0 := make([]float64, len(m))
		for i, row := range m {
			if len(row) == 0 {
				return errors.Errorf("%s: matrix %s has no columns", args[0], key)
			}
			c0[i] = row[0]
		}
		if err := c0Out.Write(key, c0); err != nil {
			return err
		}
		if len(c0) > 0 {
			if err := avgOut.Write(key, floats.Sum(c0)/float64(len(c0))); err != nil {
				return err
			}
		} else if avgOut.IsOpen() {
			env.Log.WithField("key", key).Warn("empty feature matrix, no average written")
		}
		n++
	}
	if err := feats.Err(); err != nil {
		return err
	}
	env.Log.Infof("got c0 from %d feature matrices", n)
	if err := c0Out.Close(); err != nil {
		return err
	}
	if err := avgOut.Close(); err != nil {
		return err
	}
	if n == 0 {
		return cli.Failedf("no feature matrices read")
	}
	return nil
}

func main() {
	cli.Main(tool)
}

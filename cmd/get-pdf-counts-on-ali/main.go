package main

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/ieee0824/asrtools/alignment"
	"github.com/ieee0824/asrtools/internal/cli"
	"github.com/ieee0824/asrtools/table"
)

var tool = cli.Tool{
	Name:    "get-pdf-counts-on-ali",
	Short:   "Count frames per pdf in a pdf alignment",
	Usage:   "ali-rspecifier [weights-rspecifier] counts-wspecifier",
	Example: "  get-pdf-counts-on-ali ark:1.ali ark:1.weights ark:1.counts",
	Args:    cli.ArgsBetween(2, 3),
	Flags: func(fs *pflag.FlagSet) {
		fs.Float64("weight-threshold", 0, "count only frames whose weight is above this (used with weights)")
	},
	Run: run,
}

func run(ctx context.Context, env *cli.Env, args []string) error {
	aliSpec, countsSpec := args[0], args[len(args)-1]
	var weights *table.RandomAccessReader[[]float64]
	if len(args) == 3 {
		var err error
		if weights, err = table.OpenFloatVectorRandomAccess(args[1]); err != nil {
			return err
		}
	}
	alis, err := table.OpenInt32VectorSequential(aliSpec)
	if err != nil {
		return err
	}
	defer alis.Close()
	out, err := table.OpenInt32VectorWriter(countsSpec)
	if err != nil {
		return err
	}
	defer out.Close()

	c := alignment.Counter{Threshold: env.Config.GetFloat64("weight-threshold")}
	n := 0
	for alis.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		key, ali := alis.Key(), alis.Value()
		var w []float64
		if weights != nil && weights.HasKey(key) {
			w, _ = weights.Value(key)
			if len(w) != len(ali) {
				env.Log.WithFields(logrus.Fields{"key": key, "dim": len(w), "frames": len(ali)}).
					Warn("weight vector length mismatch, using weight 1")
				w = nil
			}
		}
		if err := c.Add(ali, w); err != nil {
			return errors.Wrapf(err, "%s: utterance %s", aliSpec, key)
		}
		n++
	}
	if err := alis.Err(); err != nil {
		return err
	}
	env.Log.WithField("utterances", n).Infof("counted %d pdfs", len(c.Counts))
	if err := out.Write("Counts", c.Counts); err != nil {
		return err
	}
	return out.Close()
}

func main() {
	cli.Main(tool)
}

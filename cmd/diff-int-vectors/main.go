package main

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/ieee0824/asrtools/alignment"
	"github.com/ieee0824/asrtools/internal/cli"
	"github.com/ieee0824/asrtools/table"
)

var tool = cli.Tool{
	Name:    "diff-int-vectors",
	Short:   "Fraction of equal entries in two integer vectors (e.g. alignments)",
	Usage:   "vector-rspecifier1 vector-rspecifier2 float-wspecifier",
	Example: "  diff-int-vectors ark:1.ali ark:1.ref ark,t:-",
	Args:    cli.ArgsBetween(3, 3),
	Run:     run,
}

func run(ctx context.Context, env *cli.Env, args []string) error {
	r1, err := table.OpenInt32VectorSequential(args[0])
	if err != nil {
		return err
	}
	defer r1.Close()
	r2, err := table.OpenInt32VectorRandomAccess(args[1])
	if err != nil {
		return err
	}
	w, err := table.OpenFloatWriter(args[2])
	if err != nil {
		return err
	}
	defer w.Close()

	var done, missing, mismatch int
	for r1.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		done++
		key := r1.Key()
		v2, err := r2.Value(key)
		if err != nil {
			missing++
			env.Log.WithField("key", key).Debug("missing in second archive")
			continue
		}
		score, err := alignment.Agreement(r1.Value(), v2)
		if err != nil {
			mismatch++
			env.Log.WithField("key", key).Debug(err)
			continue
		}
		if err := w.Write(key, score); err != nil {
			return err
		}
	}
	if err := r1.Err(); err != nil {
		return err
	}
	env.Log.WithFields(logrus.Fields{"vectors": done, "missing": missing, "mismatched": mismatch}).Info("diffed vectors")
	if err := w.Close(); err != nil {
		return err
	}
	if done == 0 {
		return cli.Failedf("no vectors read")
	}
	return nil
}

func main() {
	cli.Main(tool)
}

package main

import (
	"context"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/ieee0824/asrtools/internal/cli"
	"github.com/ieee0824/asrtools/posterior"
	"github.com/ieee0824/asrtools/table"
)

var tool = cli.Tool{
	Name:  "pdf-post-to-align-pdf-post",
	Short: "Posterior of each aligned pdf",
	Long: `Gets the pdf-level posteriors for the given pdf-level alignments, optionally
also as a weight vector and as the average posterior of each utterance.`,
	Usage:   "pdf-post-rspecifier pdf-ali-rspecifier post-wspecifier [weights-wspecifier [avg-weights-wspecifier]]",
	Example: "  pdf-post-to-align-pdf-post ark:1.post ark:1.ali ark:1.align_post ark:/dev/null ark:1.avg_weights",
	Args:    cli.ArgsBetween(3, 5),
	Run:     run,
}

func run(ctx context.Context, env *cli.Env, args []string) error {
	posts, err := posterior.OpenSequential(args[0])
	if err != nil {
		return err
	}
	defer posts.Close()
	alis, err := table.OpenInt32VectorRandomAccess(args[1])
	if err != nil {
		return err
	}
	postOut, err := posterior.OpenWriter(args[2])
	if err != nil {
		return err
	}
	defer postOut.Close()
	weightOut, err := table.OpenFloatVectorWriter(cli.Arg(args, 3))
	if err != nil {
		return err
	}
	defer weightOut.Close()
	avgOut, err := table.OpenFloatWriter(cli.Arg(args, 4))
	if err != nil {
		return err
	}
	defer avgOut.Close()

	var done, noAli, zeroPost int
	for posts.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		key := posts.Key()
		if !alis.HasKey(key) {
			env.Log.WithField("key", key).Warn("no alignment for utterance")
			noAli++
			continue
		}
		ali, _ := alis.Value(key)
		weights, zeros, err := posterior.OfAlignment(posts.Value(), ali)
		if err != nil {
			return errors.Wrapf(err, "utterance %s", key)
		}
		if zeros == len(ali) {
			env.Log.WithField("key", key).Warn("zero posterior for all frames")
			zeroPost++
		}
		if err := postOut.Write(key, posterior.FromAlignment(ali, weights)); err != nil {
			return err
		}
		if err := weightOut.Write(key, weights); err != nil {
			return err
		}
		avg := 0.0
		if len(weights) > 0 {
			avg = floats.Sum(weights) / float64(len(weights))
		}
		if err := avgOut.Write(key, avg); err != nil {
			return err
		}
		done++
	}
	if err := posts.Err(); err != nil {
		return err
	}
	env.Log.Infof("done %d posteriors, missing alignments for %d, other errors on %d", done, noAli, zeroPost)
	for _, w := range []interface{ Close() error }{postOut, weightOut, avgOut} {
		if err := w.Close(); err != nil {
			return err
		}
	}
	if done == 0 {
		return cli.Failedf("nothing written")
	}
	return nil
}

func main() {
	cli.Main(tool)
}

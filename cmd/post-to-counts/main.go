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
	Name:  "post-to-counts",
	Short: "Sum pdf posteriors into soft counts per pdf",
	Long: `Reads posteriors over pdfs and writes the soft count of each pdf index as a
single vector.`,
	Usage:   "post-rspecifier counts-wxfilename",
	Example: "  post-to-counts ark:1.pdf_post counts.txt",
	Args:    cli.ArgsBetween(2, 2),
	Run:     run,
}

func run(ctx context.Context, env *cli.Env, args []string) error {
	posts, err := posterior.OpenSequential(args[0])
	if err != nil {
		return err
	}
	defer posts.Close()

	var counts []float64
	n := 0
	for posts.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if counts, err = posterior.AddCounts(counts, posts.Value()); err != nil {
			return errors.Wrapf(err, "utterance %s", posts.Key())
		}
		n++
	}
	if err := posts.Err(); err != nil {
		return err
	}
	if err := table.WriteVector(args[1], counts); err != nil {
		return err
	}
	env.Log.Infof("summed %d posteriors to soft counts, total count is %g, dim is %d",
		n, floats.Sum(counts), len(counts))
	if n == 0 {
		return cli.Failedf("no posteriors read")
	}
	return nil
}

func main() {
	cli.Main(tool)
}

package main

import (
	"context"

	"github.com/ieee0824/asrtools/internal/cli"
	"github.com/ieee0824/asrtools/posterior"
	"github.com/ieee0824/asrtools/table"
)

var tool = cli.Tool{
	Name:  "post-decode",
	Short: "Decode posteriors to the most probable label per frame",
	Long: `Posterior decoding: for each frame pick the label with the highest posterior
and write the result as an alignment, optionally with the posterior of each
chosen label as a weight vector.`,
	Usage:   "post-rspecifier ali-wspecifier [weights-wspecifier]",
	Example: "  post-decode ark:1.post ark:1.ali",
	Args:    cli.ArgsBetween(2, 3),
	Run:     run,
}

func run(ctx context.Context, env *cli.Env, args []string) error {
	posts, err := posterior.OpenSequential(args[0])
	if err != nil {
		return err
	}
	defer posts.Close()
	aliOut, err := table.OpenInt32VectorWriter(args[1])
	if err != nil {
		return err
	}
	defer aliOut.Close()
	weightOut, err := table.OpenFloatVectorWriter(cli.Arg(args, 2))
	if err != nil {
		return err
	}
	defer weightOut.Close()

	done, failed := 0, 0
	for posts.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		key := posts.Key()
		ali, weights, err := posterior.Argmax(posts.Value())
		if err != nil {
			env.Log.WithField("key", key).Warn(err)
			failed++
			continue
		}
		if err := aliOut.Write(key, ali); err != nil {
			return err
		}
		if err := weightOut.Write(key, weights); err != nil {
			return err
		}
		done++
	}
	if err := posts.Err(); err != nil {
		return err
	}
	env.Log.Infof("done %d posteriors, %d failed", done, failed)
	if err := aliOut.Close(); err != nil {
		return err
	}
	if err := weightOut.Close(); err != nil {
		return err
	}
	if done == 0 {
		return cli.Failedf("nothing decoded")
	}
	return nil
}

func main() {
	cli.Main(tool)
}

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"maxflow/pkg/cache"
)

func newCacheCmd() *cobra.Command {
	opts := cache.DefaultOptions()
	opts.Backend = cache.BackendRedis

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or flush the solver-svc result cache",
		Long: `Cache connects to the result cache shared by solver-svc replicas.

  flowctl cache stats
  flowctl cache flush          # every cached solve
  flowctl cache flush FILE     # cached solves of one DIMACS network`,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.Backend, "driver", opts.Backend, "cache backend: redis or memory")
	pf.StringVar(&opts.RedisAddr, "addr", opts.RedisAddr, "redis address")
	pf.StringVar(&opts.RedisPassword, "password", "", "redis password")
	pf.IntVar(&opts.RedisDB, "db", 0, "redis database")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "stats",
			Short: "Print cache statistics",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withSolverCache(cmd.Context(), opts, func(sc *cache.SolverCache) error {
					return printCacheStats(cmd.Context(), cmd.OutOrStdout(), sc)
				})
			},
		},
		&cobra.Command{
			Use:   "flush [FILE]",
			Short: "Remove cached solves",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withSolverCache(cmd.Context(), opts, func(sc *cache.SolverCache) error {
					return flushCache(cmd.Context(), cmd.OutOrStdout(), sc, args)
				})
			},
		},
	)
	return cmd
}

func withSolverCache(ctx context.Context, opts *cache.Options, fn func(*cache.SolverCache) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	c, err := cache.New(ctx, opts)
	if err != nil {
		return err
	}
	sc := cache.NewSolverCache(c, opts.DefaultTTL)
	defer sc.Close()
	return fn(sc)
}

func printCacheStats(ctx context.Context, out io.Writer, sc *cache.SolverCache) error {
	st, err := sc.Stats(ctx)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "backend %s\nkeys %d\nhits %d\nmisses %d\nhit_rate %.3f\nmemory_bytes %d\n",
		st.Backend, st.TotalKeys, st.Hits, st.Misses, st.HitRate, st.MemoryBytes)
	return err
}

func flushCache(ctx context.Context, out io.Writer, sc *cache.SolverCache, args []string) error {
	var (
		n   int64
		err error
	)
	if len(args) == 0 {
		n, err = sc.InvalidateAll(ctx)
	} else {
		p, perr := readProblem(args[0])
		if perr != nil {
			return perr
		}
		n, err = sc.Invalidate(ctx, toNetwork(p))
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "removed %d\n", n)
	return err
}

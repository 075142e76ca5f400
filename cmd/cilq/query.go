package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/repr"
	"github.com/samber/oops"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cici0602/cilq/cil"
	"github.com/cici0602/cilq/cilcfg"
	"github.com/cici0602/cilq/index"
	"github.com/cici0602/cilq/metrics"
	"github.com/cici0602/cilq/query"
	"github.com/cici0602/cilq/sexpr"
	"github.com/cici0602/cilq/store"
)

type queryFlags struct {
	fromAllKnown bool
	resolveattr  string
	attr         string
	ruleKind     string
	sources      []string
	targets      []string
	notSources   []string
	notTargets   []string
	class        string
	perms        []string
	from         string
}

var qf queryFlags

func addQueryFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&qf.fromAllKnown, "from-all-known", false, "run --from against every file already in the store instead of one path")
	cmd.Flags().StringVar(&qf.resolveattr, "resolveattr", "", "resolve a type or attribute to its attribute closure")
	cmd.Flags().StringVar(&qf.attr, "attr", "", "list the typeattributeset records for an attribute")
	cmd.Flags().StringVar(&qf.ruleKind, "type", "", "restrict TE search to one of the eight rule kinds (allow, neverallow, ...)")
	cmd.Flags().StringSliceVar(&qf.sources, "source", nil, "source type/attribute to match (repeatable)")
	cmd.Flags().StringSliceVar(&qf.targets, "target", nil, "target type/attribute to match (repeatable)")
	cmd.Flags().StringSliceVar(&qf.notSources, "not-source", nil, "exclude this source type/attribute (repeatable)")
	cmd.Flags().StringSliceVar(&qf.notTargets, "not-target", nil, "exclude this target type/attribute (repeatable)")
	cmd.Flags().StringVar(&qf.class, "class", "", "object class to match")
	cmd.Flags().StringSliceVar(&qf.perms, "perms", nil, "permissions to check for (repeatable)")
	cmd.Flags().StringVar(&qf.from, "from", "", "compare a candidate CIL file's rules against the store")
}

func runQuery(cmd *cobra.Command, log *logrus.Logger, cfg cilcfg.Config, files []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	for _, f := range files {
		if err := refreshFile(ctx, st, log, f); err != nil {
			return err
		}
	}

	tasSeq, err := st.QueryTAS(ctx, store.Filter{})
	if err != nil {
		return err
	}
	idx := index.Build(tasSeq)
	engine := query.New(st, idx)

	switch {
	case qf.resolveattr != "":
		resolved := engine.ResolveAttr(qf.resolveattr)
		metrics.QueryResults.WithLabelValues("resolveattr").Observe(float64(len(resolved)))
		for _, m := range resolved {
			fmt.Println(m)
		}

	case qf.attr != "":
		recs, err := engine.SearchTAS(ctx, qf.attr)
		if err != nil {
			return err
		}
		metrics.QueryResults.WithLabelValues("attr").Observe(float64(len(recs)))
		for _, r := range recs {
			fmt.Printf("%s:%s\n", r.File, r.String)
		}

	case qf.from != "" || qf.fromAllKnown:
		if err := runFromDiff(ctx, engine, st); err != nil {
			return err
		}

	default:
		results, err := engine.SearchTE(ctx, query.TEParams{
			Sources: qf.sources, Targets: qf.targets,
			NotSources: qf.notSources, NotTargets: qf.notTargets,
			Class: qf.class, RuleKind: qf.ruleKind, Perms: qf.perms,
		})
		if err != nil {
			return err
		}
		metrics.QueryResults.WithLabelValues("te").Observe(float64(len(results)))
		for _, r := range results {
			fmt.Printf("%s:%s\n", r.Rule.File, r.Rule.String)
		}
	}

	if qf.metricsRequested(cmd) {
		dump, err := metrics.Dump()
		if err != nil {
			return err
		}
		fmt.Fprint(os.Stderr, dump)
	}
	return nil
}

func (q queryFlags) metricsRequested(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("metrics")
	return v
}

func refreshFile(ctx context.Context, st store.Store, log *logrus.Logger, path string) error {
	start := time.Now()
	defer func() { metrics.RefreshDuration.Observe(time.Since(start).Seconds()) }()

	info, err := os.Stat(path)
	if err != nil {
		return store.ErrMissingFile(path)
	}
	mtimeUS := info.ModTime().UnixMicro()

	fresh, err := st.FileFresh(ctx, path, mtimeUS)
	if err != nil {
		return err
	}
	if fresh {
		log.WithField("file", path).Debug("skipping unchanged file")
		return nil
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return store.ErrMissingFile(path)
	}
	exprs, err := sexpr.Parse(src)
	if err != nil {
		return err
	}
	recs, err := cil.Normalize(exprs, path)
	if err != nil {
		return err
	}
	if log.IsLevelEnabled(logrus.DebugLevel) {
		log.Debug(repr.String(recs, repr.Indent("  ")))
	}

	fmt.Printf("# refreshing %s\n", path)
	err = st.UpsertFile(ctx, path, mtimeUS, recs)
	if oerr, ok := oops.AsOops(err); ok && oerr.Code() == store.CodeStoreBusy {
		metrics.StoreBusyTotal.Inc()
	}
	return err
}

func runFromDiff(ctx context.Context, engine *query.Engine, st store.Store) error {
	paths := []string{qf.from}
	if qf.fromAllKnown {
		known, err := st.ListFiles(ctx)
		if err != nil {
			return err
		}
		paths = known
	}

	for _, path := range paths {
		src, err := os.ReadFile(path)
		if err != nil {
			return store.ErrMissingFile(path)
		}
		report, err := engine.FromDiff(ctx, path, src)
		if err != nil {
			return err
		}
		for _, r := range report.TE {
			fmt.Printf("%s %s:%s\n", r.Outcome, r.Rule.File, r.Rule.String)
		}
		for _, r := range report.TT {
			fmt.Printf("%s %s:%s\n", r.Outcome, r.Rule.File, r.Rule.String)
		}
	}
	return nil
}

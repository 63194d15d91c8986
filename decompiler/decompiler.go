// Package decompiler renders parsed class files as Java source. Every method is decompiled in
// isolation: a failing method becomes a commented stub and a member failure of the result while
// the rest of the class renders normally.
package decompiler

import (
	"context"
	"io"
	"runtime"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/petr590/NewYava-sub001/classfile"
	"github.com/petr590/NewYava-sub001/config"
	"github.com/petr590/NewYava-sub001/failure"
)

// Decompiler decompiles classes with a fixed configuration. It is safe for concurrent use once
// the classes sharing enum switch maps are registered.
type Decompiler struct {
	cfg  *config.Config
	log  logrus.FieldLogger
	maps *switchMaps
}

// Result is the outcome of decompiling one class
type Result struct {
	Name     string                 // Name is the internal name of the class
	Source   string                 // Source is the rendered compilation unit
	Imports  []string               // Imports are the qualified names the source imports
	Failures []*failure.MemberError // Failures are the members that could not be decompiled
}

// Failed reports whether any member of the class failed
func (r *Result) Failed() bool {
	return len(r.Failures) > 0
}

// New creates a decompiler. A nil configuration uses the defaults and a nil logger discards
// every entry.
func New(cfg *config.Config, log logrus.FieldLogger) *Decompiler {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		log = discard
	}
	return &Decompiler{cfg: cfg, log: log, maps: newSwitchMaps()}
}

// Register records the enum constants and the enum switch maps declared by classes, so switches
// over enums in the classes decompiled later render with constant labels
func (d *Decompiler) Register(classes ...*classfile.Class) {
	for _, cls := range classes {
		if err := d.maps.register(cls); err != nil {
			d.log.WithFields(logrus.Fields{
				"class": cls.ThisClass,
				"kind":  failure.KindOf(err).String(),
			}).WithError(err).Warn("Failed to read enum switch map")
		}
	}
}

// workers returns the configured worker count, one per processor when it is not positive
func (d *Decompiler) workers() int {
	if d.cfg.Workers < 1 {
		return runtime.GOMAXPROCS(0)
	}
	return d.cfg.Workers
}

// DecompileAll registers the classes and decompiles them concurrently, with at most the
// configured number of workers. Results are in the order of classes.
func (d *Decompiler) DecompileAll(ctx context.Context, classes []*classfile.Class) ([]*Result, error) {
	d.Register(classes...)
	results := make([]*Result, len(classes))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers())
	for i, cls := range classes {
		i, cls := i, cls
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = d.Decompile(cls)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

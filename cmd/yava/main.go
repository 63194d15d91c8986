// yava decompiles Java class files into Java source.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/urfave/cli.v1"

	"github.com/petr590/NewYava-sub001/classfile"
	"github.com/petr590/NewYava-sub001/config"
	"github.com/petr590/NewYava-sub001/decompiler"
)

var (
	configFlag = cli.StringFlag{
		Name:  "config",
		Usage: "YAML configuration file",
	}
	logLevelFlag = cli.StringFlag{
		Name:  "log-level",
		Usage: "Log level (panic, fatal, error, warn, info, debug, trace), overrides the configuration",
	}
	outFlag = cli.StringFlag{
		Name:  "out",
		Usage: "Directory the sources are written to, stdout if empty",
	}
	ignoreLocalsFlag = cli.BoolFlag{
		Name:  "ignore-locals",
		Usage: "Synthesize local variable names even when a debug table exists",
	}
	workersFlag = cli.IntFlag{
		Name:  "workers",
		Usage: "Number of classes decompiled concurrently, the configured value if zero",
	}

	decompileCommand = cli.Command{
		Action:    decompile,
		Name:      "decompile",
		Usage:     "Decompile class files, jar archives and directories",
		ArgsUsage: "<path> [<path>...]",
		Flags:     []cli.Flag{outFlag, ignoreLocalsFlag, workersFlag},
	}
	refsCommand = cli.Command{
		Action:    refs,
		Name:      "refs",
		Usage:     "List the library and internal method calls of class files",
		ArgsUsage: "<path> [<path>...]",
	}
)

// settings are the configuration and logger set up before any command runs
type settings struct {
	cfg *config.Config
	log *logrus.Logger
}

func newApp() *cli.App {
	s := &settings{}
	app := cli.NewApp()
	app.Name = "yava"
	app.Usage = "Java bytecode decompiler"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{configFlag, logLevelFlag}
	app.Commands = []cli.Command{decompileCommand, refsCommand}
	app.Metadata = map[string]interface{}{settingsKey: s}
	app.Before = func(ctx *cli.Context) error {
		return s.setup(ctx)
	}
	return app
}

const settingsKey = "settings"

// setup loads the configuration and configures the logger writing to the app error stream
func (s *settings) setup(ctx *cli.Context) error {
	s.cfg = config.Default()
	if path := ctx.GlobalString(configFlag.Name); path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		s.cfg = cfg
	}
	if level := ctx.GlobalString(logLevelFlag.Name); level != "" {
		s.cfg.LogLevel = level
		if err := s.cfg.Validate(); err != nil {
			return err
		}
	}
	s.log = logrus.New()
	s.log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	s.log.SetOutput(os.Stderr)
	if ctx.App.ErrWriter != nil {
		s.log.SetOutput(ctx.App.ErrWriter)
	}
	s.log.SetLevel(s.cfg.Level())
	return nil
}

func settingsOf(ctx *cli.Context) *settings {
	return ctx.App.Metadata[settingsKey].(*settings)
}

func inputs(ctx *cli.Context) ([]*classfile.Class, error) {
	if ctx.NArg() == 0 {
		return nil, errors.New("no input path given")
	}
	return loadClasses(ctx.Args())
}

// decompile renders the input classes to the output directory or the app writer
func decompile(ctx *cli.Context) error {
	s := settingsOf(ctx)
	cfg := *s.cfg
	if ctx.Bool(ignoreLocalsFlag.Name) {
		cfg.IgnoreVariableTable = true
	}
	if n := ctx.Int(workersFlag.Name); n > 0 {
		cfg.Workers = n
	}
	classes, err := inputs(ctx)
	if err != nil {
		return err
	}
	s.log.WithField("classes", len(classes)).Info("Decompiling")

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	results, err := decompiler.New(&cfg, s.log).DecompileAll(sigCtx, classes)
	if err != nil {
		return err
	}

	out := ctx.String(outFlag.Name)
	failed := 0
	for _, res := range results {
		failed += len(res.Failures)
		if out == "" {
			fmt.Fprintf(ctx.App.Writer, "// %s\n%s\n", res.Name, res.Source)
			continue
		}
		if err := writeSource(out, res); err != nil {
			return err
		}
	}
	entry := s.log.WithFields(logrus.Fields{"classes": len(results), "failures": failed})
	if failed > 0 {
		entry.Warn("Decompiled with failures")
	} else {
		entry.Info("Decompiled")
	}
	return nil
}

// writeSource writes the source of a class to its package path under dir
func writeSource(dir string, res *decompiler.Result) error {
	path := filepath.Join(dir, filepath.FromSlash(res.Name)+".java")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "failed to create %s", filepath.Dir(path))
	}
	if err := os.WriteFile(path, []byte(res.Source), 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}

// refs prints the method calls of the input classes grouped by library and internal owners
func refs(ctx *cli.Context) error {
	s := settingsOf(ctx)
	classes, err := inputs(ctx)
	if err != nil {
		return err
	}
	w := ctx.App.Writer
	for _, cls := range classes {
		r, err := cls.CollectReferences()
		if err != nil {
			return errors.Wrapf(err, "failed to collect references of %s", cls.ThisClass)
		}
		s.log.WithFields(logrus.Fields{
			"class":    cls.ThisClass,
			"library":  len(r.Library),
			"internal": len(r.Internal),
		}).Debug("Collected references")
		fmt.Fprintf(w, "%s:\n", cls.ThisClass)
		for _, call := range r.Library {
			fmt.Fprintf(w, "  library  %s from %s\n", call, call.Caller)
		}
		for _, call := range r.Internal {
			fmt.Fprintf(w, "  internal %s from %s\n", call, call.Caller)
		}
	}
	return nil
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

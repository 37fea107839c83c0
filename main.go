package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/WIZARDISHUNGRY/contour-overlay/internal/config"
	"github.com/WIZARDISHUNGRY/contour-overlay/internal/logger"
	"github.com/WIZARDISHUNGRY/contour-overlay/internal/request"
	"github.com/WIZARDISHUNGRY/contour-overlay/internal/source"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var flagDumpFSM = flag.Bool("dump-fsm", false, "write graphviz src and exit")

func main() {
	env, err := config.LoadEnv(".env")
	if err != nil {
		logrus.WithError(err).Fatal("config.LoadEnv")
	}
	flags := config.Register(flag.CommandLine, env)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] image...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *flagDumpFSM {
		fmt.Println(request.Graph())
		return
	}

	log := logger.New(flags.LogLevel)
	if err := flags.Validate(); err != nil {
		log.WithError(err).Fatal("invalid flags")
	}
	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	pipeline, err := flags.Pipeline(os.Stdout)
	if err != nil {
		log.WithError(err).Fatal("pipeline")
	}
	client := flags.Client()

	ctx, ctxCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer ctxCancel()
	ctx = logger.WithLogEntry(ctx, logrus.NewEntry(log))
	g, ctx := errgroup.WithContext(ctx)

	failed := make([]bool, len(args))
	for i, arg := range args {
		i := i
		src, err := source.Parse(arg, client)
		if err != nil {
			log.WithError(err).Fatalf("source.Parse: %s", arg)
		}
		g.Go(func() error {
			r, err := pipeline.Run(ctx, src)
			if err != nil {
				// one bad image does not stop the others
				failed[i] = true
				return nil
			}
			log.WithField("source", src.URI()).WithField("faces", len(r.Faces)).Debug("done")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Error(err)
	}
	log.WithField("bytes", client.CacheSize()).Debug("http cache")
	for _, f := range failed {
		if f {
			os.Exit(1)
		}
	}
}

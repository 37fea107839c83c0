// Command watch captures or picks images interactively and shows their face
// contour overlays as they finish.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/WIZARDISHUNGRY/contour-overlay/internal/capture"
	"github.com/WIZARDISHUNGRY/contour-overlay/internal/config"
	"github.com/WIZARDISHUNGRY/contour-overlay/internal/logger"
	"github.com/WIZARDISHUNGRY/contour-overlay/internal/request"
	"github.com/mattn/go-tty"
	"github.com/sirupsen/logrus"
)

type app struct {
	log      *logrus.Entry
	out      io.Writer
	pipeline *request.Pipeline
	camera   *capture.Camera
	gallery  *capture.Gallery
	keys     kmt
}

func main() {
	env, err := config.LoadEnv(".env")
	if err != nil {
		logrus.WithError(err).Fatal("config.LoadEnv")
	}
	flags := config.Register(flag.CommandLine, env)
	flag.Parse()

	log := logger.New(flags.LogLevel)
	if err := flags.Validate(); err != nil {
		log.WithError(err).Fatal("invalid flags")
	}
	if !flags.ANSI && flags.Out == "" {
		flags.ANSI = true
	}
	pipeline, err := flags.Pipeline(os.Stdout)
	if err != nil {
		log.WithError(err).Fatal("pipeline")
	}
	defer pipeline.Close()

	t, err := tty.Open()
	if err != nil {
		log.WithError(err).Fatal("tty.Open")
	}
	defer t.Close()

	a := &app{
		log:      logrus.NewEntry(log),
		out:      os.Stdout,
		pipeline: pipeline,
		gallery: &capture.Gallery{
			Prompt: os.Stdout,
			Next:   t.ReadString,
			Client: flags.Client(),
		},
	}
	a.keys = a.keyMap()

	if flags.CameraCmd != "" {
		mk, cleanup, err := capture.NewTempFactory(".jpg")
		if err != nil {
			log.WithError(err).Fatal("capture.NewTempFactory")
		}
		defer func() {
			if err := cleanup(); err != nil {
				log.WithError(err).Error("temp cleanup")
			}
		}()
		a.camera, err = capture.NewCamera(flags.CameraCmd, mk)
		if err != nil {
			log.WithError(err).Fatal("capture.NewCamera")
		}
	}

	ctx, ctxCancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt,
	)
	defer func() {
		ctxCancel()
		log.Info("watch exiting")
	}()
	ctx = logger.WithLogEntry(ctx, a.log)

	fmt.Fprintln(a.out, "press ? for help")
	if err := a.scanKeys(ctx, t); err != nil {
		log.WithError(err).Error("scanKeys")
	}
}

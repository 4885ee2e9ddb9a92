/*
Copyright 2024 The Zimg Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

     http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// The zimgd daemon stores images and serves transformed variants of
// them over HTTP.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"zimg.org/pkg/config"
	"zimg.org/pkg/server"
	"zimg.org/pkg/storage"
	"zimg.org/pkg/storage/localdisk"
	"zimg.org/pkg/storage/memcached"
)

const version = "3.0.0"

func main() {
	root := &cobra.Command{
		Use:           "zimgd",
		Short:         "zimg image storage and processing server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	root.PersistentFlags().StringP("config", "c", "conf/zimg.ini", "path to the INI configuration file")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "run the image server",
		RunE:  runServe,
	})
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "print the zimgd version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "zimgd %s\n", version)
		},
	})

	if err := root.Execute(); err != nil {
		logrus.WithError(err).Fatal("zimgd exiting")
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	confPath, _ := cmd.Flags().GetString("config")
	conf, err := config.Load(confPath)
	if err != nil {
		return err
	}

	if err := initLogging(conf); err != nil {
		return err
	}
	for _, dir := range []string{conf.LogPath, conf.RootPath} {
		if err := os.MkdirAll(dir, 0777); err != nil {
			return errors.Wrapf(err, "create %q", dir)
		}
	}

	factory, err := backendFactory(conf)
	if err != nil {
		return err
	}
	pool, err := server.NewPool(conf.NumThreads, factory)
	if err != nil {
		return errors.Wrap(err, "start worker pool")
	}
	defer pool.Close()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", conf.Port),
		Handler: server.New(conf, pool),
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	logrus.WithFields(logrus.Fields{
		"port":    conf.Port,
		"mode":    conf.Mode,
		"threads": conf.NumThreads,
	}).Infof("zimgd %s serving", version)

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errc:
		return errors.Wrap(err, "http server")
	case sig := <-sigc:
		logrus.WithField("signal", sig.String()).Info("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

// backendFactory returns the per-worker backend constructor for the
// configured storage mode.
func backendFactory(conf *config.Config) (func() (storage.Backend, error), error) {
	switch conf.Mode {
	case config.ModeLocal:
		if err := os.MkdirAll(conf.ImgPath, 0777); err != nil {
			return nil, errors.Wrapf(err, "create %q", conf.ImgPath)
		}
		return func() (storage.Backend, error) {
			b, err := localdisk.New(conf.ImgPath)
			if err != nil {
				return nil, err
			}
			return b, nil
		}, nil
	case config.ModeKV:
		addr := conf.MemcAddr
		return func() (storage.Backend, error) {
			return memcached.New(addr), nil
		}, nil
	}
	return nil, errors.Errorf("unknown storage mode %d", conf.Mode)
}

// initLogging sets the level and, when a log directory is configured,
// tees output into zimgd.log there.
func initLogging(conf *config.Config) error {
	lvl, err := logrus.ParseLevel(conf.LogLevel)
	if err != nil {
		return errors.Wrapf(err, "log level %q", conf.LogLevel)
	}
	logrus.SetLevel(lvl)

	if conf.LogPath == "" {
		return nil
	}
	if err := os.MkdirAll(conf.LogPath, 0777); err != nil {
		return errors.Wrapf(err, "create %q", conf.LogPath)
	}
	f, err := os.OpenFile(filepath.Join(conf.LogPath, "zimg.log"),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return errors.Wrap(err, "open log file")
	}
	logrus.SetOutput(io.MultiWriter(os.Stderr, f))
	return nil
}

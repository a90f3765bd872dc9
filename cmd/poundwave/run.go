package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/poundwave/pkg/poundwave/config"
	"github.com/yourusername/poundwave/pkg/poundwave/worker"
)

func runCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the proxy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProxy(configPath)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&configPath, "config", "c", "poundwave.yaml", "path to the config file")

	return cmd
}

func runProxy(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log := logrus.New()
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	servers := make([]*worker.Server, 0, len(cfg.Listeners))

	for i := range cfg.Listeners {
		l := &cfg.Listeners[i]

		ln, err := net.Listen("tcp", l.Address)
		if err != nil {
			return fmt.Errorf("listener %q: %w", l.Name, err)
		}

		tlsCfg, err := config.BuildTLS(l)
		if err != nil {
			return err
		}
		var stdTLS *tls.Config
		if tlsCfg != nil {
			stdTLS, err = tlsCfg.Build()
			if err != nil {
				return fmt.Errorf("listener %q: %w", l.Name, err)
			}
		}

		wcfg, _, err := config.BuildWorkerConfig(l, log)
		if err != nil {
			return err
		}

		srv := worker.NewServer(ln, stdTLS, wcfg, l.MaxConnections)
		servers = append(servers, srv)

		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			if err := srv.Serve(ctx); err != nil {
				log.WithField("listener", name).WithError(err).Error("listener stopped")
			}
		}(l.Name)

		log.WithFields(logrus.Fields{"listener": l.Name, "address": l.Address}).Info("listening")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	for _, srv := range servers {
		srv.Shutdown(shutdownCtx)
	}
	cancel()
	wg.Wait()

	return nil
}

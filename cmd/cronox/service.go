package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/kardianos/service"
	"github.com/spf13/cobra"

	"github.com/flemzord/cronox/pkg/app"
)

// program adapts app.Run to the service manager's start/stop callbacks.
type program struct {
	params app.RunParams

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan error
}

func (p *program) Start(s service.Service) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan error, 1)

	go func() {
		err := app.Run(ctx, p.params)
		p.done <- err
		if err != nil && ctx.Err() == nil {
			// The daemon failed on its own; let the manager restart it.
			if logger, lerr := s.Logger(nil); lerr == nil {
				_ = logger.Error(err)
			}
			os.Exit(1)
		}
	}()
	return nil
}

func (p *program) Stop(service.Service) error {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	return <-done
}

func serviceConfig(cfgPath string) (*service.Config, error) {
	args := []string{"run"}
	if cfgPath != "" {
		abs, err := filepath.Abs(cfgPath)
		if err != nil {
			return nil, fmt.Errorf("resolving config path: %w", err)
		}
		args = append(args, "--config", abs)
	}
	return &service.Config{
		Name:        "cronox",
		DisplayName: "cronox scheduler",
		Description: "Runs commands on cron schedules.",
		Arguments:   args,
	}, nil
}

func newService(prg *program, cfgPath string) (service.Service, error) {
	cfg, err := serviceConfig(cfgPath)
	if err != nil {
		return nil, err
	}
	return service.New(prg, cfg)
}

func serviceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Manage cronox as a system service",
	}
	cmd.PersistentFlags().StringP("config", "c", "", "Path to configuration file passed to the installed service")

	for _, action := range service.ControlAction {
		cmd.AddCommand(&cobra.Command{
			Use:   action,
			Short: fmt.Sprintf("%s the cronox service", action),
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfgPath, _ := cmd.Flags().GetString("config")
				svc, err := newService(&program{}, cfgPath)
				if err != nil {
					return err
				}
				if err := service.Control(svc, action); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "service %s: ok\n", action)
				return nil
			},
		})
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the cronox service status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := newService(&program{}, "")
			if err != nil {
				return err
			}
			st, err := svc.Status()
			if err != nil && !errors.Is(err, service.ErrNotInstalled) {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), statusText(st, err))
			return nil
		},
	})
	return cmd
}

func statusText(st service.Status, err error) string {
	if errors.Is(err, service.ErrNotInstalled) {
		return "not installed"
	}
	switch st {
	case service.StatusRunning:
		return "running"
	case service.StatusStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

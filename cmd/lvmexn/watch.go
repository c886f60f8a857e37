package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/deepnoodle-ai/lvm/exn"
	"github.com/deepnoodle-ai/lvm/signals"
	"github.com/deepnoodle-ai/lvm/vm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll for OS signals and report them as asynchronous exceptions",
	Long: `Route OS signals to the default context and poll for them at a
fixed interval. The first signal is raised as an asynchronous exception
and reported. With --timeout a SIGALRM is synthesized when the time runs
out.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sigs, err := parseSignals(viper.GetString("signals"))
		if err != nil {
			return err
		}
		rt := newRuntime()
		defer rt.Close()
		bridge := signals.New(signals.WithLogger(logger()))
		defer bridge.Close()

		ctx := vm.WithExecutionContext(cmd.Context(), rt.Default())
		return runWatch(ctx, rt, bridge, sigs, watchConfig{
			interval: viper.GetDuration("interval"),
			timeout:  viper.GetDuration("timeout"),
		}, cmd.OutOrStdout())
	},
}

func init() {
	flags := watchCmd.Flags()
	flags.String("signals", "SIGINT,SIGTERM", "Comma separated signal names to watch")
	flags.Duration("interval", 50*time.Millisecond, "Safe point polling interval")
	flags.Duration("timeout", 0, "Synthesize SIGALRM after this duration")
	viper.BindPFlag("signals", flags.Lookup("signals"))
	viper.BindPFlag("interval", flags.Lookup("interval"))
	viper.BindPFlag("timeout", flags.Lookup("timeout"))
}

type watchConfig struct {
	interval time.Duration
	timeout  time.Duration
}

func parseSignals(list string) ([]os.Signal, error) {
	var sigs []os.Signal
	for _, name := range strings.Split(list, ",") {
		name = strings.ToUpper(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if !strings.HasPrefix(name, "SIG") {
			name = "SIG" + name
		}
		sig, ok := signals.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", signals.ErrUnsupportedSignal, name)
		}
		sigs = append(sigs, sig)
	}
	return sigs, nil
}

func runWatch(ctx context.Context, rt *vm.Runtime, bridge *signals.Bridge, sigs []os.Signal, cfg watchConfig, w io.Writer) error {
	ec := rt.Active(ctx)
	stop, err := bridge.Watch(ec, sigs...)
	if err != nil {
		return err
	}
	defer stop()

	if cfg.timeout > 0 {
		timer := time.AfterFunc(cfg.timeout, func() {
			bridge.NotifySignal(ec, syscall.SIGALRM)
		})
		defer timer.Stop()
	}
	if cfg.interval <= 0 {
		cfg.interval = 50 * time.Millisecond
	}

	var caught *exn.Exception
	ec.Try(func() {
		ticker := time.NewTicker(cfg.interval)
		defer ticker.Stop()
		for {
			ec.Poll()
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}, func(e *exn.Exception) {
		caught = e
	})
	if caught == nil {
		return ctx.Err()
	}
	sig, _ := caught.Val(0).(int)
	out, err := getOutput(map[string]any{
		"tag":    caught.Tag.String(),
		"signal": signals.Name(sig),
		"number": sig,
	}, fmt.Sprintf("caught %s: %s", caught.Tag, signals.Name(sig)), viper.GetString("output"))
	if err != nil {
		return err
	}
	fmt.Fprintln(w, out)
	return nil
}

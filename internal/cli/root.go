// Package cli wires the ravello-set-rtc command: flag grammar,
// credential resolution, the remote call chain, and output.
package cli

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ravello-tools/ravello-rtc/internal/clock"
	"github.com/ravello-tools/ravello-rtc/internal/config"
	"github.com/ravello-tools/ravello-rtc/internal/events"
	"github.com/ravello-tools/ravello-rtc/internal/ravello"
)

type options struct {
	username string
	password string
	url      string
	absolute int64
	relative int64
	debug    bool
}

// NewRootCommand builds the ravello-set-rtc command.
func NewRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "ravello-set-rtc (--absolute <seconds> | --relative <seconds>) <application> [<vm>]",
		Short: "Set the RTC of one or all VMs in a Ravello application",
		Long: `ravello-set-rtc updates the real-time clock setting of virtual machines
in a Ravello application, either pinning the clock to an absolute Unix
timestamp or offsetting it from current time. With no <vm> argument
every VM in the application is updated. A published application is
republished so the change reaches the running deployment.`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, opts)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&opts.username, "username", "u", "", "Ravello username (default $"+config.EnvUsername+")")
	fl.StringVarP(&opts.password, "password", "p", "", "Ravello password (default $"+config.EnvPassword+", else prompt)")
	fl.StringVar(&opts.url, "url", "", "API endpoint (default $"+config.EnvURL+", else "+ravello.DefaultURL+")")
	fl.Int64Var(&opts.absolute, "absolute", 0, "set the clock to this Unix timestamp")
	fl.Int64Var(&opts.relative, "relative", 0, "offset the clock by this many seconds (negative = past)")
	fl.BoolVarP(&opts.debug, "debug", "d", false, "re-raise errors with full detail")
	cmd.MarkFlagsOneRequired("absolute", "relative")
	cmd.MarkFlagsMutuallyExclusive("absolute", "relative")

	return cmd
}

// Execute runs the CLI and returns the process exit code. Without
// --debug any failure becomes a single line on stderr; with --debug the
// error is re-raised for full diagnostic detail.
func Execute() int {
	cmd := NewRootCommand()
	if err := cmd.Execute(); err != nil {
		if debug, _ := cmd.Flags().GetBool("debug"); debug {
			panic(err)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func run(cmd *cobra.Command, args []string, opts *options) error {
	logger := zap.NewNop()
	if opts.debug {
		if l, err := zap.NewDevelopment(); err == nil {
			logger = l
			defer logger.Sync()
		}
	}
	runID := uuid.NewString()
	logger.Debug("run starting", zap.String("run_id", runID), zap.Strings("args", args))

	creds, err := config.ResolveCredentials(opts.username, opts.password, os.Getenv, config.TerminalPrompt())
	if err != nil {
		return err
	}

	var rtc ravello.RTC
	if cmd.Flags().Changed("absolute") {
		rtc = ravello.AbsoluteRTC(opts.absolute)
	} else {
		rtc = ravello.RelativeRTC(opts.relative)
	}

	ctx := cmd.Context()
	client := ravello.NewClient(config.ResolveURL(opts.url, os.Getenv, ravello.DefaultURL), logger)
	if err := client.Login(ctx, creds.Username, creds.Password); err != nil {
		return err
	}
	defer client.Close(ctx)

	vmIdent := ""
	if len(args) == 2 {
		vmIdent = args[1]
	}
	app, vm, err := clock.ResolveTargets(ctx, client, args[0], vmIdent)
	if err != nil {
		return err
	}

	republished, err := clock.Apply(ctx, client, app, vm, rtc)
	if err != nil {
		return err
	}

	publishEvent(logger, runID, app, vm, rtc, republished)

	scope := fmt.Sprintf("all %d VMs", len(app.Design.VMs))
	if vm != nil {
		scope = fmt.Sprintf("VM %q", vm.Name)
	}
	msg := fmt.Sprintf("Updated RTC for %s in application %q.", scope, app.Name)
	if republished {
		msg += " Application republished."
	}
	fmt.Fprintln(cmd.OutOrStdout(), msg)
	return nil
}

// publishEvent emits the operation event when a bus is configured.
// Best-effort: failures are logged at debug level and dropped.
func publishEvent(logger *zap.Logger, runID string, app *ravello.Application, vm *ravello.VM, rtc ravello.RTC, republished bool) {
	url := os.Getenv(config.EnvNATSURL)
	if url == "" {
		return
	}
	p, err := events.Connect(url)
	if err != nil {
		logger.Debug("event publish skipped", zap.Error(err))
		return
	}
	defer p.Close()
	if err := p.Publish(events.Subject, events.NewRTCUpdated(runID, app, vm, rtc, republished)); err != nil {
		logger.Debug("event publish failed", zap.Error(err))
	}
}

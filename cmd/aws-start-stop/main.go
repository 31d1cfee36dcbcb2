package main

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"github.com/vladvasiliu/aws-start-stop/pkg/agent"
	"github.com/vladvasiliu/aws-start-stop/pkg/awsclient"
	"github.com/vladvasiliu/aws-start-stop/pkg/config"
	"github.com/vladvasiliu/aws-start-stop/pkg/ec2ctl"
	"github.com/vladvasiliu/aws-start-stop/pkg/logging"
	"github.com/vladvasiliu/aws-start-stop/pkg/poll"
	"github.com/vladvasiliu/aws-start-stop/pkg/transition"
	"github.com/vladvasiliu/aws-start-stop/pkg/ui"
)

const name = "aws-start-stop"

// clientFactory builds the API clients once the configuration is known.
type clientFactory func(awsclient.Options) (*awsclient.ClientSet, error)

func main() {
	os.Exit(_main(os.Args, os.Stdout, os.Stderr, awsclient.New))
}

func _main(args []string, stdout, stderr io.Writer, newClients clientFactory) int {
	// Dispatch logging output instead of writing all levels' messages to
	// stderr.
	_ = logging.Set(
		logging.Output(io.Discard),
		logging.Hooks(splitHooks(stdout, stderr)...),
		logging.Level(logging.DefaultLevel),
	)
	log := logging.New("main")

	exit := transition.ExitOK
	app := &cli.App{
		Name:            name,
		Usage:           "start or stop an EC2 instance and wait until it gets there",
		ArgsUsage:       "<start|stop> <instance-id>",
		Flags:           config.Flags(),
		Writer:          stdout,
		ErrWriter:       stderr,
		HideHelpCommand: true,
		Action: func(c *cli.Context) error {
			exit = run(c, log, stdout, stderr, newClients)
			return nil
		},
	}
	if err := app.Run(config.Reorder(args, app.Flags)); err != nil {
		log.WithError(err).Error("unable to parse command line")
		return transition.ExitFailure
	}
	return exit
}

func run(c *cli.Context, log logging.Logger, stdout, stderr io.Writer, newClients clientFactory) int {
	cfg, err := config.Load(c)
	if err != nil {
		fmt.Fprintln(stderr, ui.ErrorMsg("%v", err))
		fmt.Fprintln(stderr, ui.Muted(fmt.Sprintf("Run '%s --help' for usage.", name)))
		return transition.ExitFailure
	}
	if cfg.Debug {
		_ = logging.Set(logging.Level(logrus.DebugLevel))
	}
	log.WithFields(logrus.Fields{
		"instance": cfg.InstanceID,
		"action":   cfg.Action,
		"timeout":  cfg.Timeout,
		"interval": cfg.PollInterval,
	}).Debug("configuration loaded")

	clients, err := newClients(awsclient.Options{
		Region:   cfg.Region,
		Profile:  cfg.Profile,
		Endpoint: cfg.Endpoint,
	})
	if err != nil {
		log.WithError(err).Error("unable to set up AWS clients")
		fmt.Fprintln(stderr, ui.ErrorMsg("Failed to %s instance: %v", cfg.Action, err))
		return transition.ExitFailure
	}

	pollCfg := poll.Config{Interval: cfg.PollInterval}
	instances, err := ec2ctl.New(logging.New("ec2ctl"), clients.EC2, cfg.InstanceID, pollCfg)
	if err != nil {
		fmt.Fprintln(stderr, ui.ErrorMsg("%v", err))
		return transition.ExitFailure
	}
	opts := []transition.Option{transition.WithNotifier(ui.Progress(stderr))}
	if cfg.WaitForSSM {
		waiter, err := agent.New(logging.New("agent"), clients.SSM, cfg.InstanceID, pollCfg)
		if err != nil {
			fmt.Fprintln(stderr, ui.ErrorMsg("%v", err))
			return transition.ExitFailure
		}
		opts = append(opts, transition.WithAgent(waiter))
	}
	orchestrator, err := transition.New(logging.New("transition"), instances, opts...)
	if err != nil {
		fmt.Fprintln(stderr, ui.ErrorMsg("%v", err))
		return transition.ExitFailure
	}

	res := orchestrator.Run(c.Context, transition.Request{
		Action:       cfg.Action,
		Timeout:      cfg.Timeout,
		WaitForAgent: cfg.WaitForSSM,
	})

	out := stdout
	if !res.OK() {
		out = stderr
	}
	if err := ui.Render(out, res); err != nil {
		log.WithError(err).Error("unable to write result")
	}
	log.WithField("elapsed", res.Elapsed).Debug("done")
	return res.ExitCode()
}

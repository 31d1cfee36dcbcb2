// Package config turns command line arguments, environment variables and an
// optional TOML file into the settings of one run.
package config

import (
	"math"
	"strings"
	"time"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"github.com/vladvasiliu/aws-start-stop/pkg/lifecycle"
)

const (
	DefaultTimeout      = 120 * time.Second
	DefaultPollInterval = 10 * time.Second

	// MaxTimeoutSeconds is the largest timeout a time.Duration can hold.
	MaxTimeoutSeconds = int64(math.MaxInt64 / int64(time.Second))
)

// Flag names, shared by the flag definitions and Load.
const (
	FlagTimeout      = "timeout"
	FlagWaitForSSM   = "wait-for-ssm"
	FlagPollInterval = "poll-interval"
	FlagRegion       = "region"
	FlagProfile      = "profile"
	FlagEndpoint     = "endpoint-url"
	FlagConfig       = "config"
	FlagDebug        = "debug"
)

// Config holds everything a run needs.
type Config struct {
	Action     lifecycle.Action
	InstanceID string

	Timeout      time.Duration
	PollInterval time.Duration
	WaitForSSM   bool

	Region   string
	Profile  string
	Endpoint string

	Debug bool
}

// File is the layout of the optional TOML configuration file.
type File struct {
	Region       string `toml:"region"`
	Profile      string `toml:"profile"`
	EndpointURL  string `toml:"endpoint_url"`
	Timeout      int64  `toml:"timeout"`
	PollInterval string `toml:"poll_interval"`
	WaitForSSM   bool   `toml:"wait_for_ssm"`

	// keys present in the file, zero values included
	keys map[string]bool
}

// Has reports whether key was present in the file.
func (f *File) Has(key string) bool {
	return f != nil && f.keys[key]
}

// LoadFile parses the TOML file at path.
func LoadFile(path string) (*File, error) {
	tree, err := toml.LoadFile(path)
	if err != nil {
		return nil, errors.Wrapf(lifecycle.ErrConfiguration, "unable to read config file %q: %v", path, err)
	}
	f := File{}
	if err := tree.Unmarshal(&f); err != nil {
		return nil, errors.Wrapf(lifecycle.ErrConfiguration, "unable to parse config file %q: %v", path, err)
	}
	f.keys = make(map[string]bool)
	for _, k := range tree.Keys() {
		f.keys[k] = true
	}
	return &f, nil
}

// Flags returns the command line flags Load reads.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.Int64Flag{
			Name:    FlagTimeout,
			Aliases: []string{"t"},
			EnvVars: []string{"AWS_START_STOP_TIMEOUT"},
			Value:   int64(DefaultTimeout / time.Second),
			Usage:   "overall deadline in `SECONDS`",
		},
		&cli.BoolFlag{
			Name:    FlagWaitForSSM,
			Aliases: []string{"s"},
			EnvVars: []string{"AWS_START_STOP_WAIT_FOR_SSM"},
			Usage:   "wait for the SSM agent to come online after a start",
		},
		&cli.DurationFlag{
			Name:    FlagPollInterval,
			EnvVars: []string{"AWS_START_STOP_POLL_INTERVAL"},
			Value:   DefaultPollInterval,
			Usage:   "delay between two state checks",
		},
		&cli.StringFlag{
			Name:    FlagRegion,
			EnvVars: []string{"AWS_REGION"},
			Usage:   "AWS region of the instance",
		},
		&cli.StringFlag{
			Name:    FlagProfile,
			EnvVars: []string{"AWS_PROFILE"},
			Usage:   "shared config profile",
		},
		&cli.StringFlag{
			Name:    FlagEndpoint,
			EnvVars: []string{"AWS_ENDPOINT_URL"},
			Usage:   "override the API endpoint",
		},
		&cli.PathFlag{
			Name:    FlagConfig,
			Aliases: []string{"c"},
			EnvVars: []string{"AWS_START_STOP_CONFIG"},
			Usage:   "TOML file with default settings",
		},
		&cli.BoolFlag{
			Name:  FlagDebug,
			Usage: "enable debug logging",
		},
	}
}

// Load builds the Config from the parsed command line. Flags and their
// environment variables take precedence over the file.
func Load(c *cli.Context) (*Config, error) {
	if c.NArg() != 2 {
		return nil, errors.Wrapf(lifecycle.ErrConfiguration, "expected 2 arguments <start|stop> <instance-id>, got %d", c.NArg())
	}
	action, err := lifecycle.ParseAction(c.Args().Get(0))
	if err != nil {
		return nil, err
	}

	timeout, err := seconds(c.Int64(FlagTimeout))
	if err != nil {
		return nil, err
	}
	cfg := &Config{
		Action:       action,
		InstanceID:   strings.TrimSpace(c.Args().Get(1)),
		Timeout:      timeout,
		PollInterval: c.Duration(FlagPollInterval),
		WaitForSSM:   c.Bool(FlagWaitForSSM),
		Region:       c.String(FlagRegion),
		Profile:      c.String(FlagProfile),
		Endpoint:     c.String(FlagEndpoint),
		Debug:        c.Bool(FlagDebug),
	}

	if path := c.Path(FlagConfig); path != "" {
		f, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		if err := cfg.merge(c, f); err != nil {
			return nil, err
		}
	}

	return cfg, cfg.Validate()
}

func (cfg *Config) merge(c *cli.Context, f *File) error {
	unset := func(flag, key string) bool {
		return f.Has(key) && !c.IsSet(flag)
	}
	if unset(FlagRegion, "region") {
		cfg.Region = f.Region
	}
	if unset(FlagProfile, "profile") {
		cfg.Profile = f.Profile
	}
	if unset(FlagEndpoint, "endpoint_url") {
		cfg.Endpoint = f.EndpointURL
	}
	if unset(FlagTimeout, "timeout") {
		timeout, err := seconds(f.Timeout)
		if err != nil {
			return err
		}
		cfg.Timeout = timeout
	}
	if unset(FlagWaitForSSM, "wait_for_ssm") {
		cfg.WaitForSSM = f.WaitForSSM
	}
	if unset(FlagPollInterval, "poll_interval") {
		d, err := time.ParseDuration(f.PollInterval)
		if err != nil {
			return errors.Wrapf(lifecycle.ErrConfiguration, "invalid poll_interval %q: %v", f.PollInterval, err)
		}
		cfg.PollInterval = d
	}
	return nil
}

// seconds converts a timeout given in seconds, rejecting values that are not
// positive or would overflow.
func seconds(n int64) (time.Duration, error) {
	switch {
	case n <= 0:
		return 0, errors.Wrapf(lifecycle.ErrConfiguration, "timeout must be positive, got %ds", n)
	case n > MaxTimeoutSeconds:
		return 0, errors.Wrapf(lifecycle.ErrConfiguration, "timeout must be at most %ds, got %ds", MaxTimeoutSeconds, n)
	}
	return time.Duration(n) * time.Second, nil
}

// Validate checks the settings that do not need a remote call.
func (cfg *Config) Validate() error {
	switch {
	case cfg.InstanceID == "":
		return errors.Wrap(lifecycle.ErrConfiguration, "instance ID must be provided")
	case cfg.Timeout <= 0:
		return errors.Wrapf(lifecycle.ErrConfiguration, "timeout must be positive, got %s", cfg.Timeout)
	case cfg.PollInterval <= 0:
		return errors.Wrapf(lifecycle.ErrConfiguration, "poll interval must be positive, got %s", cfg.PollInterval)
	}
	return lifecycle.ValidateDesired(cfg.Action.Desired())
}

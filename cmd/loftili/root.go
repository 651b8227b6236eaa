// Copyright (c) 2025, WSO2 LLC. (https://www.wso2.com).
//
// WSO2 LLC. licenses this file to you under the Apache License,
// Version 2.0 (the "License"); you may not use this file except
// in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied. See the License for the
// specific language governing permissions and limitations
// under the License.

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/sizethree/loftili.core/internal/engine"
	"github.com/sizethree/loftili.core/internal/logging"
	"github.com/sizethree/loftili.core/internal/opsserver"
	"github.com/sizethree/loftili.core/pkg/config"
	"github.com/sizethree/loftili.core/pkg/core"
	"github.com/sizethree/loftili.core/pkg/playback"
	"github.com/sizethree/loftili.core/pkg/telemetry"
	"github.com/sizethree/loftili.core/pkg/transport"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
)

type flags struct {
	serial  string
	api     string
	logfile string
	verbose bool
	config  string
	envFile string
}

func newRootCmd(getenv func(string) string) *cobra.Command {
	var f flags

	root := &cobra.Command{
		Use:           "loftili",
		Short:         "loftili device core",
		Long:          "Subscribes to the loftili api command stream and drives local playback.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(f, getenv)
			if err != nil {
				return err
			}
			logger, closer, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer closer.Close()
			return runEngine(cmd.Context(), cfg, logger)
		},
	}

	bindFlags(root.PersistentFlags(), &f)

	root.AddCommand(&cobra.Command{
		Use:   "subscribe",
		Short: "Connect to the command stream once and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(f, getenv)
			if err != nil {
				return err
			}
			logger, closer, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer closer.Close()

			eng, err := newEngine(cfg, nil, logger)
			if err != nil {
				return err
			}
			if err := eng.Subscribe(cmd.Context()); err != nil {
				return err
			}
			logger.Info().Msg("subscription verified")
			return nil
		},
	})

	return root
}

func bindFlags(fs *pflag.FlagSet, f *flags) {
	fs.StringVarP(&f.serial, "serial", "s", "", "the serial number this device was given")
	fs.StringVarP(&f.api, "api", "a", "", "api url, if running the api on your own (default "+config.DefaultAPIURL+")")
	fs.StringVarP(&f.logfile, "logfile", "l", "", "log file path, ignored with --verbose (default "+config.DefaultLogFile+")")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "log to stdout instead of the log file")
	fs.StringVarP(&f.config, "config", "c", "", "yaml config file")
	fs.StringVarP(&f.envFile, "env-file", "e", "", "dotenv file exported before reading LOFTILI_* variables")
}

// loadConfig layers defaults, the yaml file, the environment and finally
// the command line flags.
func loadConfig(f flags, getenv func(string) string) (*config.Config, error) {
	if err := config.LoadEnvFile(f.envFile); err != nil {
		return nil, err
	}
	cfg, err := config.Load(f.config)
	if err != nil {
		return nil, err
	}
	config.ApplyEnv(cfg, getenv)

	if f.serial != "" {
		cfg.Device.Serial = f.serial
	}
	if f.api != "" {
		cfg.API.URL = f.api
	}
	if f.logfile != "" {
		cfg.Logging.File = f.logfile
	}
	if f.verbose {
		cfg.Logging.Verbose = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (zerolog.Logger, io.Closer, error) {
	return logging.New(logging.Config{
		Level:   cfg.Logging.Level,
		File:    cfg.Logging.File,
		Verbose: cfg.Logging.Verbose,
	})
}

func newEngine(cfg *config.Config, caps *core.Capabilities, logger zerolog.Logger, opts ...engine.Option) (*engine.Engine, error) {
	id, err := cfg.Identity()
	if err != nil {
		return nil, err
	}
	ep, err := cfg.API.Resolve()
	if err != nil {
		return nil, err
	}

	topts := transport.Options{
		Protocol:           ep.Protocol,
		Host:               ep.Hostname,
		Port:               ep.Port,
		Path:               cfg.API.SubscribePath,
		DialTimeout:        cfg.Transport.DialTimeout,
		WriteTimeout:       cfg.Transport.WriteTimeout,
		InsecureSkipVerify: cfg.Transport.InsecureSkipVerify,
		TopicPrefix:        cfg.API.TopicPrefix,
		Serial:             cfg.Device.Serial,
		Logger:             logging.WithComponent(logger, "transport"),
	}
	if _, err := transport.New(topts); err != nil {
		return nil, err
	}
	dial := func() (core.Transport, error) { return transport.New(topts) }

	logger.Info().
		Str(logging.FieldHost, ep.Hostname).
		Str(logging.FieldProtocol, ep.Protocol).
		Int("port", ep.Port).
		Str(logging.FieldSerial, cfg.Device.Serial).
		Msg("configuring engine")

	return engine.New(engine.Config{
		MaxRetries:        cfg.Engine.MaxRetries,
		Backoff:           cfg.Engine.Backoff,
		KeepAliveInterval: cfg.Engine.KeepAliveInterval,
		SubscribePath:     cfg.API.SubscribePath,
		KeepAlivePath:     cfg.API.KeepAlivePath,
		Identity:          id,
		StrictAudio:       cfg.Engine.UnknownAudioAction == config.UnknownActionIgnore,
		SkipOnStart:       cfg.Engine.SkipOnStart,
	}, dial, caps, logger, opts...), nil
}

// runEngine wires playback, telemetry and the ops server around the engine
// and blocks until the engine terminates.
func runEngine(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	pb, err := playback.New(cfg.Playback, logger)
	if err != nil {
		return err
	}
	caps := &core.Capabilities{Playback: pb}

	registry, err := telemetry.Build(cfg.Telemetry, logger)
	if err != nil {
		return err
	}
	if n := len(registry.Sinks()); n > 0 {
		connected := registry.ConnectAll(ctx)
		logger.Info().Int("connected", connected).Int("configured", n).Msg("telemetry sinks ready")
	}
	relay := telemetry.NewRelay(registry, cfg.Telemetry.Buffer, logging.WithComponent(logger, "telemetry"))
	defer func() {
		relay.Close()
		registry.CloseAll(context.Background())
	}()

	eng, err := newEngine(cfg, caps, logger, engine.WithNotifier(relay))
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return eng.Run(gctx)
	})
	if cfg.Metrics.Listen != "" {
		ops := opsserver.New(cfg.Metrics.Listen, eng, logging.WithComponent(logger, "ops"))
		g.Go(func() error {
			if err := ops.Run(gctx); err != nil {
				return fmt.Errorf("ops server: %w", err)
			}
			return nil
		})
	}

	err = g.Wait()
	if exitCode(err) == 0 {
		logger.Info().Msg("loftili stopped")
	}
	return err
}

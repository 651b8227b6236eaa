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

package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Config captures options for building the process logger.
type Config struct {
	Level   string    // "debug", "info", ... (defaults to info)
	File    string    // log file used when not verbose
	Verbose bool      // log to Output instead of File
	Output  io.Writer // defaults to os.Stdout
	Service string
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New builds a logger. The returned closer releases the log file, if any.
func New(cfg Config) (zerolog.Logger, io.Closer, error) {
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		parsed, err := zerolog.ParseLevel(cfg.Level)
		if err != nil {
			return zerolog.Nop(), nopCloser{}, fmt.Errorf("log level %q: %w", cfg.Level, err)
		}
		level = parsed
	}
	zerolog.TimeFieldFormat = time.RFC3339

	var (
		writer io.Writer = cfg.Output
		closer io.Closer = nopCloser{}
	)
	if writer == nil {
		writer = os.Stdout
	}
	if !cfg.Verbose && cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Nop(), nopCloser{}, fmt.Errorf("open log file: %w", err)
		}
		writer, closer = f, f
	}

	service := cfg.Service
	if service == "" {
		service = "loftili"
	}

	logger := zerolog.New(writer).Level(level).With().
		Timestamp().
		Str("service", service).
		Logger()
	return logger, closer, nil
}

// WithComponent returns a child logger annotated with the component name.
func WithComponent(l zerolog.Logger, component string) zerolog.Logger {
	return l.With().Str(FieldComponent, component).Logger()
}

// Critical starts an event at the highest severity. It never exits the process.
func Critical(l *zerolog.Logger) *zerolog.Event {
	return l.WithLevel(zerolog.FatalLevel)
}

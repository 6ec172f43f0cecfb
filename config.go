// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dbpf

package dbpf

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/spf13/viper"
)

// ReaderConfig is the file/env-sourced shape LoadReaderOptions unmarshals,
// following ossyrian-mintyparse's internal/config.Config pattern of a flat
// mapstructure-tagged struct fed by viper.
type ReaderConfig struct {
	LogLevel     string `mapstructure:"log_level"`
	LogOutputDir string `mapstructure:"log_output_dir"`
}

// LoadReaderOptions unmarshals v into a ReaderConfig and builds the
// matching ReaderOptions, constructing a tint console handler plus an
// optional JSON file handler fanned out via FanoutLogger when
// LogOutputDir is set. The decoding core never calls this itself; it
// exists for callers (cmd/dbpfcat and similar batch tooling) that want
// reader configuration sourced from a file or environment instead of
// code, mirroring ossyrian-mintyparse's internal/logging.Setup.
func LoadReaderOptions(v *viper.Viper) (ReaderOptions, error) {
	var cfg ReaderConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return ReaderOptions{}, fmt.Errorf("dbpf config: %w", err)
	}

	level := parseConfigLogLevel(cfg.LogLevel)
	console := tint.NewHandler(os.Stderr, &tint.Options{Level: level})

	if cfg.LogOutputDir == "" {
		return ReaderOptions{Logger: slog.New(console)}, nil
	}

	if err := os.MkdirAll(cfg.LogOutputDir, 0o755); err != nil {
		return ReaderOptions{}, fmt.Errorf("dbpf config: creating log output directory: %w", err)
	}
	f, err := os.OpenFile(
		cfg.LogOutputDir+string(os.PathSeparator)+"dbpf.log",
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644,
	)
	if err != nil {
		return ReaderOptions{}, fmt.Errorf("dbpf config: opening log file: %w", err)
	}
	jsonHandler := slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level})

	return ReaderOptions{Logger: FanoutLogger(console, jsonHandler)}, nil
}

func parseConfigLogLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error", "fatal":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// RUL0Options configures ParseRUL0WithOptions: the INI triple source
// (required) plus an optional vocabulary of network-type names that
// extends or overrides the package's built-in CheckType network-name
// table (spec.md §4.10's CheckType grammar assumes but never pins the
// vocabulary, and SPEC_FULL.md calls for it to be injectable).
type RUL0Options struct {
	Source       RUL0Source
	NetworkTypes map[string]NetworkType
}

// ParseRUL0WithOptions is ParseRUL0 with an injectable network-type
// vocabulary; ParseRUL0(buf, source) is equivalent to
// ParseRUL0WithOptions(buf, RUL0Options{Source: source}).
func ParseRUL0WithOptions(buf []byte, opts RUL0Options) (*RUL0Record, error) {
	if opts.Source == nil {
		return nil, NewFormatError("rul0", "no INI source supplied")
	}

	b := newRUL0Builder()
	b.networkTypes = opts.NetworkTypes
	if err := opts.Source.Parse(buf, b.onTriple); err != nil {
		return nil, fmt.Errorf("rul0: %w", err)
	}
	if b.err != nil {
		return nil, b.err
	}
	if err := runRUL0Pipeline(b.record); err != nil {
		return nil, err
	}
	return b.record, nil
}

// FSHOptions configures ConvertToRGBA8WithOptions: the externally
// supplied block decoder for DXT-compressed bitmaps (spec.md §4.8 and
// SPEC_FULL.md's ambient-stack section both describe this as an
// injectable collaborator rather than a built-in).
type FSHOptions struct {
	BlockDecoder BlockDecoderFunc
}

// ConvertToRGBA8WithOptions is ConvertToRGBA8 with its decoder supplied
// via an options struct, matching this module's Options-struct idiom.
func ConvertToRGBA8WithOptions(b FSHBitmap, opts FSHOptions) ([]byte, error) {
	return ConvertToRGBA8(b, opts.BlockDecoder)
}

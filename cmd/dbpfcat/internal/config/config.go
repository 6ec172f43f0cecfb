// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dbpf

// Package config holds dbpfcat's flat, mapstructure-tagged configuration
// shape, following ossyrian-mintyparse's internal/config.Config pattern.
package config

// Config holds dbpfcat's list-command configuration: the label bound to
// the --label flag through viper. The input and label-glob flags are read
// directly by the commands, and log-level and log-output-dir are consumed
// by dbpf.LoadReaderOptions's own ReaderConfig rather than duplicated
// here.
type Config struct {
	Label string `mapstructure:"label"`
}

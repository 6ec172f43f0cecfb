// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dbpf

package dbpf

import (
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	slogmulti "github.com/samber/slog-multi"
)

// defaultLogger builds the package's default diagnostic logger: a
// tint-backed human-readable handler on stderr, matching
// ossyrian-mintyparse's internal/logging.Setup console handler.
func defaultLogger() *slog.Logger {
	return slog.New(tint.NewHandler(os.Stderr, nil))
}

// FanoutLogger builds a *slog.Logger that writes to every given handler,
// letting a caller attach a second structured sink (e.g. a file) alongside
// the human-readable default, mirroring ossyrian-mintyparse's own
// slogmulti.Fanout wiring in internal/logging.Setup.
func FanoutLogger(handlers ...slog.Handler) *slog.Logger {
	return slog.New(slogmulti.Fanout(handlers...))
}

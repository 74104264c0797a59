/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package logutil provides the process-wide logger used across this
// module. It mirrors the original Rust source's
// `env_logger::try_init()` call at the top of `Message::new()`: the
// first call wins, later calls are no-ops, and initialization never
// fails observably.
package logutil

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	once   sync.Once
	logger *logrus.Logger
)

// Init idempotently initializes the package-wide logger. It is safe
// to call from multiple goroutines and multiple times; only the first
// call has any effect. Failure during initialization (there is none
// today, but future backends may fail to open a sink) is swallowed,
// matching spec.md §5 ("failure is ignored").
func Init() {
	once.Do(func() {
		l := logrus.New()
		l.SetOutput(os.Stderr)
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

		if lvl, err := logrus.ParseLevel(os.Getenv("DIDCOMM_LOG_LEVEL")); err == nil {
			l.SetLevel(lvl)
		} else {
			l.SetLevel(logrus.WarnLevel)
		}

		logger = l
	})
}

// Log returns the process-wide logger, initializing it on first use.
func Log() *logrus.Logger {
	Init()
	return logger
}

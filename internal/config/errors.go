// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package config

import (
	"errors"
	"fmt"
)

// ErrConfig marks configuration errors. They are fatal and are reported
// before the sweep starts.
var ErrConfig = errors.New("invalid sweep configuration")

func configErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfig, fmt.Sprintf(format, args...))
}

// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package config

import "context"

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads configuration from the given paths and translates it into
	// the format-agnostic Document.
	Load(ctx context.Context, paths ...string) (*Document, error)
}

// PointSource supplies the parameter-point list for one analysis mode.
// Halo modules implement it.
type PointSource interface {
	ParameterPointList(ctx context.Context) ([]ParameterPoint, error)
}

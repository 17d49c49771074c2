// Package ledgers registers the invocation ledger backends: "memory" keeps
// entries for the lifetime of the process, "sqlite" persists them to a
// database file.
package ledgers

import (
	"context"

	"github.com/vk/dmsweep/internal/inmemoryledger"
	"github.com/vk/dmsweep/internal/ledger"
	"github.com/vk/dmsweep/internal/registry"
	"github.com/vk/dmsweep/internal/sqliteledger"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// MemoryInput is the (empty) body of a `ledger "memory" {}` block.
type MemoryInput struct{}

// SQLiteInput defines the arguments of a `ledger "sqlite" { ... }` block.
type SQLiteInput struct {
	// Path of the database file, relative to the sweep file. Empty keeps
	// the database in memory.
	Path string `hcl:"path,optional"`
}

// Register registers both ledger factories.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterLedger("memory", &registry.RegisteredLedger{
		NewInput: func() any { return new(MemoryInput) },
		Create: func(context.Context, registry.Env, any) (ledger.Ledger, error) {
			return inmemoryledger.New(), nil
		},
	})
	r.RegisterLedger("sqlite", &registry.RegisteredLedger{
		NewInput: func() any { return new(SQLiteInput) },
		Create: func(ctx context.Context, env registry.Env, input any) (ledger.Ledger, error) {
			return sqliteledger.Open(ctx, env.Resolve(input.(*SQLiteInput).Path))
		},
	})
}

package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/vk/dmsweep/internal/config"
	"github.com/vk/dmsweep/internal/ctxlog"
)

// DecodeBackend decodes a backend body into a module's input struct. A nil
// body (a backend chosen without a block) leaves the struct's defaults.
func DecodeBackend(ctx context.Context, kind string, b *config.Backend, target any) error {
	logger := ctxlog.FromContext(ctx)
	if b == nil || b.Body == nil {
		logger.Debug("No backend body to decode, keeping defaults.", "kind", kind)
		return nil
	}
	logger.Debug("Decoding backend body.", "kind", kind, "type", b.Type, "target", fmt.Sprintf("%T", target))

	if diags := gohcl.DecodeBody(b.Body, evalContext(), target); diags.HasErrors() {
		return fmt.Errorf("%w: invalid %s %q block: %w", config.ErrConfig, kind, b.Type, diags)
	}
	return nil
}

// EmptyBody returns a body with no content, for backends selected by name
// only.
func EmptyBody() hcl.Body {
	return hcl.EmptyBody()
}

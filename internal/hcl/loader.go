package hcl

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/dmsweep/internal/config"
	"github.com/vk/dmsweep/internal/ctxlog"
	"github.com/vk/dmsweep/internal/fsutil"
	"github.com/vk/dmsweep/internal/schema"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

var _ config.Loader = (*Loader)(nil)

// Load parses every .hcl file under paths and merges them into one
// Document. Exactly one sweep block must exist across all files, and each
// backend kind may be selected at most once.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Document, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := l.findAllHCLFiles(paths)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no .hcl files found in %v", config.ErrConfig, paths)
	}
	logger.Debug("Discovered HCL files.", "files", files)

	doc := &config.Document{Files: files}
	var sweep *schema.Sweep
	parser := hclparse.NewParser()

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("%w: failed to parse HCL file %s: %w", config.ErrConfig, file, diags)
		}

		var root schema.File
		if diags := gohcl.DecodeBody(hclFile.Body, evalContext(), &root); diags.HasErrors() {
			return nil, fmt.Errorf("%w: failed to decode HCL file %s: %w", config.ErrConfig, file, diags)
		}

		if root.Sweep != nil {
			if sweep != nil {
				return nil, fmt.Errorf("%w: duplicate sweep block in %s", config.ErrConfig, file)
			}
			sweep = root.Sweep
		}
		for kind, blocks := range map[string]struct {
			in  []*schema.Backend
			out **config.Backend
		}{
			"engine": {root.Engines, &doc.Engine},
			"plot":   {root.Plots, &doc.Plotter},
			"halo":   {root.Halos, &doc.Halo},
			"ledger": {root.Ledgers, &doc.Ledger},
		} {
			for _, b := range blocks.in {
				if *blocks.out != nil {
					return nil, fmt.Errorf("%w: %s backend selected more than once (%q in %s)", config.ErrConfig, kind, b.Type, file)
				}
				*blocks.out = &config.Backend{Type: b.Type, Body: b.Body}
			}
		}
		for _, q := range root.Quenching {
			if doc.Quenching == nil {
				doc.Quenching = make(map[string][]float64)
			}
			if _, dup := doc.Quenching[q.Token]; dup {
				return nil, fmt.Errorf("%w: duplicate quenching block %q in %s", config.ErrConfig, q.Token, file)
			}
			if len(q.Values) == 0 {
				return nil, fmt.Errorf("%w: quenching block %q needs at least one value", config.ErrConfig, q.Token)
			}
			doc.Quenching[q.Token] = q.Values
		}
		logger.Debug("Decoded HCL file.", "file", file)
	}

	if sweep == nil {
		return nil, fmt.Errorf("%w: no sweep block found", config.ErrConfig)
	}
	if err := l.translateSweep(ctx, sweep, doc); err != nil {
		return nil, err
	}

	logger.Debug("HCL loading complete.",
		"experiments", len(doc.Sweep.Experiments),
		"engine", backendType(doc.Engine),
		"plot", backendType(doc.Plotter),
		"halo", backendType(doc.Halo),
		"ledger", backendType(doc.Ledger),
	)
	return doc, nil
}

// findAllHCLFiles resolves files and directories into a sorted, de-duplicated
// list of .hcl files.
func (l *Loader) findAllHCLFiles(paths []string) ([]string, error) {
	seen := make(map[string]struct{})
	var all []string

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("%w: error accessing path %s: %w", config.ErrConfig, path, err)
		}
		var found []string
		if info.IsDir() {
			if found, err = fsutil.FindFilesByExtension(path, ".hcl"); err != nil {
				return nil, err
			}
		} else {
			found = []string{path}
		}
		for _, f := range found {
			if _, ok := seen[f]; !ok {
				seen[f] = struct{}{}
				all = append(all, f)
			}
		}
	}
	sort.Strings(all)
	return all, nil
}

func backendType(b *config.Backend) string {
	if b == nil {
		return "default"
	}
	return b.Type
}

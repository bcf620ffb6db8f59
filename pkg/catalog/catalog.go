// Package catalog loads part definitions from YAML files.
//
// A file holds either one definition or a list under a top-level "parts"
// key. A directory is loaded by reading every *.yaml and *.yml file in it
// in parallel. Part names must be unique across the whole catalog.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/danielgardiner81/MotoRouge/pkg/part"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// Catalog errors.
var (
	ErrDuplicatePart = errors.New("duplicate part name")
	ErrInvalidPart   = errors.New("invalid part definition")
	ErrUnknownPart   = errors.New("unknown part")
)

// maxParallel bounds concurrent file reads in a directory load.
const maxParallel = 8

// Finding is a validation finding tagged with the file it came from.
type Finding struct {
	Source string
	part.ValidationError
}

func (f Finding) String() string {
	return f.Source + ": " + f.ValidationError.Error()
}

type entry struct {
	def    *part.Definition
	source string
}

// Catalog is an immutable set of named part definitions.
type Catalog struct {
	parts    map[string]entry
	findings []Finding
}

// New builds a catalog from already-constructed definitions.
func New(defs ...*part.Definition) (*Catalog, error) {
	c := &Catalog{parts: make(map[string]entry)}
	for _, d := range defs {
		if err := c.add(d, "<memory>"); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Catalog) add(d *part.Definition, source string) error {
	if prev, ok := c.parts[d.Name]; ok {
		return fmt.Errorf("%w: %q in %s and %s", ErrDuplicatePart, d.Name, prev.source, source)
	}
	c.parts[d.Name] = entry{def: d, source: source}
	return nil
}

// Get returns a copy of the named definition.
func (c *Catalog) Get(name string) (*part.Definition, error) {
	e, ok := c.parts[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPart, name)
	}
	return e.def.Clone(), nil
}

// Source returns the file the named definition was loaded from.
func (c *Catalog) Source(name string) string {
	return c.parts[name].source
}

// Names returns the part names in sorted order.
func (c *Catalog) Names() []string {
	names := lo.Keys(c.parts)
	sort.Strings(names)
	return names
}

// Len returns the number of definitions.
func (c *Catalog) Len() int {
	return len(c.parts)
}

// Findings returns the warnings recorded while loading.
func (c *Catalog) Findings() []Finding {
	return c.findings
}

type fileDoc struct {
	Parts []*part.Definition `yaml:"parts"`
}

// Parse decodes the definitions in one YAML document.
func Parse(data []byte) ([]*part.Definition, error) {
	var probe map[string]yaml.Node
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return nil, err
	}
	if _, ok := probe["parts"]; ok {
		var doc fileDoc
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		return lo.Filter(doc.Parts, func(d *part.Definition, _ int) bool { return d != nil }), nil
	}
	if len(probe) == 0 {
		return nil, nil
	}
	var d part.Definition
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	return []*part.Definition{&d}, nil
}

// ReadFile parses the definitions stored in path.
func ReadFile(path string) ([]*part.Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	defs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	for _, d := range defs {
		d.Normalize()
	}
	return defs, nil
}

type loaded struct {
	source string
	defs   []*part.Definition
}

func yamlFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// read loads path (a file or a directory) into per-file results ordered by
// file name.
func read(ctx context.Context, path string) ([]loaded, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		defs, err := ReadFile(path)
		if err != nil {
			return nil, err
		}
		return []loaded{{source: path, defs: defs}}, nil
	}

	files, err := yamlFiles(path)
	if err != nil {
		return nil, err
	}
	results := make([]loaded, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallel)
	for i, f := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			defs, err := ReadFile(f)
			if err != nil {
				return err
			}
			results[i] = loaded{source: f, defs: defs}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Check reads path and validates every definition without rejecting any.
// The error is non-nil only for read, parse and duplicate-name failures.
func Check(ctx context.Context, path string) ([]Finding, error) {
	_, findings, err := build(ctx, path)
	return findings, err
}

// Open is Check that also returns the catalog, including definitions with
// error findings.
func Open(ctx context.Context, path string) (*Catalog, []Finding, error) {
	return build(ctx, path)
}

func build(ctx context.Context, path string) (*Catalog, []Finding, error) {
	results, err := read(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	c := &Catalog{parts: make(map[string]entry)}
	var findings []Finding
	for _, r := range results {
		for _, d := range r.defs {
			if err := c.add(d, r.source); err != nil {
				return nil, nil, err
			}
			for _, v := range part.Validate(d) {
				findings = append(findings, Finding{Source: r.source, ValidationError: v})
			}
		}
	}
	return c, findings, nil
}

// Load reads path and rejects it if any definition has error findings.
// Warnings are kept on the catalog and logged.
func Load(ctx context.Context, path string, log *zap.Logger) (*Catalog, error) {
	if log == nil {
		log = zap.NewNop()
	}
	c, findings, err := build(ctx, path)
	if err != nil {
		return nil, err
	}

	bad := lo.Filter(findings, func(f Finding, _ int) bool { return f.Severity == part.SeverityError })
	if len(bad) > 0 {
		return nil, fmt.Errorf("%w: %s (%d errors)", ErrInvalidPart, bad[0], len(bad))
	}
	for _, f := range findings {
		log.Warn("part definition warning",
			zap.String("source", f.Source),
			zap.String("part", f.Part),
			zap.String("point", f.Point),
			zap.String("message", f.Message))
	}
	c.findings = findings

	log.Debug("catalog loaded", zap.String("path", path), zap.Int("parts", c.Len()))
	return c, nil
}

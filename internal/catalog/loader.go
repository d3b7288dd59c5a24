package catalog

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/viant/afs"
	"gopkg.in/yaml.v3"

	"timscompare/internal/data/locator"
	"timscompare/internal/engine/model"
)

//go:embed builtin/*.cfg builtin/layouts.yaml
var builtinFS embed.FS

const builtinLayouts = "builtin/layouts.yaml"

// Options selects the definition files and layouts to load. Empty Dir or
// Layouts fall back to the built-in set.
type Options struct {
	Dir      string
	Patterns []string
	Layouts  string
	Links    map[model.Name]model.Name
}

// Load reads every .cfg file below opts.Dir matching opts.Patterns in lexical
// order. Duplicate names keep their first definition; the result is sorted by
// label.
func Load(ctx context.Context, opts Options) (*Catalog, error) {
	links := opts.Links
	if links == nil {
		links = DefaultLinks
	}

	var (
		defs []*model.Definition
		err  error
	)
	if strings.TrimSpace(opts.Dir) == "" {
		defs, err = loadBuiltinDefinitions(links)
	} else {
		defs, err = loadDefinitions(ctx, opts.Dir, opts.Patterns, links)
	}
	if err != nil {
		return nil, err
	}

	var layouts map[string][]model.Name
	if strings.TrimSpace(opts.Layouts) == "" {
		data, err := builtinFS.ReadFile(builtinLayouts)
		if err != nil {
			return nil, err
		}
		layouts, err = ParseLayouts(data)
		if err != nil {
			return nil, fmt.Errorf("built-in layouts: %w", err)
		}
	} else {
		layouts, err = LoadLayouts(ctx, opts.Layouts)
		if err != nil {
			return nil, err
		}
	}

	c := New(defs, layouts)
	sortByLabel(c.defs)
	slog.Debug("catalog loaded", "definitions", len(c.defs), "workflows", len(c.workflows))
	return c, nil
}

// Builtin returns the embedded catalog.
func Builtin() (*Catalog, error) {
	return Load(context.Background(), Options{})
}

func loadDefinitions(ctx context.Context, dir string, patterns []string, links map[model.Name]model.Name) ([]*model.Definition, error) {
	if len(patterns) == 0 {
		patterns = []string{"*.cfg"}
	}
	matchers, err := locator.Compile(patterns)
	if err != nil {
		return nil, err
	}

	var files []string
	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && locator.Match(matchers, p) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan catalog dir %q: %w", dir, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no catalog files matching %v in %q", patterns, dir)
	}

	service := afs.New()
	var defs []*model.Definition
	for _, file := range files {
		data, err := service.DownloadWithURL(ctx, file)
		if err != nil {
			return nil, fmt.Errorf("read catalog file %q: %w", file, err)
		}
		parsed, err := ParseCfg(data, filepath.Base(file), links)
		if err != nil {
			slog.Error("skipping malformed catalog file", "path", file, "error", err)
			continue
		}
		defs = append(defs, parsed...)
	}
	return defs, nil
}

func loadBuiltinDefinitions(links map[model.Name]model.Name) ([]*model.Definition, error) {
	entries, err := fs.Glob(builtinFS, "builtin/*.cfg")
	if err != nil {
		return nil, err
	}
	sort.Strings(entries)
	var defs []*model.Definition
	for _, name := range entries {
		data, err := builtinFS.ReadFile(name)
		if err != nil {
			return nil, err
		}
		parsed, err := ParseCfg(data, path.Base(name), links)
		if err != nil {
			return nil, err
		}
		defs = append(defs, parsed...)
	}
	return defs, nil
}

// LoadLayouts reads a layouts file: a mapping of workflow name to an ordered
// list of parameter names. JSON input is accepted as well.
func LoadLayouts(ctx context.Context, location string) (map[string][]model.Name, error) {
	data, err := afs.New().DownloadWithURL(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("read layouts %q: %w", location, err)
	}
	layouts, err := ParseLayouts(data)
	if err != nil {
		return nil, fmt.Errorf("layouts %q: %w", location, err)
	}
	return layouts, nil
}

func ParseLayouts(data []byte) (map[string][]model.Name, error) {
	var raw map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse layouts: %w", err)
	}
	out := make(map[string][]model.Name, len(raw))
	for wf, names := range raw {
		list := make([]model.Name, 0, len(names))
		for _, n := range names {
			if n = strings.TrimSpace(n); n != "" {
				list = append(list, model.Name(n))
			}
		}
		out[wf] = list
	}
	return out, nil
}

func sortByLabel(defs []*model.Definition) {
	sort.SliceStable(defs, func(i, j int) bool {
		return defs[i].Label < defs[j].Label
	})
}

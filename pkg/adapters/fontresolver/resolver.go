// Package fontresolver maps font family names to font files on disk.
package fontresolver

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/user/watermarker/pkg/pipeline"
	"github.com/user/watermarker/pkg/ports"
)

// fontExtensions are the file types the rasterizer can parse.
var fontExtensions = map[string]bool{
	".ttf": true,
	".otf": true,
	".ttc": true,
}

// variantSuffixes are tried after the exact family name.
var variantSuffixes = []string{"regular", "book", "roman", "normal"}

// Options configures a Resolver.
type Options struct {
	// Fonts maps family names to font file paths. Checked before any scan.
	Fonts map[string]string
	// Dirs are scanned recursively for font files.
	Dirs []string
}

// Resolver implements ports.FontResolver with an explicit mapping and a lazy
// directory index.
type Resolver struct {
	mapping map[string]string
	dirs    []string

	once     sync.Once
	index    map[string][]string // normalized base name -> paths
	families []string
}

// New creates a new Resolver.
func New(opts Options) *Resolver {
	mapping := make(map[string]string, len(opts.Fonts))
	for family, path := range opts.Fonts {
		mapping[Normalize(family)] = path
	}
	return &Resolver{
		mapping: mapping,
		dirs:    opts.Dirs,
	}
}

// Normalize lowercases a family or file name and strips spaces, dashes and underscores.
func Normalize(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(name)
}

// Resolve returns the font file for family.
func (r *Resolver) Resolve(family string) (string, error) {
	key := Normalize(family)
	if key == "" {
		return "", fmt.Errorf("%w: empty family", pipeline.ErrFontNotFound)
	}

	if path, ok := r.mapping[key]; ok {
		return path, nil
	}

	r.once.Do(r.scan)

	if paths, ok := r.index[key]; ok {
		return paths[0], nil
	}
	for _, suffix := range variantSuffixes {
		if paths, ok := r.index[key+suffix]; ok {
			return paths[0], nil
		}
	}

	return "", fmt.Errorf("%w: %s", pipeline.ErrFontNotFound, family)
}

// Families lists mapped and discovered family names, sorted.
func (r *Resolver) Families() []string {
	r.once.Do(r.scan)
	return append([]string(nil), r.families...)
}

// scan walks every directory once. Missing or unreadable directories are skipped.
func (r *Resolver) scan() {
	r.index = make(map[string][]string)
	names := make(map[string]string)

	for _, dir := range r.dirs {
		_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			ext := strings.ToLower(filepath.Ext(path))
			if !fontExtensions[ext] {
				return nil
			}
			base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			key := Normalize(base)
			r.index[key] = append(r.index[key], path)
			if _, ok := names[key]; !ok {
				names[key] = base
			}
			return nil
		})
	}

	for key := range r.index {
		sort.Strings(r.index[key])
	}

	for key := range r.mapping {
		if _, ok := names[key]; !ok {
			names[key] = key
		}
	}
	r.families = make([]string, 0, len(names))
	for _, name := range names {
		r.families = append(r.families, name)
	}
	sort.Strings(r.families)
}

// Ensure Resolver implements ports.FontResolver
var _ ports.FontResolver = (*Resolver)(nil)

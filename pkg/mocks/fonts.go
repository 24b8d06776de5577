package mocks

import (
	"fmt"
	"sort"

	"github.com/user/watermarker/pkg/pipeline"
	"github.com/user/watermarker/pkg/ports"
)

// FontResolver is a mock implementation of ports.FontResolver backed by a map.
type FontResolver struct {
	Paths map[string]string

	ResolveFunc func(family string) (string, error)
}

// NewFontResolver creates a resolver that knows the given family to path mapping.
func NewFontResolver(paths map[string]string) *FontResolver {
	if paths == nil {
		paths = make(map[string]string)
	}
	return &FontResolver{Paths: paths}
}

func (m *FontResolver) Resolve(family string) (string, error) {
	if m.ResolveFunc != nil {
		return m.ResolveFunc(family)
	}
	if p, ok := m.Paths[family]; ok {
		return p, nil
	}
	return "", fmt.Errorf("%w: %s", pipeline.ErrFontNotFound, family)
}

func (m *FontResolver) Families() []string {
	names := make([]string, 0, len(m.Paths))
	for name := range m.Paths {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var _ ports.FontResolver = (*FontResolver)(nil)

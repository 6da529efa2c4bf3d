// Package menu resolves sidebar navigation clicks to routes.
package menu

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default_menu.yaml
var defaultMenuYAML []byte

// Entry is a node of the navigation tree. An entry with children is a group
// and has no route; a leaf has at most one route.
type Entry struct {
	Key      string  `json:"key" yaml:"key"`
	Label    string  `json:"label" yaml:"label"`
	Icon     string  `json:"icon,omitempty" yaml:"icon,omitempty"`
	Route    string  `json:"route,omitempty" yaml:"route,omitempty"`
	Children []Entry `json:"children,omitempty" yaml:"children,omitempty"`
}

// IsGroup reports whether e only groups other entries.
func (e Entry) IsGroup() bool { return len(e.Children) > 0 }

// Navigator performs the client-side transition to a route.
type Navigator interface {
	Navigate(ctx context.Context, route string) error
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, route string) error

// Navigate calls f.
func (f NavigatorFunc) Navigate(ctx context.Context, route string) error { return f(ctx, route) }

// Definition is the on-disk shape of a menu.
type Definition struct {
	Items           []Entry  `json:"items" yaml:"items"`
	DefaultSelected []string `json:"default_selected,omitempty" yaml:"default_selected,omitempty"`
	DefaultOpen     []string `json:"default_open,omitempty" yaml:"default_open,omitempty"`
}

// Menu is a validated navigation tree.
type Menu struct {
	def    Definition
	routes map[string]string
}

// New validates def and indexes the routes held by its leaves.
func New(def Definition) (*Menu, error) {
	m := &Menu{def: def, routes: make(map[string]string)}
	seen := make(map[string]struct{})
	if err := index(def.Items, seen, m.routes); err != nil {
		return nil, err
	}
	for _, k := range append(append([]string{}, def.DefaultSelected...), def.DefaultOpen...) {
		if _, ok := seen[k]; !ok {
			return nil, fmt.Errorf("menu: default key %q is not in the tree", k)
		}
	}
	return m, nil
}

func index(entries []Entry, seen map[string]struct{}, routes map[string]string) error {
	for _, e := range entries {
		if e.Key == "" {
			return fmt.Errorf("menu: entry %q has an empty key", e.Label)
		}
		if _, dup := seen[e.Key]; dup {
			return fmt.Errorf("menu: duplicate key %q", e.Key)
		}
		seen[e.Key] = struct{}{}
		if e.IsGroup() {
			if e.Route != "" {
				return fmt.Errorf("menu: group %q must not have a route", e.Key)
			}
			if err := index(e.Children, seen, routes); err != nil {
				return err
			}
			continue
		}
		if e.Route != "" {
			routes[e.Key] = e.Route
		}
	}
	return nil
}

// Default returns the built-in admin menu.
func Default() (*Menu, error) {
	return Parse(defaultMenuYAML)
}

// Parse decodes a YAML menu definition and validates it.
func Parse(data []byte) (*Menu, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("menu: parse: %w", err)
	}
	return New(def)
}

// Load reads a menu definition from path. An empty path yields Default.
func Load(path string) (*Menu, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("menu: read %s: %w", path, err)
	}
	return Parse(data)
}

// Definition returns the menu tree and its defaults.
func (m *Menu) Definition() Definition { return m.def }

// Resolve returns the route for key. Groups and unknown keys have none.
func (m *Menu) Resolve(key string) (string, bool) {
	route, ok := m.routes[key]
	return route, ok
}

// Click resolves key and navigates when it has a route. An unresolved key
// is a no-op, not an error.
func (m *Menu) Click(ctx context.Context, key string, nav Navigator) (route string, navigated bool, err error) {
	route, ok := m.Resolve(key)
	if !ok {
		return "", false, nil
	}
	if nav == nil {
		return route, false, nil
	}
	if err := nav.Navigate(ctx, route); err != nil {
		return route, false, fmt.Errorf("menu: navigate to %s: %w", route, err)
	}
	return route, true, nil
}

// Resolve walks entries for the leaf with key and returns its route.
func Resolve(entries []Entry, key string) (string, bool) {
	for _, e := range entries {
		if e.Key == key {
			if e.IsGroup() || e.Route == "" {
				return "", false
			}
			return e.Route, true
		}
		if route, ok := Resolve(e.Children, key); ok {
			return route, true
		}
	}
	return "", false
}

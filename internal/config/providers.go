package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Provider describes one delivery platform we build deep links for.
// URLTemplate must contain a single %s placeholder for the slugified name.
type Provider struct {
	Key         string `yaml:"key"`
	Domain      string `yaml:"domain"`
	URLTemplate string `yaml:"url_template"`
}

// Registry resolves provider keys to their link-building parameters.
type Registry struct {
	providers map[string]Provider
}

var builtinProviders = []Provider{
	{Key: "wolt", Domain: "wolt.com", URLTemplate: "https://wolt.com/en/restaurant/%s"},
	{Key: "tenbis", Domain: "10bis.co.il", URLTemplate: "https://www.10bis.co.il/next/restaurants/menu/delivery/%s"},
}

// LoadProviders builds the registry from built-ins, optionally merged with a
// YAML file so deployments can add or override providers without a rebuild.
func LoadProviders(path string) (*Registry, error) {
	r := &Registry{providers: make(map[string]Provider, len(builtinProviders))}
	for _, p := range builtinProviders {
		r.providers[p.Key] = p
	}
	if path == "" {
		return r, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read providers file: %w", err)
	}
	var file struct {
		Providers []Provider `yaml:"providers"`
	}
	if err := yaml.Unmarshal(b, &file); err != nil {
		return nil, fmt.Errorf("parse providers file: %w", err)
	}
	for _, p := range file.Providers {
		if p.Key == "" {
			return nil, fmt.Errorf("provider entry missing key")
		}
		r.providers[p.Key] = p
	}
	return r, nil
}

// Get returns the provider for key, or false when none is registered.
func (r *Registry) Get(key string) (Provider, bool) {
	p, ok := r.providers[key]
	return p, ok
}

// Keys lists the registered provider keys.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.providers))
	for k := range r.providers {
		keys = append(keys, k)
	}
	return keys
}

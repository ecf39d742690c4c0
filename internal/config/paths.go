package config

import "path/filepath"

// Paths is the nested-path builder consumed by the file-loading layers.
// Every leaf defaults to a location under Root; callers may override any
// leaf before boot finishes.
type Paths struct {
	Root       string `yaml:"root"`
	Log        string `yaml:"log"`
	Cache      string `yaml:"cache"`
	Tmp        string `yaml:"tmp"`
	Plugins    string `yaml:"plugins"`
	Migrations string `yaml:"migrations"`
	Locales    string `yaml:"locales"`
}

// DefaultPaths returns the conventional layout rooted at root.
func DefaultPaths(root string) Paths {
	if root == "" {
		root = "."
	}
	return Paths{
		Root:       root,
		Log:        filepath.Join(root, "log"),
		Cache:      filepath.Join(root, "tmp", "cache"),
		Tmp:        filepath.Join(root, "tmp"),
		Plugins:    filepath.Join(root, "plugins"),
		Migrations: filepath.Join(root, "db", "migrations"),
		Locales:    filepath.Join(root, "config", "locales"),
	}
}

// fillDefaults replaces empty leaves with the conventional layout, keeping
// any leaf the config file set explicitly.
func (p *Paths) fillDefaults() {
	defaults := DefaultPaths(p.Root)
	if p.Root == "" {
		p.Root = defaults.Root
	}
	if p.Log == "" {
		p.Log = defaults.Log
	}
	if p.Cache == "" {
		p.Cache = defaults.Cache
	}
	if p.Tmp == "" {
		p.Tmp = defaults.Tmp
	}
	if p.Plugins == "" {
		p.Plugins = defaults.Plugins
	}
	if p.Migrations == "" {
		p.Migrations = defaults.Migrations
	}
	if p.Locales == "" {
		p.Locales = defaults.Locales
	}
}

// Package i18n provides the translation catalog backing user-facing messages.
//
// Catalogs are flat maps from dotted keys to templates, grouped by locale.
// Lookups walk an ordered fallback chain of keys and an ordered fallback chain
// of locales; the first template found wins.
package i18n

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/openfieldhq/webcore/internal/errors"
)

// DefaultLocale is used when a lookup locale has no entries at all.
const DefaultLocale = "en"

var interpolationPattern = regexp.MustCompile(`%\{([a-zA-Z0-9_]+)\}`)

// Catalog holds translations for a set of locales.
type Catalog struct {
	mu            sync.RWMutex
	defaultLocale string
	entries       map[string]map[string]string // locale -> dotted key -> template
}

// NewCatalog creates an empty catalog with the given default locale.
// An empty defaultLocale falls back to DefaultLocale.
func NewCatalog(defaultLocale string) *Catalog {
	if defaultLocale == "" {
		defaultLocale = DefaultLocale
	}
	return &Catalog{
		defaultLocale: defaultLocale,
		entries:       make(map[string]map[string]string),
	}
}

// Add registers a single template under locale and key, replacing any
// existing entry.
func (c *Catalog) Add(locale, key, template string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries[locale] == nil {
		c.entries[locale] = make(map[string]string)
	}
	c.entries[locale][key] = template
}

// LoadFile merges one YAML locale file into the catalog. The file's top level
// maps locale names to arbitrarily nested string tables, which are flattened
// to dotted keys:
//
//	en:
//	  webcore:
//	    errors:
//	      messages:
//	        blank: "can't be blank"
func (c *Catalog) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read locale file: %w", err)
	}

	var doc map[string]interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse locale file %s: %w", filepath.Base(path), err)
	}

	for locale, tree := range doc {
		flat := make(map[string]string)
		if err := flatten("", tree, flat); err != nil {
			return fmt.Errorf("locale %s in %s: %w", locale, filepath.Base(path), err)
		}
		c.mu.Lock()
		if c.entries[locale] == nil {
			c.entries[locale] = make(map[string]string)
		}
		for k, v := range flat {
			c.entries[locale][k] = v
		}
		c.mu.Unlock()
	}
	return nil
}

// LoadDir merges every *.yml and *.yaml file under dir, in lexical order so
// later files override earlier ones deterministically.
func (c *Catalog) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read locale dir: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext == ".yml" || ext == ".yaml" {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)

	for _, file := range files {
		if err := c.LoadFile(file); err != nil {
			return err
		}
	}
	return nil
}

func flatten(prefix string, node interface{}, out map[string]string) error {
	switch v := node.(type) {
	case map[string]interface{}:
		for k, child := range v {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			if err := flatten(key, child, out); err != nil {
				return err
			}
		}
		return nil
	case string:
		if prefix == "" {
			return fmt.Errorf("top-level scalar not allowed")
		}
		out[prefix] = v
		return nil
	case nil:
		return nil
	default:
		return fmt.Errorf("key %s: unsupported value type %T", prefix, node)
	}
}

// localeChain returns the locales to consult for a lookup: the exact locale,
// its language root ("en-GB" -> "en"), then the default locale.
func (c *Catalog) localeChain(locale string) []string {
	if locale == "" {
		return []string{c.defaultLocale}
	}
	chain := []string{locale}
	if i := strings.IndexAny(locale, "-_"); i > 0 {
		chain = append(chain, locale[:i])
	}
	if last := chain[len(chain)-1]; last != c.defaultLocale {
		chain = append(chain, c.defaultLocale)
	}
	return chain
}

// Lookup returns the raw template for the first key that resolves, trying
// each key against the full locale chain before moving to the next key.
func (c *Catalog) Lookup(locale string, keys []string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	chain := c.localeChain(locale)
	for _, key := range keys {
		for _, loc := range chain {
			if table, ok := c.entries[loc]; ok {
				if template, ok := table[key]; ok {
					return template, true
				}
			}
		}
	}
	return "", false
}

// Resolve looks up the first matching key and interpolates vars into it.
// When every key misses it returns a TranslationMissing error naming the
// first (most specific) key tried.
func (c *Catalog) Resolve(locale string, keys []string, vars map[string]string) (string, error) {
	template, ok := c.Lookup(locale, keys)
	if !ok {
		tried := ""
		if len(keys) > 0 {
			tried = keys[0]
		}
		return "", errors.TranslationMissing(locale, tried).WithDetails("tried", keys)
	}
	return Interpolate(template, vars), nil
}

// Interpolate substitutes %{name} placeholders from vars. Placeholders with
// no matching var are left verbatim so the gap is visible in output.
func Interpolate(template string, vars map[string]string) string {
	if len(vars) == 0 || !strings.Contains(template, "%{") {
		return template
	}
	return interpolationPattern.ReplaceAllStringFunc(template, func(match string) string {
		name := match[2 : len(match)-1]
		if value, ok := vars[name]; ok {
			return value
		}
		return match
	})
}

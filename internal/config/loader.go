package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type SourceKind string

const (
	SourceDefault SourceKind = "default"
	SourceFile    SourceKind = "file"
	SourceFlag    SourceKind = "flag"
)

type Source struct {
	Kind   SourceKind
	Name   string // for default/flag
	File   string
	Line   int
	Column int
}

func (s Source) String() string {
	switch s.Kind {
	case SourceFile:
		return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Column)
	case SourceFlag:
		return "flag --" + s.Name
	default:
		return "default"
	}
}

type LoadResult struct {
	Config  *Config
	Sources map[string]Source // YAML key -> writer
	File    string            // empty when no file was read
}

// rawConfig mirrors Config with pointers so unset keys keep their defaults.
type rawConfig struct {
	Vault        *string `yaml:"vault"`
	VaultPath    *string `yaml:"vault_path"`
	AppClass     *string `yaml:"app_class"`
	TitlePattern *string `yaml:"title_pattern"`
	URIScheme    *string `yaml:"uri_scheme"`
	SettingsFile *string `yaml:"settings_file"`
	LogLevel     *string `yaml:"log_level"`
	Palette      *string `yaml:"palette"`
	Display      *string `yaml:"display"`
	XAuthority   *string `yaml:"xauthority"`
}

func (r rawConfig) apply(cfg *Config) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&cfg.Vault, r.Vault)
	set(&cfg.VaultPath, r.VaultPath)
	set(&cfg.AppClass, r.AppClass)
	set(&cfg.TitlePattern, r.TitlePattern)
	set(&cfg.URIScheme, r.URIScheme)
	set(&cfg.SettingsFile, r.SettingsFile)
	set(&cfg.LogLevel, r.LogLevel)
	set(&cfg.Palette, r.Palette)
	set(&cfg.Display, r.Display)
	set(&cfg.XAuthority, r.XAuthority)
}

// Override replaces a config value after the file is read, typically from a
// command line flag.
type Override struct {
	Key   string
	Value string
}

func (o Override) apply(cfg *Config) error {
	switch o.Key {
	case "vault":
		cfg.Vault = o.Value
	case "vault_path":
		cfg.VaultPath = o.Value
	case "display":
		cfg.Display = o.Value
	case "settings_file":
		cfg.SettingsFile = o.Value
	case "log_level":
		cfg.LogLevel = o.Value
	case "palette":
		cfg.Palette = o.Value
	default:
		return fmt.Errorf("cannot override %q", o.Key)
	}
	return nil
}

func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "vaulttray", "config.yaml"), nil
}

// Load reads the configuration from the standard location.
func Load(overrides ...Override) (*LoadResult, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path, overrides...)
}

// LoadFromPath reads path, applies overrides (empty values are skipped) and
// validates the result. A missing file yields the defaults.
func LoadFromPath(path string, overrides ...Override) (*LoadResult, error) {
	cfg := DefaultConfig()
	sources := map[string]Source{}
	res := &LoadResult{Config: cfg, Sources: sources}

	exists, err := pathExists(path)
	if err != nil {
		return nil, err
	}
	if exists {
		canon, err := canonicalPath(path)
		if err != nil {
			return nil, err
		}
		data, err := os.ReadFile(canon)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to read: %w", canon, err)
		}

		var doc yaml.Node
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%s: failed to parse yaml: %w", canon, err)
		}
		var raw rawConfig
		if err := decodeStrictYAML(data, &raw); err != nil {
			return nil, fmt.Errorf("%s: %w", canon, err)
		}
		raw.apply(cfg)
		for key, src := range collectSources(&doc, canon) {
			sources[key] = src
		}
		res.File = canon
	}

	for _, o := range overrides {
		if o.Value == "" {
			continue
		}
		if err := o.apply(cfg); err != nil {
			return nil, err
		}
		sources[o.Key] = Source{Kind: SourceFlag, Name: o.Key}
	}

	if cfg.VaultPath != "" {
		expanded, err := expandHome(cfg.VaultPath)
		if err != nil {
			return nil, err
		}
		cfg.VaultPath = expanded
	}

	if err := cfg.Validate(); err != nil {
		return nil, attachSourceContext(err, sources)
	}
	return res, nil
}

// Explain returns where the value of key came from.
func (r *LoadResult) Explain(key string) Source {
	if r != nil {
		if src, ok := r.Sources[key]; ok {
			return src
		}
	}
	return Source{Kind: SourceDefault, Name: "defaults"}
}

func decodeStrictYAML(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}
	return nil
}

func canonicalPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %q: %w", path, err)
	}
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		// Best-effort; still use abs.
		return abs, nil
	}
	return real, nil
}

func pathExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func collectSources(doc *yaml.Node, file string) map[string]Source {
	out := make(map[string]Source)
	if doc == nil {
		return out
	}
	node := doc
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}
	if node.Kind != yaml.MappingNode {
		return out
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		valNode := node.Content[i+1]
		out[node.Content[i].Value] = Source{
			Kind:   SourceFile,
			File:   file,
			Line:   valNode.Line,
			Column: valNode.Column,
		}
	}
	return out
}

func attachSourceContext(err error, sources map[string]Source) error {
	verr, ok := err.(*ValidationError)
	if !ok || verr == nil {
		return err
	}
	if verr.Path == "" {
		return err
	}
	if src, ok := sources[verr.Path]; ok {
		verr.Source = src
	}
	return verr
}

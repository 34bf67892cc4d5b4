package audio

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

//go:embed catalog.toml
var defaultCatalogTOML []byte

// catalogFile is the on-disk shape of a sound catalog
type catalogFile struct {
	Sounds []catalogEntry `toml:"sound"`
}

type catalogEntry struct {
	ID          string  `toml:"id"`
	Name        string  `toml:"name"`
	Description string  `toml:"description"`
	Kind        string  `toml:"kind"`
	Color       string  `toml:"color"`
	Base        float64 `toml:"base"`
	Beat        float64 `toml:"beat"`
	Source      string  `toml:"src"`
}

// Catalog is an ordered, id-indexed set of descriptors loaded once at startup
type Catalog struct {
	sounds []SoundDescriptor
	byID   map[string]int
}

// DefaultCatalog returns the embedded catalog
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(defaultCatalogTOML)
	if err != nil {
		// Embedded data is covered by tests
		panic(fmt.Sprintf("audio: embedded catalog: %v", err))
	}
	return c
}

// LoadCatalog reads a TOML catalog from path
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return ParseCatalog(data)
}

// LoadConfiguredCatalog returns the catalog named by cfg, or the embedded one when no path is set
func LoadConfiguredCatalog(cfg *AudioConfig) (*Catalog, error) {
	if cfg == nil || cfg.CatalogPath == "" {
		return DefaultCatalog(), nil
	}
	return LoadCatalog(cfg.CatalogPath)
}

// ParseCatalog decodes and validates a TOML catalog
func ParseCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	md, err := toml.Decode(string(data), &file)
	if err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%w: unknown catalog keys: %s", ErrInvalidDescriptor, strings.Join(keys, ", "))
	}

	c := &Catalog{
		sounds: make([]SoundDescriptor, 0, len(file.Sounds)),
		byID:   make(map[string]int, len(file.Sounds)),
	}
	for _, e := range file.Sounds {
		d, err := e.descriptor()
		if err != nil {
			return nil, err
		}
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.byID[d.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrInvalidDescriptor, d.ID)
		}
		c.byID[d.ID] = len(c.sounds)
		c.sounds = append(c.sounds, d)
	}
	return c, nil
}

func (e catalogEntry) descriptor() (SoundDescriptor, error) {
	kind, err := ParseSoundKind(e.Kind)
	if err != nil {
		return SoundDescriptor{}, fmt.Errorf("sound %q: %w", e.ID, err)
	}

	d := SoundDescriptor{
		ID:          e.ID,
		DisplayName: e.Name,
		Description: e.Description,
		Kind:        kind,
		BaseHz:      e.Base,
		BeatHz:      e.Beat,
		Source:      e.Source,
	}
	if kind == KindNoise {
		if d.Color, err = ParseNoiseColor(e.Color); err != nil {
			return SoundDescriptor{}, fmt.Errorf("sound %q: %w", e.ID, err)
		}
	}
	return d, nil
}

// Lookup returns the descriptor for id
func (c *Catalog) Lookup(id string) (SoundDescriptor, error) {
	i, ok := c.byID[id]
	if !ok {
		return SoundDescriptor{}, fmt.Errorf("%w: %q", ErrUnknownSound, id)
	}
	return c.sounds[i], nil
}

// Sounds returns the descriptors in catalog order
func (c *Catalog) Sounds() []SoundDescriptor {
	out := make([]SoundDescriptor, len(c.sounds))
	copy(out, c.sounds)
	return out
}

// Len returns the number of descriptors
func (c *Catalog) Len() int {
	return len(c.sounds)
}

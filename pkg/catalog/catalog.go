package catalog

import (
	"fmt"
	"sort"
	"sync"

	"github.com/teslashibe/go-spatialaudio/pkg/acoustic"
)

// Default profile for operators missing from the catalog.
var unknownOperator = Operator{
	FrequencyRange:  acoustic.FrequencyRange{Low: 300, High: 2000},
	VolumeDB:        -15,
	SpatialFalloff:  2.0,
	ReverbAmount:    0.4,
	OcclusionFactor: 0.5,
	Directional:     true,
}

// Ambient sounds are quiet, omnidirectional and pass through walls easily.
const (
	ambientFalloff   = 1.0
	ambientReverb    = 0.2
	ambientOcclusion = 0.8
)

// Catalog holds operator and map data keyed by name.
type Catalog struct {
	mu        sync.RWMutex
	operators map[string]Operator
	maps      map[string]Map
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{
		operators: make(map[string]Operator),
		maps:      make(map[string]Map),
	}
}

// Load returns a catalog populated from the embedded data.
func Load() (*Catalog, error) {
	doc, err := loadEmbedded()
	if err != nil {
		return nil, err
	}
	c := New()
	c.apply(doc)
	return c, nil
}

// LoadFile returns the embedded catalog with entries from path layered on
// top. Entries in the file replace embedded entries of the same name.
func LoadFile(path string) (*Catalog, error) {
	c, err := Load()
	if err != nil {
		return nil, err
	}
	if err := c.MergeFile(path); err != nil {
		return nil, err
	}
	return c, nil
}

// MergeFile layers the entries in path over the current contents.
func (c *Catalog) MergeFile(path string) error {
	doc, err := loadFile(path)
	if err != nil {
		return err
	}
	c.apply(doc)
	return nil
}

func (c *Catalog) apply(doc *document) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for name, op := range doc.Operators {
		c.operators[name] = op
	}
	for name, m := range doc.Maps {
		c.maps[name] = m
	}
}

// RegisterOperator adds or replaces an operator.
func (c *Catalog) RegisterOperator(op Operator) error {
	if err := op.Profile().Validate(); err != nil {
		return fmt.Errorf("%w: operator %q: %v", ErrInvalidData, op.Name, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.operators[op.Name] = op
	return nil
}

// RegisterMap adds or replaces a map.
func (c *Catalog) RegisterMap(m Map) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maps[m.Name] = m
}

// Operator retrieves an operator by exact name.
func (c *Catalog) Operator(name string) (Operator, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	op, ok := c.operators[name]
	if !ok {
		return Operator{}, fmt.Errorf("%w: operator %s", ErrNotFound, name)
	}
	return op, nil
}

// Map retrieves a map by exact name.
func (c *Catalog) Map(name string) (Map, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	m, ok := c.maps[name]
	if !ok {
		return Map{}, fmt.Errorf("%w: map %s", ErrNotFound, name)
	}
	return m, nil
}

// OperatorProfile returns the acoustic profile for name. Unknown operators
// get a generic medium-weight profile described as unknown.
func (c *Catalog) OperatorProfile(name string) acoustic.Profile {
	op, err := c.Operator(name)
	if err != nil {
		op = unknownOperator
		op.Name = name
		op.Description = "Unknown operator: " + name
	}
	return op.Profile()
}

// MapAmbientProfiles returns one acoustic profile per ambient sound audible
// in zone. Unknown maps yield an empty list.
func (c *Catalog) MapAmbientProfiles(mapName, zone string) []acoustic.Profile {
	m, err := c.Map(mapName)
	if err != nil {
		return []acoustic.Profile{}
	}

	sounds := m.SoundsIn(zone)
	profiles := make([]acoustic.Profile, 0, len(sounds))
	for _, s := range sounds {
		profiles = append(profiles, acoustic.Profile{
			Name:            mapName + "_" + s.Name,
			Description:     fmt.Sprintf("Ambient sound: %s on %s", s.Name, mapName),
			FrequencyRange:  s.Frequency,
			VolumeDB:        s.VolumeDB,
			SpatialFalloff:  ambientFalloff,
			ReverbAmount:    ambientReverb,
			OcclusionFactor: ambientOcclusion,
			Directional:     false,
		})
	}
	return profiles
}

// Operators returns all operator names, sorted.
func (c *Catalog) Operators() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.operators))
	for name := range c.operators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Maps returns all map names, sorted.
func (c *Catalog) Maps() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.maps))
	for name := range c.maps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

package recommend

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Vocabulary holds the keyword-expansion tables for the three keyword
// sub-scores. Each table maps a canonical term to its synonym variants, so
// "oak" in a product material expands to the whole wood family and "navy"
// in a color expands to the blue family. The tables are plain data so they
// can be tuned without touching scoring logic.
type Vocabulary struct {
	Categories map[string][]string `yaml:"categories"`
	Materials  map[string][]string `yaml:"materials"`
	Colors     map[string][]string `yaml:"colors"`
}

// DefaultVocabulary returns the built-in furniture keyword tables.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Categories: map[string][]string{
			"chair":      {"chair", "seat", "stool", "seating"},
			"table":      {"table", "desk", "console", "stand"},
			"bed":        {"bed", "mattress", "bedroom", "headboard", "frame"},
			"sofa":       {"sofa", "couch", "loveseat", "sectional", "futon"},
			"storage":    {"storage", "cabinet", "shelf", "shelving", "organizer", "rack", "drawer", "dresser", "chest"},
			"outdoor":    {"outdoor", "patio", "garden", "deck"},
			"office":     {"office", "desk", "workspace", "workstation"},
			"kitchen":    {"kitchen", "dining", "pantry"},
			"lighting":   {"lamp", "light", "lighting", "fixture", "chandelier", "sconce"},
			"bathroom":   {"bathroom", "bath", "shower", "vanity", "toilet"},
			"living":     {"living", "room", "family", "lounge"},
			"bookshelf":  {"bookshelf", "bookcase", "shelving"},
			"nightstand": {"nightstand", "bedside", "night table"},
			"ottoman":    {"ottoman", "footstool", "pouf"},
			"bench":      {"bench", "seating bench"},
			"wardrobe":   {"wardrobe", "armoire", "closet"},
			"mirror":     {"mirror", "wall mirror"},
			"rug":        {"rug", "carpet", "mat"},
		},
		Materials: map[string][]string{
			"wood":    {"wood", "wooden", "oak", "pine", "walnut", "mahogany", "bamboo", "wicker", "rattan", "cane"},
			"metal":   {"metal", "steel", "iron", "aluminum", "brass"},
			"plastic": {"plastic", "acrylic", "resin"},
			"fabric":  {"fabric", "upholstered", "textile", "linen", "velvet", "foam", "cushion", "padded"},
			"leather": {"leather", "faux leather", "genuine leather"},
			"glass":   {"glass", "tempered glass"},
			"stone":   {"marble", "stone", "concrete", "granite"},
		},
		Colors: map[string][]string{
			"black":    {"black"},
			"white":    {"white", "cream", "ivory"},
			"brown":    {"brown", "tan", "beige", "walnut", "espresso"},
			"gray":     {"gray", "grey", "charcoal"},
			"blue":     {"blue", "navy", "light blue", "dark blue", "teal"},
			"red":      {"red", "burgundy", "maroon"},
			"green":    {"green", "olive", "sage"},
			"yellow":   {"yellow", "gold", "mustard"},
			"orange":   {"orange", "rust", "coral"},
			"pink":     {"pink", "rose", "blush"},
			"purple":   {"purple", "lavender", "plum"},
			"metallic": {"silver", "bronze", "copper"},
		},
	}
}

// LoadVocabulary reads keyword tables from a YAML file. Tables missing from
// the file fall back to the built-in defaults.
func LoadVocabulary(path string) (Vocabulary, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Vocabulary{}, fmt.Errorf("read keyword tables %s: %w", path, err)
	}

	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return Vocabulary{}, fmt.Errorf("parse keyword tables: %w", err)
	}

	def := DefaultVocabulary()
	if len(v.Categories) == 0 {
		v.Categories = def.Categories
	}
	if len(v.Materials) == 0 {
		v.Materials = def.Materials
	}
	if len(v.Colors) == 0 {
		v.Colors = def.Colors
	}
	return v, nil
}

// keywordSet is an expanded set of single-token keywords for one product attribute.
type keywordSet map[string]struct{}

func (s keywordSet) contains(token string) bool {
	_, ok := s[token]
	return ok
}

// expand builds the keyword set for an attribute value from one table:
// the attribute's own tokens plus every variant (and variant word) of each
// table entry whose variants intersect the attribute text.
func expand(table map[string][]string, attribute string) keywordSet {
	set := make(keywordSet)
	attr := strings.ToLower(attribute)
	if strings.TrimSpace(attr) == "" {
		return set
	}

	for _, tok := range Tokenize(attr) {
		set[tok] = struct{}{}
	}

	for canonical, variants := range table {
		if !anyVariantIn(variants, canonical, attr) {
			continue
		}
		set[canonical] = struct{}{}
		for _, v := range variants {
			for _, tok := range Tokenize(v) {
				set[tok] = struct{}{}
			}
		}
	}
	return set
}

func anyVariantIn(variants []string, canonical, attr string) bool {
	if strings.Contains(attr, canonical) {
		return true
	}
	for _, v := range variants {
		if strings.Contains(attr, v) {
			return true
		}
	}
	return false
}

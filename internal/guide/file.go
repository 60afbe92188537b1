package guide

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/sketchcoach/internal/model"
)

var validate = validator.New()

type fileGuide struct {
	Shape              string        `toml:"shape" yaml:"shape" validate:"required"`
	Category           string        `toml:"category" yaml:"category" validate:"omitempty,oneof=shapes lines curves mastery"`
	Closed             *bool         `toml:"closed" yaml:"closed"`
	ExpectedDurationMs float64       `toml:"expected-duration-ms" yaml:"expected-duration-ms" validate:"gte=0"`
	Points             []model.Point `toml:"points" yaml:"points" validate:"omitempty,min=2"`
}

type guideFile struct {
	Guides []fileGuide `toml:"guide" yaml:"guides" validate:"required,min=1,dive"`
}

// LoadFile reads custom guides from a TOML or YAML file and layers them over base.
// Entries without points adjust a guide base already defines.
func LoadFile(path string, base *Catalog) (*Catalog, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only guide file.
			_ = cerr
		}
	}()

	var parsed guideFile
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		meta, err := toml.NewDecoder(file).Decode(&parsed)
		if err != nil {
			return nil, fmt.Errorf("failed to parse guide file: %w", err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("%w: unknown key %q", ErrInvalidDefinition, undecoded[0].String())
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(file)
		dec.KnownFields(true)
		if err := dec.Decode(&parsed); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse guide file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported guide file extension %q", ext)
	}
	return parsed.apply(base)
}

func (f guideFile) apply(base *Catalog) (*Catalog, error) {
	if err := validate.Struct(f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDefinition, err)
	}
	if base == nil {
		base = &Catalog{defs: map[model.ShapeID]Definition{}}
	}

	defs := make([]Definition, 0, len(f.Guides))
	for _, g := range f.Guides {
		shape := model.ShapeID(strings.TrimSpace(g.Shape))
		def, known := base.Definition(shape)
		if len(g.Points) == 0 {
			if !known {
				return nil, fmt.Errorf("%w: %s has no points", ErrUnknownShape, shape)
			}
		} else {
			def = Definition{Shape: shape, Category: model.CategoryShapes, Points: g.Points}
		}
		if g.Category != "" {
			def.Category = model.LessonCategory(g.Category)
		}
		if g.Closed != nil {
			def.Closed = *g.Closed
		}
		if g.ExpectedDurationMs > 0 {
			def.Pacing = &model.Pacing{ExpectedDurationMs: g.ExpectedDurationMs}
		}
		defs = append(defs, def)
	}
	return base.Merge(defs...)
}

package frames

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Manifest lists the animations to load, in selection order.
type Manifest struct {
	Mirror     bool    `yaml:"mirror"`
	Animations []Entry `yaml:"animations"`
}

// Entry describes one animation. Exactly one of File, Images and Generator
// is expected.
type Entry struct {
	Name string `yaml:"name"`

	// File is a binary animation or a C initializer (".inc").
	File string `yaml:"file,omitempty"`

	// Images are XBM or PNG files shown FrameMs each.
	Images []string `yaml:"images,omitempty"`
	Invert bool     `yaml:"invert,omitempty"`

	// Generator is one of builtin, scroller, mirror, eyes, blink, swarm
	// or label.
	Generator string `yaml:"generator,omitempty"`
	Text      string `yaml:"text,omitempty"`
	Count     int    `yaml:"count,omitempty"`

	FrameMs int `yaml:"frame_ms,omitempty"`
}

const defaultFrameMs = 80

// LoadManifest reads the manifest at path and builds every animation it
// lists. Relative paths are resolved against the manifest folder.
func LoadManifest(path string) (*Store, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("frames: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("frames: unable to interpret %s: %w", path, err)
	}
	return m.Build(filepath.Dir(path))
}

// Build creates the animations of m, resolving relative paths against dir.
func (m *Manifest) Build(dir string) (*Store, error) {
	if len(m.Animations) == 0 {
		return nil, errors.New("frames: manifest lists no animation")
	}
	var anims []*Animation
	for i, e := range m.Animations {
		as, err := e.build(dir, PackOpts{Mirror: m.Mirror, Invert: e.Invert})
		if err != nil {
			return nil, fmt.Errorf("frames: entry %d (%s): %w", i, e.Name, err)
		}
		anims = append(anims, as...)
	}
	return NewStore(anims...)
}

func (e Entry) build(dir string, opts PackOpts) ([]*Animation, error) {
	d := time.Duration(e.FrameMs) * time.Millisecond
	if e.FrameMs <= 0 {
		d = defaultFrameMs * time.Millisecond
	}
	resolve := func(p string) string {
		if filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	switch {
	case e.File != "":
		a, err := LoadFile(resolve(e.File), e.Name)
		if err != nil {
			return nil, err
		}
		return []*Animation{a}, nil
	case len(e.Images) > 0:
		paths := make([]string, len(e.Images))
		for i, p := range e.Images {
			paths[i] = resolve(p)
		}
		a, err := FromImageFiles(e.Name, paths, d, opts)
		if err != nil {
			return nil, err
		}
		return []*Animation{a}, nil
	}

	text := e.Text
	if text == "" {
		text = e.Name
	}
	switch e.Generator {
	case "builtin":
		return Builtin(opts), nil
	case "scroller":
		return []*Animation{Scroller(e.Name, text, 2, d, opts)}, nil
	case "mirror":
		return []*Animation{Mirror(e.Name, text, d, opts)}, nil
	case "eyes":
		return []*Animation{Eyes(e.Name, 0, true, d, opts)}, nil
	case "blink":
		blinks := e.Count
		if blinks <= 0 {
			blinks = 2
		}
		return []*Animation{Eyes(e.Name, blinks, false, d, opts)}, nil
	case "swarm":
		count := e.Count
		if count <= 0 {
			count = 40
		}
		return []*Animation{Swarm(e.Name, count, 60, int64(len(e.Name)), d, opts)}, nil
	case "label":
		return []*Animation{Still(e.Name, Label(text), d, opts)}, nil
	case "":
		return nil, errors.New("no file, images or generator")
	default:
		return nil, fmt.Errorf("unknown generator %q", e.Generator)
	}
}

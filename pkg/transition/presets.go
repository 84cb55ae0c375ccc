package transition

import (
	"fmt"
	"sort"
	"time"

	"github.com/aretw0/pageflow/pkg/domain"
)

// Timings are the wall-clock durations of the overlay phases. They only exist to
// let the presentation animation finish before state changes become visible.
type Timings struct {
	Enter time.Duration `json:"enter" yaml:"enter" mapstructure:"enter"`
	Exit  time.Duration `json:"exit" yaml:"exit" mapstructure:"exit"`
}

// Style names the overlay classes a renderer applies per direction.
type Style struct {
	Overlay  string `json:"overlay" yaml:"overlay" mapstructure:"overlay"`
	Forward  string `json:"forward" yaml:"forward" mapstructure:"forward"`
	Backward string `json:"backward" yaml:"backward" mapstructure:"backward"`
}

// Class returns the overlay class list for direction.
func (s Style) Class(direction domain.Direction) string {
	cls := s.Backward
	if direction == domain.DirectionForward {
		cls = s.Forward
	}
	if cls == "" {
		return s.Overlay
	}
	return s.Overlay + " " + cls
}

// Preset bundles timings and style of one visual variant.
type Preset struct {
	Name    string
	Timings Timings
	Style   Style
}

// DefaultPreset is used when no timings are configured.
const DefaultPreset = "spa"

var slide = Style{Forward: "slide-left", Backward: "slide-right"}

// Presets are the built-in visual variants, keyed by name.
var Presets = map[string]Preset{
	"spa": {
		Name:    "spa",
		Timings: Timings{Enter: 600 * time.Millisecond, Exit: 200 * time.Millisecond},
		Style:   Style{Overlay: "spa-transition-overlay", Forward: slide.Forward, Backward: slide.Backward},
	},
	"instant": {
		Name:    "instant",
		Timings: Timings{Enter: 0, Exit: 600 * time.Millisecond},
		Style:   Style{Overlay: "instant-spa-overlay", Forward: slide.Forward, Backward: slide.Backward},
	},
	"motion": {
		Name:    "motion",
		Timings: Timings{Enter: 1000 * time.Millisecond, Exit: 200 * time.Millisecond},
		Style:   Style{Overlay: "page-transition", Forward: slide.Forward, Backward: slide.Backward},
	},
	"simple": {
		Name:    "simple",
		Timings: Timings{Enter: 300 * time.Millisecond},
		Style:   Style{Overlay: "simple-transition-overlay"},
	},
	"smooth": {
		Name:    "smooth",
		Timings: Timings{Enter: 250 * time.Millisecond},
		Style:   Style{Overlay: "smooth-transition-overlay"},
	},
	"none": {
		Name:  "none",
		Style: Style{Overlay: "transition-overlay"},
	},
}

// Lookup returns the preset called name.
func Lookup(name string) (Preset, error) {
	p, ok := Presets[name]
	if !ok {
		return Preset{}, fmt.Errorf("unknown transition preset %q (available: %v)", name, PresetNames())
	}
	return p, nil
}

// PresetNames returns the sorted preset names.
func PresetNames() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/devincimaker/mil4dy/internal/log"
)

// Load reads catalog items from a JSON file, or from every .json file in a
// directory. Items that cannot play (missing id, bad bpm/duration) are
// skipped with a warning rather than failing the whole load.
func Load(path string) ([]Item, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat catalog path: %w", err)
	}

	var raw []Item
	if info.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("read catalog dir: %w", err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
				continue
			}
			items, err := loadFile(filepath.Join(path, entry.Name()))
			if err != nil {
				return nil, err
			}
			raw = append(raw, items...)
		}
	} else {
		raw, err = loadFile(path)
		if err != nil {
			return nil, err
		}
	}

	out := make([]Item, 0, len(raw))
	for _, item := range raw {
		if err := item.Validate(); err != nil {
			log.Warn("skipping catalog item", "err", err)
			continue
		}
		out = append(out, item)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no playable items under %s", ErrEmptyCatalog, path)
	}

	log.Info("catalog loaded", "path", path, "items", len(out), "skipped", len(raw)-len(out))
	return out, nil
}

// loadFile parses one JSON file holding either an array of items or a single
// item object.
func loadFile(path string) ([]Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var items []Item
	if err := json.Unmarshal(data, &items); err == nil {
		return items, nil
	}

	var single Item
	if err := json.Unmarshal(data, &single); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return []Item{single}, nil
}

// Demo returns a small built-in catalog for demos and tests, spread across
// the energy range so every mood level has candidates.
func Demo() []Item {
	return []Item{
		{ID: "late-checkout", Title: "Late Checkout", BPM: 98, Key: Key{Tonic: "A", Mode: "minor"}, Energy: 0.15, Duration: 242, Genre: "downtempo"},
		{ID: "porch-light", Title: "Porch Light", BPM: 104, Key: Key{Tonic: "F", Mode: "major"}, Energy: 0.22, Duration: 198, Genre: "chillhop"},
		{ID: "slow-lane", Title: "Slow Lane", BPM: 110, Key: Key{Tonic: "A", Mode: "major"}, Energy: 0.3, Duration: 215, Genre: "nu-disco"},
		{ID: "glasswork", Title: "Glasswork", BPM: 118, Key: Key{Tonic: "D", Mode: "minor"}, Energy: 0.38, Duration: 233, Genre: "deep house"},
		{ID: "copper-sky", Title: "Copper Sky", BPM: 120, Key: Key{Tonic: "D", Mode: "major"}, Energy: 0.45, Duration: 251, Genre: "house"},
		{ID: "side-street", Title: "Side Street", BPM: 122, Key: Key{Tonic: "G", Mode: "minor"}, Energy: 0.52, Duration: 227, Genre: "house"},
		{ID: "night-market", Title: "Night Market", BPM: 124, Key: Key{Tonic: "G", Mode: "major"}, Energy: 0.6, Duration: 244, Genre: "tech house"},
		{ID: "current-affairs", Title: "Current Affairs", BPM: 126, Key: Key{Tonic: "C", Mode: "minor"}, Energy: 0.68, Duration: 236, Genre: "tech house"},
		{ID: "voltage-drop", Title: "Voltage Drop", BPM: 128, Key: Key{Tonic: "C", Mode: "major"}, Energy: 0.76, Duration: 229, Genre: "techno"},
		{ID: "red-line", Title: "Red Line", BPM: 130, Key: Key{Tonic: "E", Mode: "minor"}, Energy: 0.84, Duration: 247, Genre: "techno"},
		{ID: "full-tilt", Title: "Full Tilt", BPM: 132, Key: Key{Tonic: "E", Mode: "major"}, Energy: 0.92, Duration: 238, Genre: "hard techno"},
		{ID: "afterglow", Title: "Afterglow", BPM: 116, Key: Key{Tonic: "B", Mode: "minor"}, Energy: 0.5, Duration: 262, Genre: "melodic house"},
	}
}

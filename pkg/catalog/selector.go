package catalog

import (
	"math"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/devincimaker/mil4dy/internal/log"
	"github.com/devincimaker/mil4dy/pkg/mood"
)

// SelectorConfig holds tunable parameters for catalog selection
type SelectorConfig struct {
	EnergyTolerance  float64 // Tier-1 half-width around mood energy
	RelaxedTolerance float64 // Tier-2 half-width
	BPMAffinity      bool    // Restrict tier 1 to BPM-compatible items
	BPMTolerance     float64 // Fractional BPM window for the affinity cut
	MinBPMCandidates int     // Affinity cut is ignored below this many survivors
	RecentExclusion  int     // Tier-2 history depth
}

// DefaultSelectorConfig returns the recommended selection configuration
func DefaultSelectorConfig() SelectorConfig {
	return SelectorConfig{
		EnergyTolerance:  0.15,
		RelaxedTolerance: 0.3,
		BPMAffinity:      true,
		BPMTolerance:     0.15,
		MinBPMCandidates: 3,
		RecentExclusion:  5,
	}
}

func (c SelectorConfig) normalize() SelectorConfig {
	def := DefaultSelectorConfig()
	if c.EnergyTolerance <= 0 || c.EnergyTolerance > 1 {
		c.EnergyTolerance = def.EnergyTolerance
	}
	if c.RelaxedTolerance <= 0 || c.RelaxedTolerance > 1 {
		c.RelaxedTolerance = def.RelaxedTolerance
	}
	if c.BPMTolerance <= 0 || c.BPMTolerance > 1 {
		c.BPMTolerance = def.BPMTolerance
	}
	if c.MinBPMCandidates <= 0 {
		c.MinBPMCandidates = def.MinBPMCandidates
	}
	if c.RecentExclusion <= 0 {
		c.RecentExclusion = def.RecentExclusion
	}
	return c
}

// Scoring weights, on the 0-100 scale.
const (
	energyWeight = 40
	bpmWeight    = 30
	keyWeight    = 20
	trendWeight  = 10

	// Flat components used when there is no current item to compare against.
	bpmNeutral = 15
	keyNeutral = 10
)

// Selection is the selector's answer: the item to play, a human-readable
// justification, and the 0-100 fit score.
type Selection struct {
	Item   Item    `json:"item"`
	Reason string  `json:"reason"`
	Score  float64 `json:"score"`
}

// Selector scores catalog items against the current mood with cascading
// fallback tiers. It references the loaded catalog, never copies or mutates it.
// Safe for concurrent use: selections arrive from the evaluation loop,
// playback telemetry and manual skips at once.
type Selector struct {
	items   []Item
	history *History
	cfg     SelectorConfig

	mu   sync.Mutex // guards rand, which is not goroutine-safe
	rand *rand.Rand
}

// NewSelector creates a selector over the given catalog.
func NewSelector(items []Item, history *History, cfg SelectorConfig) *Selector {
	if history == nil {
		history = NewHistory(DefaultHistorySize)
	}
	return &Selector{
		items:   items,
		history: history,
		cfg:     cfg.normalize(),
		rand:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// History returns the play history the selector excludes against.
func (s *Selector) History() *History {
	return s.history
}

// Len returns the catalog size.
func (s *Selector) Len() int {
	return len(s.items)
}

// Items returns the catalog slice. Callers must not mutate it.
func (s *Selector) Items() []Item {
	return s.items
}

// SelectNext picks the best-fit item for the mood. current, when given, adds
// BPM and key affinity to the scoring. The top few candidates form a pool and
// one is picked at random so the single best scorer does not repeat forever.
func (s *Selector) SelectNext(m mood.State, current *Item) (Selection, error) {
	if len(s.items) == 0 {
		return Selection{}, ErrEmptyCatalog
	}

	candidates, tier := s.candidates(m, current)
	scored := s.scoreAll(candidates, m, current)
	pool := topPool(scored)

	s.mu.Lock()
	pick := pool[s.rand.Intn(len(pool))]
	s.mu.Unlock()
	pick.Reason = tierReason(tier, pick.Reason)

	if tier > 1 {
		log.Warn("degraded selection", "tier", tier, "item", pick.Item.ID, "score", pick.Score)
	}
	return pick, nil
}

// candidates runs the tier cascade and returns the surviving items with the
// tier number that produced them. Each tier is tried only when the previous
// one comes up empty; tier 3 never returns empty for a non-empty catalog.
func (s *Selector) candidates(m mood.State, current *Item) ([]Item, int) {
	if c := s.tierOne(m, current); len(c) > 0 {
		return c, 1
	}
	if c := s.tierTwo(m); len(c) > 0 {
		return c, 2
	}
	return s.tierThree(), 3
}

// tierOne: energy within tolerance of the mood, inside the level's canonical
// band, not in history; optionally narrowed to BPM-compatible items when that
// still leaves enough choice.
func (s *Selector) tierOne(m mood.State, current *Item) []Item {
	lo := m.Energy - s.cfg.EnergyTolerance
	hi := m.Energy + s.cfg.EnergyTolerance
	levelLo, levelHi := m.Level.EnergyRange()
	if levelLo > lo {
		lo = levelLo
	}
	if levelHi < hi {
		hi = levelHi
	}

	var out []Item
	for _, item := range s.items {
		if item.Energy < lo || item.Energy > hi {
			continue
		}
		if s.history.Contains(item.ID) {
			continue
		}
		out = append(out, item)
	}

	if current != nil && s.cfg.BPMAffinity {
		var bpmCut []Item
		for _, item := range out {
			if math.Abs(item.BPM-current.BPM) <= current.BPM*s.cfg.BPMTolerance {
				bpmCut = append(bpmCut, item)
			}
		}
		// Only honor the BPM cut when it leaves a real choice.
		if len(bpmCut) >= s.cfg.MinBPMCandidates {
			out = bpmCut
		}
	}
	return out
}

// tierTwo: widened energy window, history exclusion shortened to the most
// recent plays only.
func (s *Selector) tierTwo(m mood.State) []Item {
	lo := clampUnit(m.Energy - s.cfg.RelaxedTolerance)
	hi := clampUnit(m.Energy + s.cfg.RelaxedTolerance)

	var out []Item
	for _, item := range s.items {
		if item.Energy < lo || item.Energy > hi {
			continue
		}
		if s.history.ContainsRecent(item.ID, s.cfg.RecentExclusion) {
			continue
		}
		out = append(out, item)
	}
	return out
}

// tierThree: anything unplayed, and failing that, anything at all.
func (s *Selector) tierThree() []Item {
	var out []Item
	for _, item := range s.items {
		if !s.history.Contains(item.ID) {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		out = s.items
	}
	return out
}

// scoreAll scores every candidate and sorts best-first (id breaks ties so the
// ordering, and therefore the pool, is stable across calls).
func (s *Selector) scoreAll(candidates []Item, m mood.State, current *Item) []Selection {
	scored := make([]Selection, 0, len(candidates))
	for _, item := range candidates {
		score, reason := scoreItem(item, m, current)
		scored = append(scored, Selection{Item: item, Reason: reason, Score: score})
	}
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Item.ID < scored[j].Item.ID
	})
	return scored
}

// scoreItem computes the 0-100 fit score and assembles the reason from the
// components that scored well.
func scoreItem(item Item, m mood.State, current *Item) (float64, string) {
	var notes []string

	energyScore := math.Max(0, energyWeight-math.Abs(item.Energy-m.Energy)*100)
	if energyScore > 25 {
		notes = append(notes, "energy match")
	}

	bpmScore := float64(bpmNeutral)
	keyScore := float64(keyNeutral)
	if current != nil {
		ratio := item.BPM / current.BPM
		// Unison, double-time and half-time all count as compatible.
		dist := math.Min(math.Abs(ratio-1), math.Min(math.Abs(ratio-2), math.Abs(ratio-0.5)))
		bpmScore = math.Max(0, bpmWeight-100*dist)
		if bpmScore > 20 {
			notes = append(notes, "bpm compatible")
		}

		keyScore = keyWeight * KeyCompatibility(item.Key, current.Key)
		if keyScore >= 16 {
			notes = append(notes, "key compatible")
		}
	}

	var trendScore float64
	switch m.Trend {
	case mood.TrendRising:
		if item.Energy > m.Energy {
			trendScore = trendWeight
			notes = append(notes, "rides the rising room")
		}
	case mood.TrendFalling:
		if item.Energy < m.Energy {
			trendScore = trendWeight
			notes = append(notes, "eases the room down")
		}
	default:
		trendScore = 5
	}

	reason := "best available"
	if len(notes) > 0 {
		reason = strings.Join(notes, ", ")
	}
	return energyScore + bpmScore + keyScore + trendScore, reason
}

// topPool keeps the top min(5, ceil(0.3·N)) scored candidates.
func topPool(scored []Selection) []Selection {
	n := int(math.Ceil(0.3 * float64(len(scored))))
	if n > 5 {
		n = 5
	}
	if n < 1 {
		n = 1
	}
	return scored[:n]
}

func tierReason(tier int, reason string) string {
	switch tier {
	case 2:
		return "relaxed search: " + reason
	case 3:
		return "fallback"
	default:
		return reason
	}
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

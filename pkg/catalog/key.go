package catalog

// KeyCompatibility scores how well two keys sit next to each other, 0..1.
// This is a deliberately coarse placeholder, not circle-of-fifths theory:
// identical keys mix cleanly, a shared tonic mixes well across modes, a
// shared mode is passable, everything else is a gamble.
func KeyCompatibility(a, b Key) float64 {
	switch {
	case a.Tonic == b.Tonic && a.Mode == b.Mode:
		return 1.0
	case a.Tonic == b.Tonic:
		return 0.8
	case a.Mode == b.Mode:
		return 0.6
	default:
		return 0.3
	}
}

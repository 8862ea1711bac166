// Package hitwhere names the semantic hierarchy location a request was
// satisfied at, used for the `loads-where-<where>` / `stores-where-<where>`
// statistics families and as the hit-location result of every memory
// and coherence-message operation.
package hitwhere

// Where is a hit/miss attribution location.
type Where string

const (
	L1Own     Where = "L1_own"
	L1Sibling Where = "L1_sibling"
	L2Own     Where = "L2_own"
	L2Sibling Where = "L2_sibling"
	LLCOwn    Where = "LLC_own"
	LLC       Where = "LLC"
	Dram      Where = "Dram"

	MissL1  Where = "Miss-L1"
	MissL2  Where = "Miss-L2"
	MissLLC Where = "Miss-LLC"
	Miss    Where = "Miss"
)

// IsMiss reports whether w denotes an outstanding miss rather than a
// resolved hit location.
func (w Where) IsMiss() bool {
	switch w {
	case MissL1, MissL2, MissLLC, Miss:
		return true
	default:
		return false
	}
}

// Rank orders Where values from best (closest, cheapest hit) to worst
// (outstanding miss). Used where a single result must be attributed
// from several sub-operations' locations, picking the worst one, e.g.
// a PIC operator's per-step hit-where attribution.
func Rank(w Where) int {
	switch w {
	case L1Own:
		return 0
	case L1Sibling:
		return 1
	case L2Own:
		return 2
	case L2Sibling:
		return 3
	case LLCOwn:
		return 4
	case LLC:
		return 5
	case Dram:
		return 6
	case MissL1:
		return 7
	case MissL2:
		return 8
	case MissLLC:
		return 9
	default:
		return 10
	}
}

package engine

import "github.com/DoyleJ11/moonlit-client/pkg/types"

// nightOrder is the fixed sequence of night sub-stages. Advancing past the
// last one hands over to discussion.
var nightOrder = []types.NightStage{
	types.NightWolves,
	types.NightDetective,
	types.NightSummary,
}

func nightPhase(stage types.NightStage) Phase {
	switch stage {
	case types.NightDetective:
		return PhaseNightDetective
	case types.NightSummary:
		return PhaseNightSummary
	}
	// the service treats an unset night stage as wolves
	return PhaseNightWolves
}

// NextNightStage returns the stage after cur, and false once the night is
// over.
func NextNightStage(cur types.NightStage) (types.NightStage, bool) {
	if cur == types.NightNone {
		cur = types.NightWolves
	}
	for i, s := range nightOrder {
		if s == cur && i+1 < len(nightOrder) {
			return nightOrder[i+1], true
		}
	}
	return types.NightNone, false
}

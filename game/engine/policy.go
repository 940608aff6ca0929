package engine

// WinPolicy decides whether a game is over after a turn.
type WinPolicy interface {
	Winner(game Engine) (TeamID, bool)
}

// ThresholdPolicy is the provisional win condition: once Turns turns have been
// played, Award wins the game regardless of the board. It carries no notion
// of who is actually ahead.
type ThresholdPolicy struct {
	Turns int
	Award TeamID
}

func (p ThresholdPolicy) Winner(game Engine) (TeamID, bool) {
	if game.Turn() >= p.Turns {
		return p.Award, true
	}
	return NeutralTeamID, false
}

// WinPolicyFunc adapts a function to WinPolicy.
type WinPolicyFunc func(game Engine) (TeamID, bool)

func (f WinPolicyFunc) Winner(game Engine) (TeamID, bool) { return f(game) }

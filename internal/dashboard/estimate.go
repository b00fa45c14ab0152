package dashboard

// Heuristic stand-ins for fields the backend does not report yet. They live
// in their own file so they can be deleted wholesale once /api/competition
// carries measured win rates and volumes.

// estimateWinRate derives a win-rate figure from PnL percent: 50% base plus
// half the PnL percent, clamped to [0, 100]. Zero positions means no signal.
func estimateWinRate(pnlPct float64, positionCount int) float64 {
	if positionCount == 0 {
		return 0
	}
	estimated := 50 + pnlPct/2
	if estimated < 0 {
		return 0
	}
	if estimated > 100 {
		return 100
	}
	return estimated
}

// estimateVolume approximates traded volume as equity * positions * 10.
func estimateVolume(equity float64, positionCount int) float64 {
	return equity * float64(positionCount) * 10
}

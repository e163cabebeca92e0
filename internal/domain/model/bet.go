package model

// DefaultStake is used when a bet request does not carry a stake.
const DefaultStake = 15

// PredictedPerformance is a hypothetical match line. Nil fields were not
// predicted and take no part in scoring.
type PredictedPerformance struct {
	KDA              *float64 `json:"kda,omitempty"`
	Kills            *float64 `json:"kills,omitempty"`
	Deaths           *float64 `json:"deaths,omitempty"`
	Damage           *float64 `json:"damage,omitempty"`
	KillsPerRound    *float64 `json:"kills_per_round,omitempty"`
	Headshots        *float64 `json:"headshots,omitempty"`
	HeadshotsPercent *float64 `json:"headshots_percent,omitempty"`
	DamagePerRound   *float64 `json:"damage_per_round,omitempty"`
}

// Values returns the predicted metrics that are set.
func (p PredictedPerformance) Values() Values {
	out := make(Values)
	set := func(m Metric, x *float64) {
		if x != nil {
			out[m] = *x
		}
	}
	set(KDA, p.KDA)
	set(Kills, p.Kills)
	set(Deaths, p.Deaths)
	set(Damage, p.Damage)
	set(KillsPerRound, p.KillsPerRound)
	set(Headshots, p.Headshots)
	set(HeadshotsPercent, p.HeadshotsPercent)
	set(DamagePerRound, p.DamagePerRound)
	return out
}

// BetRequest is the caller input for a bet score computation.
type BetRequest struct {
	UserID    string
	Predicted PredictedPerformance
	// Stake is nil when the caller did not provide one.
	Stake *int
	// UseRankAdjustment is nil when the caller defers to the service default.
	UseRankAdjustment *bool
}

package testbets

import (
	"crypto/rand"
	"math"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/okian/valodds/internal/domain/model"
	"github.com/okian/valodds/internal/domain/rank"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
	twoDecimals        = 100
)

// Constants for metric generation ranges.
const (
	skillMin          = 0.5
	skillRange        = 1.0
	roundsMin         = 13
	roundsRange       = 13
	killsPerRoundMax  = 1.1
	deathsPerRoundMin = 0.4
	deathsPerRoundMax = 0.5
	damagePerKillMin  = 120.0
	damagePerKillMax  = 60.0
	headshotRateMin   = 0.1
	headshotRateRange = 0.3
	matchSpacing      = 6 * time.Hour
	explicitRankRate  = 0.25
	predictionSpread  = 0.5
)

var rankBases = []string{
	rank.Iron, rank.Bronze, rank.Silver, rank.Gold, rank.Platinum,
	rank.Diamond, rank.Ascendant, rank.Immortal, rank.Radiant,
}

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// getRandomInt returns a random int in [0, n).
func getRandomInt(n int) int {
	if n <= 0 {
		return 0
	}
	v, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(v.Int64())
}

func round2(x float64) float64 {
	return math.Round(x*twoDecimals) / twoDecimals
}

// randomRank returns a canonical rank label such as "gold 2" or "radiant".
func randomRank() string {
	base := rankBases[getRandomInt(len(rankBases))]
	if base == rank.Radiant {
		return base
	}
	return rank.Rank{Base: base, Division: getRandomInt(3) + 1}.String()
}

// GenerateHistory creates match history for cfg.Players players. Each
// player has a fixed skill and rank; some players get their rank through
// the explicit rank map instead of their matches.
func GenerateHistory(cfg SeedConfig, now time.Time) ([]model.MatchRecord, map[string]string) {
	records := make([]model.MatchRecord, 0, cfg.Players*cfg.MatchesPerPlayer)
	ranks := make(map[string]string)

	for p := 0; p < cfg.Players; p++ {
		id := PlayerID(p)
		skill := skillMin + getRandomFloat()*skillRange
		label := randomRank()

		matchRank := label
		if getRandomFloat() < explicitRankRate {
			ranks[id] = label
			matchRank = ""
		}

		start := now.Add(-time.Duration(cfg.MatchesPerPlayer) * matchSpacing)
		for m := 0; m < cfg.MatchesPerPlayer; m++ {
			records = append(records, model.MatchRecord{
				MatchID:  uuid.New().String(),
				PlayerID: id,
				Rank:     matchRank,
				PlayedAt: start.Add(time.Duration(m) * matchSpacing).UTC().Truncate(time.Millisecond),
				Values:   dropMetrics(generateMatch(skill), cfg.DropRate),
			})
		}
	}
	return records, ranks
}

// generateMatch produces one consistent match line for a player of the given skill.
func generateMatch(skill float64) model.Values {
	rounds := float64(roundsMin + getRandomInt(roundsRange))
	kills := math.Round(rounds * killsPerRoundMax * skill * getRandomFloat())
	deaths := math.Round(rounds * (deathsPerRoundMin + deathsPerRoundMax*getRandomFloat()))
	damage := math.Round(kills * (damagePerKillMin + damagePerKillMax*getRandomFloat()))
	headshotRate := headshotRateMin + headshotRateRange*getRandomFloat()
	headshots := math.Round(kills * headshotRate)

	kda := kills
	if deaths > 0 {
		kda = kills / deaths
	}
	var hsPercent float64
	if kills > 0 {
		hsPercent = headshots / kills * PercentageMultiplier
	}

	return model.Values{
		model.KDA:              round2(kda),
		model.Kills:            kills,
		model.Deaths:           deaths,
		model.Damage:           damage,
		model.KillsPerRound:    round2(kills / rounds),
		model.Headshots:        headshots,
		model.HeadshotsPercent: round2(hsPercent),
		model.DamagePerRound:   round2(damage / rounds),
	}
}

// dropMetrics removes each metric with probability rate, always keeping at least one.
func dropMetrics(v model.Values, rate float64) model.Values {
	if rate <= 0 {
		return v
	}
	for _, m := range model.AllMetrics() {
		if len(v) > 1 && getRandomFloat() < rate {
			delete(v, m)
		}
	}
	return v
}

// RandomPrediction returns a prediction over a random non-empty subset of
// metrics, scaled around a typical match line.
func RandomPrediction() model.PredictedPerformance {
	base := generateMatch(skillMin + getRandomFloat()*skillRange)
	var p model.PredictedPerformance
	set := func(m model.Metric) *float64 {
		x := round2(base[m] * (1 - predictionSpread/2 + predictionSpread*getRandomFloat()))
		return &x
	}
	fields := []struct {
		m   model.Metric
		dst **float64
	}{
		{model.KDA, &p.KDA},
		{model.Kills, &p.Kills},
		{model.Deaths, &p.Deaths},
		{model.Damage, &p.Damage},
		{model.KillsPerRound, &p.KillsPerRound},
		{model.Headshots, &p.Headshots},
		{model.HeadshotsPercent, &p.HeadshotsPercent},
		{model.DamagePerRound, &p.DamagePerRound},
	}
	picked := false
	for _, f := range fields {
		if getRandomFloat() < 0.5 {
			*f.dst = set(f.m)
			picked = true
		}
	}
	if !picked {
		p.Kills = set(model.Kills)
	}
	return p
}

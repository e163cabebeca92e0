package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// MatchRecord is one historical match for a player. Records are treated as
// immutable once loaded.
type MatchRecord struct {
	MatchID  string
	PlayerID string
	// Rank is the rank label the player held in this match, if the provider reported one.
	Rank     string
	PlayedAt time.Time
	Values   Values
}

// Reserved keys in the flat provider JSON shape.
const (
	keyName     = "name"
	keyMatchID  = "matchId"
	keyRank     = "rank"
	keyPlayedAt = "playedAt"
)

// UnmarshalJSON decodes the flat provider shape:
//
//	{"name": "player", "kda": 1.2, "kills": 20, ...}
//
// Unknown keys are ignored; null metrics are left unset.
func (r *MatchRecord) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := MatchRecord{Values: make(Values)}
	if v, ok := raw[keyName]; ok {
		if err := json.Unmarshal(v, &out.PlayerID); err != nil {
			return fmt.Errorf("decode %s: %w", keyName, err)
		}
	}
	if v, ok := raw[keyMatchID]; ok {
		if err := json.Unmarshal(v, &out.MatchID); err != nil {
			return fmt.Errorf("decode %s: %w", keyMatchID, err)
		}
	}
	if v, ok := raw[keyRank]; ok {
		if err := json.Unmarshal(v, &out.Rank); err != nil {
			return fmt.Errorf("decode %s: %w", keyRank, err)
		}
	}
	if v, ok := raw[keyPlayedAt]; ok {
		if err := json.Unmarshal(v, &out.PlayedAt); err != nil {
			return fmt.Errorf("decode %s: %w", keyPlayedAt, err)
		}
	}

	for _, m := range allMetrics {
		v, ok := raw[string(m)]
		if !ok {
			continue
		}
		var x *float64
		if err := json.Unmarshal(v, &x); err != nil {
			return fmt.Errorf("decode %s: %w", m, err)
		}
		if x != nil {
			out.Values[m] = *x
		}
	}

	*r = out
	return nil
}

// MarshalJSON encodes the record back into the flat provider shape.
func (r MatchRecord) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(r.Values)+4)
	flat[keyName] = r.PlayerID
	if r.MatchID != "" {
		flat[keyMatchID] = r.MatchID
	}
	if r.Rank != "" {
		flat[keyRank] = r.Rank
	}
	if !r.PlayedAt.IsZero() {
		flat[keyPlayedAt] = r.PlayedAt
	}
	for m, x := range r.Values {
		flat[string(m)] = x
	}
	return json.Marshal(flat)
}

// RankBaseline holds the average metric values for one rank.
type RankBaseline struct {
	Rank   string
	Values Values
}

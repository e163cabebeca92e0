// Package testbets seeds synthetic match history and drives smoke traffic
// against a running valodds service.
package testbets

import (
	"fmt"
	"time"
)

const unknownPrefix = "ghost-"

// Seed output formats.
const (
	FormatJSON   = "json"
	FormatSQLite = "sqlite"
)

// SeedConfig holds configuration for generating match history.
type SeedConfig struct {
	Players          int     // Number of players to generate
	MatchesPerPlayer int     // Matches per player
	DropRate         float64 // Chance that a metric is left out of a match
	Output           string  // Target file (JSON data file or sqlite database)
	Format           string  // json or sqlite
}

// SmokeConfig holds configuration for a smoke run.
type SmokeConfig struct {
	BaseURL  string        // Base URL of the service
	Players  int           // Seeded players to pick from
	Requests int           // Number of bet requests to send
	Workers  int           // Concurrent in-flight requests
	Timeout  time.Duration // HTTP request timeout
	MissRate float64       // Share of requests sent for players that do not exist
	RankRate float64       // Share of requests asking for rank adjustment
	Verbose  bool          // Log every violation
}

// Stats holds smoke run statistics.
type Stats struct {
	Requests   int
	Succeeded  int
	NotFound   int
	Failed     int
	Violations int
	Duration   time.Duration
}

// PlayerID returns the user id of the i-th generated player.
func PlayerID(i int) string {
	return fmt.Sprintf("player-%04d", i)
}

// UnknownPlayerID returns a user id that is never seeded.
func UnknownPlayerID(i int) string {
	return fmt.Sprintf("%s%04d", unknownPrefix, i)
}

package testbets

import (
	"testing"
	"time"

	"github.com/okian/valodds/internal/domain/model"
	"github.com/okian/valodds/internal/domain/rank"
	. "github.com/smartystreets/goconvey/convey"
)

func TestGenerateHistory(t *testing.T) {
	Convey("Given a seed configuration", t, func() {
		cfg := SeedConfig{Players: 5, MatchesPerPlayer: 4, DropRate: 0.3}
		now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

		Convey("When generating history", func() {
			records, ranks := GenerateHistory(cfg, now)

			Convey("Then every player should have every match", func() {
				So(len(records), ShouldEqual, 20)
				perPlayer := map[string]int{}
				ids := map[string]bool{}
				for _, rec := range records {
					perPlayer[rec.PlayerID]++
					ids[rec.MatchID] = true
				}
				So(len(perPlayer), ShouldEqual, 5)
				for p := 0; p < 5; p++ {
					So(perPlayer[PlayerID(p)], ShouldEqual, 4)
				}
				So(len(ids), ShouldEqual, 20)
			})

			Convey("And every record should be well formed", func() {
				for _, rec := range records {
					So(len(rec.Values), ShouldBeGreaterThan, 0)
					for m, v := range rec.Values {
						So(m.IsKnown(), ShouldBeTrue)
						So(v, ShouldBeGreaterThanOrEqualTo, 0)
					}
					So(rec.PlayedAt.Before(now), ShouldBeTrue)
				}
			})

			Convey("And every player should have a parseable rank", func() {
				for p := 0; p < 5; p++ {
					id := PlayerID(p)
					label := ranks[id]
					if label == "" {
						for _, rec := range records {
							if rec.PlayerID == id {
								label = rec.Rank
							}
						}
					}
					So(rank.Parse(label).IsKnown(), ShouldBeTrue)
				}
			})
		})

		Convey("When nothing is dropped", func() {
			cfg.DropRate = 0
			records, _ := GenerateHistory(cfg, now)

			Convey("Then every metric should be present", func() {
				for _, rec := range records {
					So(len(rec.Values), ShouldEqual, len(model.AllMetrics()))
				}
			})
		})
	})
}

func TestRandomPrediction(t *testing.T) {
	Convey("Given random predictions", t, func() {
		Convey("Then each should set at least one non-negative metric", func() {
			for i := 0; i < 50; i++ {
				v := RandomPrediction().Values()
				So(len(v), ShouldBeGreaterThan, 0)
				for _, x := range v {
					So(x, ShouldBeGreaterThanOrEqualTo, 0)
				}
			}
		})
	})
}

func TestPlayerIDs(t *testing.T) {
	Convey("Given player ids", t, func() {
		So(PlayerID(7), ShouldEqual, "player-0007")
		So(isUnknownPlayer(UnknownPlayerID(7)), ShouldBeTrue)
		So(isUnknownPlayer(PlayerID(7)), ShouldBeFalse)
	})
}

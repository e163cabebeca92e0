package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/valodds/internal/adapters/repository"
	service "github.com/okian/valodds/internal/app"
	"github.com/okian/valodds/internal/domain/model"
	"github.com/okian/valodds/internal/domain/scoring"
	"github.com/okian/valodds/internal/domain/types"
	"github.com/okian/valodds/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

// memStore is an in-memory repository.Store.
type memStore struct {
	history   map[string][]model.MatchRecord
	ranks     map[string]string
	baselines repository.BaselineProvider
	err       error
	closed    bool
}

func (m *memStore) MatchHistory(_ context.Context, userID string) ([]model.MatchRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.history[userID], nil
}

func (m *memStore) UserRank(_ context.Context, userID string) (string, error) {
	label, ok := m.ranks[userID]
	if !ok {
		return "", repository.ErrNotFound
	}
	return label, nil
}

func (m *memStore) RankBaseline(ctx context.Context, label string) (model.RankBaseline, error) {
	return m.baselines.RankBaseline(ctx, label)
}

func (m *memStore) Close() error {
	m.closed = true
	return nil
}

func ptr[T any](v T) *T { return &v }

func match(userID string, v model.Values) model.MatchRecord {
	return model.MatchRecord{PlayerID: userID, Values: v}
}

func fixtureStore() *memStore {
	gold, err := repository.ParseBaselines([]byte("ranks:\n  gold:\n    kills: 14\n    deaths: 15\n"))
	if err != nil {
		panic(err)
	}
	return &memStore{
		history: map[string][]model.MatchRecord{
			"ana": {
				match("ana", model.Values{model.Kills: 10, model.Deaths: 5}),
				match("ana", model.Values{model.Kills: 20}),
			},
			"steady": {
				match("steady", model.Values{model.Kills: 10, model.Deaths: 5}),
				match("steady", model.Values{model.Kills: 10, model.Deaths: 5}),
				match("steady", model.Values{model.Kills: 10, model.Deaths: 5}),
			},
			"rankless": {match("rankless", model.Values{model.Kills: 10})},
			"oddrank":  {match("oddrank", model.Values{model.Kills: 10, model.Deaths: 5})},
			"silver":   {match("silver", model.Values{model.Kills: 10})},
		},
		ranks: map[string]string{
			"ana":     "Gold 2",
			"oddrank": "unranked",
			"silver":  "silver 1",
			"steady":  "gold 1",
		},
		baselines: gold,
	}
}

func startedService(store repository.Store, opts ...service.Option) *service.Service {
	opts = append([]service.Option{service.WithStore(store)}, opts...)
	svc := service.New(opts...)
	if err := svc.Start(context.Background()); err != nil {
		panic(err)
	}
	return svc
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should have sensible defaults", func() {
			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, false)
			So(stats["selection"], ShouldEqual, "dynamic")
			So(stats["scoringMode"], ShouldEqual, "plain")
			So(stats["equalWeighting"], ShouldEqual, true)
			So(stats["defaultStake"], ShouldEqual, model.DefaultStake)
			So(stats["rankAdjustment"], ShouldEqual, false)
			So(stats["rankScale"], ShouldEqual, "fine")
		})
	})

	Convey("Given a service with an unknown selection", t, func() {
		svc := service.New(service.WithStore(fixtureStore()), service.WithSelection("random"))

		Convey("Then Start should fail", func() {
			err := svc.Start(context.Background())
			So(errors.Is(err, scoring.ErrUnknownSelection), ShouldBeTrue)
		})
	})

	Convey("Given a service with an unknown scoring mode", t, func() {
		svc := service.New(service.WithStore(fixtureStore()), service.WithScoringMode("kelly"))

		Convey("Then Start should fail", func() {
			err := svc.Start(context.Background())
			So(errors.Is(err, scoring.ErrUnknownMode), ShouldBeTrue)
		})
	})
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a service with an injected store", t, func() {
		store := fixtureStore()
		svc := service.New(service.WithStore(store))

		Convey("When computing before Start", func() {
			_, err := svc.ComputeBetScore(context.Background(), model.BetRequest{UserID: "ana"})

			Convey("Then it should report not started", func() {
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			})
		})

		Convey("When started and stopped", func() {
			So(svc.Start(context.Background()), ShouldBeNil)
			So(svc.Start(context.Background()), ShouldBeNil)
			So(svc.GetStats()["started"], ShouldEqual, true)
			So(svc.GetStats()["source"], ShouldEqual, "injected")
			svc.Stop()
			svc.Stop()

			Convey("Then the injected store is left open", func() {
				So(svc.GetStats()["started"], ShouldEqual, false)
				So(store.closed, ShouldBeFalse)
			})
		})
	})
}

func TestService_ComputeBetScore(t *testing.T) {
	Convey("Given a started service over fixture history", t, func() {
		store := fixtureStore()
		svc := startedService(store)
		defer svc.Stop()
		ctx := context.Background()

		Convey("When the prediction equals every past match", func() {
			res, err := svc.ComputeBetScore(ctx, model.BetRequest{
				UserID:    "steady",
				Predicted: model.PredictedPerformance{Kills: ptr(10.0), Deaths: ptr(5.0)},
			})

			Convey("Then the odds are exactly 100", func() {
				So(err, ShouldBeNil)
				So(res.UserID, ShouldEqual, "steady")
				So(res.PredictedScore, ShouldEqual, 1.0)
				So(res.PerformanceScore, ShouldEqual, 1.0)
				So(res.OddPercentage, ShouldEqual, 100.0)
				So(res.AdjustedPredictedScore, ShouldBeNil)
				So(res.Rank, ShouldEqual, "")
			})
		})

		Convey("When predicting above the player's history", func() {
			res, err := svc.ComputeBetScore(ctx, model.BetRequest{
				UserID:    "ana",
				Predicted: model.PredictedPerformance{Kills: ptr(30.0)},
			})

			Convey("Then the odds exceed 100 and are rounded", func() {
				So(err, ShouldBeNil)
				So(res.PredictedScore, ShouldEqual, 1.5)
				So(res.PerformanceScore, ShouldEqual, 0.75)
				So(res.OddPercentage, ShouldEqual, 200.0)
			})
		})

		Convey("When rank adjustment is requested", func() {
			res, err := svc.ComputeBetScore(ctx, model.BetRequest{
				UserID:            "ana",
				Predicted:         model.PredictedPerformance{Kills: ptr(30.0)},
				UseRankAdjustment: ptr(true),
			})

			Convey("Then the over-prediction is discounted by the gold 2 tier", func() {
				So(err, ShouldBeNil)
				So(res.Rank, ShouldEqual, "gold 2")
				So(res.PredictedScore, ShouldEqual, 1.5)
				So(res.AdjustedPredictedScore, ShouldNotBeNil)
				So(*res.AdjustedPredictedScore, ShouldEqual, 0.87)
				So(res.PerformanceScore, ShouldEqual, 0.75)
				So(res.OddPercentage, ShouldEqual, 116.0)
			})
		})

		Convey("When the player's rank label is not a rank", func() {
			res, err := svc.ComputeBetScore(ctx, model.BetRequest{
				UserID:            "oddrank",
				Predicted:         model.PredictedPerformance{Kills: ptr(20.0), Deaths: ptr(5.0)},
				UseRankAdjustment: ptr(true),
			})

			Convey("Then the adjusted score equals the predicted score", func() {
				So(err, ShouldBeNil)
				So(res.Rank, ShouldEqual, "unranked")
				So(*res.AdjustedPredictedScore, ShouldEqual, res.PredictedScore)
			})
		})

		Convey("When the user has no history", func() {
			_, err := svc.ComputeBetScore(ctx, model.BetRequest{UserID: "ghost", Predicted: model.PredictedPerformance{Kills: ptr(1.0)}})

			Convey("Then a history lookup miss names the user", func() {
				So(errors.Is(err, service.ErrUserHistoryNotFound), ShouldBeTrue)
				So(errors.Is(err, service.ErrNotFound), ShouldBeTrue)
				var le *service.LookupError
				So(errors.As(err, &le), ShouldBeTrue)
				So(le.ID, ShouldEqual, "ghost")
				So(le.NotFound(), ShouldBeTrue)
				So(err.Error(), ShouldEqual, "user history not found: ghost")
			})
		})

		Convey("When the user has no rank", func() {
			_, err := svc.ComputeBetScore(ctx, model.BetRequest{UserID: "rankless", UseRankAdjustment: ptr(true)})

			Convey("Then a rank lookup miss is returned", func() {
				So(errors.Is(err, service.ErrUserRankNotFound), ShouldBeTrue)
			})
		})

		Convey("When the rank has no baseline row", func() {
			_, err := svc.ComputeBetScore(ctx, model.BetRequest{UserID: "silver", UseRankAdjustment: ptr(true)})

			Convey("Then a baseline lookup miss names the rank", func() {
				So(errors.Is(err, service.ErrRankBaselineNotFound), ShouldBeTrue)
				var le *service.LookupError
				So(errors.As(err, &le), ShouldBeTrue)
				So(le.ID, ShouldEqual, "silver 1")
			})
		})

		Convey("When the store fails", func() {
			store.err = errors.New("disk on fire")
			_, err := svc.ComputeBetScore(ctx, model.BetRequest{UserID: "ana"})

			Convey("Then the error is not a lookup miss", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, service.ErrNotFound), ShouldBeFalse)
				So(err.Error(), ShouldContainSubstring, "disk on fire")
			})
		})

		Convey("When the request is invalid", func() {
			_, errEmpty := svc.ComputeBetScore(ctx, model.BetRequest{UserID: "  "})
			_, errStake := svc.ComputeBetScore(ctx, model.BetRequest{UserID: "ana", Stake: ptr(-1)})

			Convey("Then ErrInvalidRequest is returned", func() {
				So(errors.Is(errEmpty, service.ErrInvalidRequest), ShouldBeTrue)
				So(errors.Is(errStake, service.ErrInvalidRequest), ShouldBeTrue)
			})
		})

		Convey("When the prediction pushes the odds past the float range", func() {
			store.history["whale"] = []model.MatchRecord{
				match("whale", model.Values{model.Kills: 1}),
				match("whale", model.Values{model.Kills: 0.0001}),
			}
			var (
				res types.BetScore
				err error
			)
			So(func() {
				res, err = svc.ComputeBetScore(ctx, model.BetRequest{
					UserID:    "whale",
					Predicted: model.PredictedPerformance{Kills: ptr(1e307)},
				})
			}, ShouldNotPanic)

			Convey("Then the request is rejected as invalid", func() {
				So(errors.Is(err, service.ErrInvalidRequest), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "overflows")
				So(res.UserID, ShouldBeEmpty)

				var bad interface{ BadRequest() bool }
				So(errors.As(err, &bad), ShouldBeTrue)
				So(bad.BadRequest(), ShouldBeTrue)
			})
		})

		Convey("When requests are counted", func() {
			before := svc.GetStats()
			_, _ = svc.ComputeBetScore(ctx, model.BetRequest{UserID: "steady", Predicted: model.PredictedPerformance{Kills: ptr(10.0)}})
			_, _ = svc.ComputeBetScore(ctx, model.BetRequest{UserID: "ghost"})
			after := svc.GetStats()

			Convey("Then stats reflect successes and misses", func() {
				So(after["computations"], ShouldEqual, before["computations"].(int64)+1)
				So(after["lookupMisses"], ShouldEqual, before["lookupMisses"].(int64)+1)
			})
		})
	})

	Convey("Given a service with rank adjustment on by default", t, func() {
		svc := startedService(fixtureStore(), service.WithRankAdjustment(true))
		defer svc.Stop()

		Convey("When a request does not say", func() {
			res, err := svc.ComputeBetScore(context.Background(), model.BetRequest{
				UserID:    "ana",
				Predicted: model.PredictedPerformance{Kills: ptr(30.0)},
			})

			Convey("Then the default applies", func() {
				So(err, ShouldBeNil)
				So(res.AdjustedPredictedScore, ShouldNotBeNil)
			})
		})

		Convey("When a request opts out", func() {
			res, err := svc.ComputeBetScore(context.Background(), model.BetRequest{
				UserID:            "ana",
				Predicted:         model.PredictedPerformance{Kills: ptr(30.0)},
				UseRankAdjustment: ptr(false),
			})

			Convey("Then no adjustment is made", func() {
				So(err, ShouldBeNil)
				So(res.AdjustedPredictedScore, ShouldBeNil)
				So(res.OddPercentage, ShouldEqual, 200.0)
			})
		})
	})

	Convey("Given a stake-weighted service", t, func() {
		svc := startedService(fixtureStore(),
			service.WithScoringMode(scoring.ModeStakeWeighted),
			service.WithDefaultStake(0),
		)
		defer svc.Stop()

		Convey("When the stake is zero", func() {
			res, err := svc.ComputeBetScore(context.Background(), model.BetRequest{
				UserID:    "ana",
				Predicted: model.PredictedPerformance{Kills: ptr(30.0)},
			})

			Convey("Then scores match plain scoring", func() {
				So(err, ShouldBeNil)
				So(res.OddPercentage, ShouldEqual, 200.0)
			})
		})

		Convey("When a large stake is given", func() {
			res, err := svc.ComputeBetScore(context.Background(), model.BetRequest{
				UserID:    "ana",
				Predicted: model.PredictedPerformance{Kills: ptr(30.0)},
				Stake:     ptr(1000),
			})

			Convey("Then every weight hits the floor and the ratio is unchanged", func() {
				So(err, ShouldBeNil)
				So(res.PredictedScore, ShouldEqual, 0.15)
				So(res.OddPercentage, ShouldEqual, 200.0)
			})
		})
	})
}

func TestService_AveragePerformance(t *testing.T) {
	Convey("Given a started service over fixture history", t, func() {
		svc := startedService(fixtureStore())
		defer svc.Stop()

		Convey("When averaging a known user", func() {
			res, err := svc.AveragePerformance(context.Background(), "ana")

			Convey("Then each metric is averaged over the matches carrying it", func() {
				So(err, ShouldBeNil)
				So(res.UserID, ShouldEqual, "ana")
				So(res.TotalMatches, ShouldEqual, 2)
				So(res.AveragePerformance[model.Kills], ShouldEqual, 15.0)
				So(res.AveragePerformance[model.Deaths], ShouldEqual, 5.0)
				So(res.AveragePerformance, ShouldNotContainKey, model.Damage)
			})
		})

		Convey("When averaging an unknown user", func() {
			_, err := svc.AveragePerformance(context.Background(), "ghost")

			Convey("Then a history lookup miss is returned", func() {
				So(errors.Is(err, service.ErrUserHistoryNotFound), ShouldBeTrue)
			})
		})

		Convey("When the user id is blank", func() {
			_, err := svc.AveragePerformance(context.Background(), "")
			So(errors.Is(err, service.ErrInvalidRequest), ShouldBeTrue)
		})
	})
}

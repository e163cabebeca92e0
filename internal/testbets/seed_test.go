package testbets

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/okian/valodds/internal/adapters/repository"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSeed(t *testing.T) {
	Convey("Given a seed configuration", t, func() {
		ctx := context.Background()
		dir := t.TempDir()

		Convey("When seeding a JSON data file", func() {
			path := filepath.Join(dir, "nested", "data.json")
			err := Seed(ctx, SeedConfig{Players: 3, MatchesPerPlayer: 2, Output: path})

			Convey("Then the JSON store should read it back", func() {
				So(err, ShouldBeNil)
				history, err := repository.NewJSONStore(path, nil).MatchHistory(ctx, PlayerID(2))
				So(err, ShouldBeNil)
				So(len(history), ShouldEqual, 2)
			})
		})

		Convey("When seeding a sqlite database", func() {
			path := filepath.Join(dir, "odds.db")
			err := Seed(ctx, SeedConfig{Players: 3, MatchesPerPlayer: 2, Output: path, Format: FormatSQLite})

			Convey("Then the SQL store should read it back", func() {
				So(err, ShouldBeNil)
				store, err := repository.OpenSQL(ctx, repository.DriverSQLite, path, nil)
				So(err, ShouldBeNil)
				defer store.Close()

				history, err := store.MatchHistory(ctx, PlayerID(0))
				So(err, ShouldBeNil)
				So(len(history), ShouldEqual, 2)

				label, err := store.UserRank(ctx, PlayerID(0))
				So(err, ShouldBeNil)
				So(label, ShouldNotBeEmpty)
			})
		})

		Convey("When the configuration is invalid", func() {
			So(errors.Is(Seed(ctx, SeedConfig{Players: 0, MatchesPerPlayer: 1, Output: "x.json"}), ErrInvalidSeed), ShouldBeTrue)
			So(errors.Is(Seed(ctx, SeedConfig{Players: 1, MatchesPerPlayer: 1}), ErrInvalidSeed), ShouldBeTrue)
			So(errors.Is(Seed(ctx, SeedConfig{Players: 1, MatchesPerPlayer: 1, Output: filepath.Join(dir, "x"), Format: "csv"}), ErrInvalidSeed), ShouldBeTrue)
		})
	})
}

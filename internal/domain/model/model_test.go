package model_test

import (
	"encoding/json"
	"testing"

	"github.com/okian/valodds/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func ptr(x float64) *float64 { return &x }

func TestMatchRecord_UnmarshalJSON(t *testing.T) {
	Convey("Given a provider match line", t, func() {
		Convey("When all metrics are present", func() {
			raw := `{"name":"tenz","matchId":"m-1","rank":"Immortal 3","kda":1.5,"kills":20,"deaths":12,
				"damage":3100,"kills_per_round":0.9,"headshots":8,"headshots_percent":31.2,"damage_per_round":150.4}`
			var rec model.MatchRecord
			err := json.Unmarshal([]byte(raw), &rec)

			Convey("Then every field should be decoded", func() {
				So(err, ShouldBeNil)
				So(rec.PlayerID, ShouldEqual, "tenz")
				So(rec.MatchID, ShouldEqual, "m-1")
				So(rec.Rank, ShouldEqual, "Immortal 3")
				So(len(rec.Values), ShouldEqual, 8)
				So(rec.Values[model.Kills], ShouldEqual, 20)
				So(rec.Values[model.DamagePerRound], ShouldEqual, 150.4)
			})
		})

		Convey("When a metric is null or missing", func() {
			raw := `{"name":"tenz","kills":20,"deaths":null,"unrelated":"x"}`
			var rec model.MatchRecord
			err := json.Unmarshal([]byte(raw), &rec)

			Convey("Then it should be left unset", func() {
				So(err, ShouldBeNil)
				So(rec.Values.Has(model.Kills), ShouldBeTrue)
				So(rec.Values.Has(model.Deaths), ShouldBeFalse)
				So(rec.Values.Has(model.KDA), ShouldBeFalse)
			})
		})

		Convey("When a metric has the wrong type", func() {
			var rec model.MatchRecord
			err := json.Unmarshal([]byte(`{"name":"tenz","kills":"many"}`), &rec)

			Convey("Then decoding should fail", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "kills")
			})
		})

		Convey("When the record is encoded again", func() {
			rec := model.MatchRecord{PlayerID: "tenz", MatchID: "m-2", Values: model.Values{model.Kills: 7}}
			b, err := json.Marshal(rec)
			So(err, ShouldBeNil)

			var back model.MatchRecord
			So(json.Unmarshal(b, &back), ShouldBeNil)

			Convey("Then it should keep the flat shape", func() {
				So(string(b), ShouldContainSubstring, `"name":"tenz"`)
				So(back.MatchID, ShouldEqual, "m-2")
				So(back.Values[model.Kills], ShouldEqual, 7)
			})
		})
	})
}

func TestPredictedPerformance_Values(t *testing.T) {
	Convey("Given a partial prediction", t, func() {
		p := model.PredictedPerformance{Kills: ptr(15), HeadshotsPercent: ptr(0)}

		Convey("Then only set metrics should be returned", func() {
			v := p.Values()
			So(len(v), ShouldEqual, 2)
			So(v[model.Kills], ShouldEqual, 15)
			So(v.Has(model.HeadshotsPercent), ShouldBeTrue)
			So(v.Has(model.Damage), ShouldBeFalse)
		})
	})

	Convey("Given an empty prediction", t, func() {
		Convey("Then no metrics should be returned", func() {
			So(model.PredictedPerformance{}.Values(), ShouldBeEmpty)
		})
	})
}

func TestMetric_IsKnown(t *testing.T) {
	Convey("Given the canonical metric set", t, func() {
		Convey("Then every canonical metric should be known", func() {
			for _, m := range model.AllMetrics() {
				So(m.IsKnown(), ShouldBeTrue)
			}
			So(model.Metric("assists").IsKnown(), ShouldBeFalse)
		})

		Convey("Then AllMetrics should return a copy", func() {
			ms := model.AllMetrics()
			ms[0] = "changed"
			So(model.AllMetrics()[0], ShouldEqual, model.KDA)
		})
	})
}

package model_test

import (
	"testing"

	model "github.com/okian/riff/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestHit(t *testing.T) {
	Convey("Given the two hit variants", t, func() {
		Convey("When a note was missed", func() {
			h := model.Missed()

			Convey("Then it reports a miss and carries no deviation", func() {
				So(h.IsMiss(), ShouldBeTrue)
				_, ok := h.Deviation()
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When a note was hit 50ms early", func() {
			h := model.HitAt(-0.05)

			Convey("Then it carries the deviation", func() {
				So(h.IsMiss(), ShouldBeFalse)
				dev, ok := h.Deviation()
				So(ok, ShouldBeTrue)
				So(dev, ShouldEqual, float32(-0.05))
			})
		})

		Convey("When a note was hit dead on", func() {
			h := model.HitAt(0)

			Convey("Then a zero deviation is still a hit, not a miss", func() {
				So(h.IsMiss(), ShouldBeFalse)
			})
		})
	})
}

func TestNoteTypeFromWire(t *testing.T) {
	Convey("Given wire note type integers", t, func() {
		Convey("When decoding the known range", func() {
			nt, err := model.NoteTypeFromWire(1)
			So(err, ShouldBeNil)
			So(nt, ShouldEqual, model.NoteTypeTap)

			nt, err = model.NoteTypeFromWire(2)
			So(err, ShouldBeNil)
			So(nt, ShouldEqual, model.NoteTypeHoldHead)

			nt, err = model.NoteTypeFromWire(7)
			So(err, ShouldBeNil)
			So(nt, ShouldEqual, model.NoteTypeFake)
		})

		Convey("When decoding an unknown integer", func() {
			_, err := model.NoteTypeFromWire(8)
			So(err, ShouldNotBeNil)

			_, err = model.NoteTypeFromWire(0)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestWifescore(t *testing.T) {
	Convey("Given the two wire scales", t, func() {
		Convey("When building from percent", func() {
			w := model.WifescoreFromPercent(93.5)
			So(w.Proportion(), ShouldAlmostEqual, 0.935, 1e-6)
		})

		Convey("When building from proportion", func() {
			w := model.WifescoreFromProportion(0.935)
			So(w.Percent(), ShouldAlmostEqual, 93.5, 1e-4)
		})
	})
}

func TestDifficultyFromString(t *testing.T) {
	Convey("Given difficulty names", t, func() {
		Convey("When parsing canonical and alias spellings", func() {
			d, err := model.DifficultyFromString("Challenge")
			So(err, ShouldBeNil)
			So(d, ShouldEqual, model.DifficultyChallenge)

			d, err = model.DifficultyFromString("Insane")
			So(err, ShouldBeNil)
			So(d, ShouldEqual, model.DifficultyChallenge)

			d, err = model.DifficultyFromString("Novice")
			So(err, ShouldBeNil)
			So(d, ShouldEqual, model.DifficultyBeginner)
		})

		Convey("When parsing garbage", func() {
			_, err := model.DifficultyFromString("Impossible")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestSkillsets(t *testing.T) {
	Convey("Given skillset values", t, func() {
		values := model.SkillsetValues{
			Stream: 1, Jumpstream: 2, Handstream: 3, Stamina: 4,
			Jackspeed: 5, Chordjack: 6, Technical: 7,
		}

		Convey("When reading categories in canonical order", func() {
			So(values.Values(), ShouldResemble, [7]float32{1, 2, 3, 4, 5, 6, 7})
			So(values.Get(model.SkillsetChordjack), ShouldEqual, 6)
		})

		Convey("When parsing user input", func() {
			ss, ok := model.SkillsetFromUserInput("JACKS")
			So(ok, ShouldBeTrue)
			So(ss, ShouldEqual, model.SkillsetJackspeed)

			_, ok = model.SkillsetFromUserInput("handstreams")
			So(ok, ShouldBeFalse)
		})

		Convey("When deriving the overall values", func() {
			Convey("Then chart overall is never below the max category", func() {
				So(values.ChartOverall(), ShouldBeGreaterThanOrEqualTo, 7.0)
			})

			Convey("Then player overall is deterministic", func() {
				So(values.PlayerOverall(), ShouldEqual, values.PlayerOverall())
			})
		})
	})
}

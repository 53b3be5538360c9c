package main

import (
	"errors"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func TestParseCommand(t *testing.T) {
	convey.Convey("Given the CLI command table", t, func() {
		convey.Convey("When no arguments are given", func() {
			_, err := parseCommand(nil)
			convey.So(errors.Is(err, errUsage), convey.ShouldBeTrue)
		})

		convey.Convey("When the command is unknown", func() {
			_, err := parseCommand([]string{"frobnicate"})
			convey.So(errors.Is(err, errUsage), convey.ShouldBeTrue)
		})

		convey.Convey("When a known command has its argument", func() {
			cmd, err := parseCommand([]string{"user", "kangalio"})
			convey.So(err, convey.ShouldBeNil)
			convey.So(cmd, convey.ShouldNotBeNil)
		})

		convey.Convey("When a known command is missing its argument", func() {
			_, err := parseCommand([]string{"score"})
			convey.So(errors.Is(err, errUsage), convey.ShouldBeTrue)
		})

		convey.Convey("When leaderboard is called with and without a country", func() {
			_, err := parseCommand([]string{"leaderboard"})
			convey.So(err, convey.ShouldBeNil)

			_, err = parseCommand([]string{"leaderboard", "DE"})
			convey.So(err, convey.ShouldBeNil)

			_, err = parseCommand([]string{"leaderboard", "DE", "US"})
			convey.So(errors.Is(err, errUsage), convey.ShouldBeTrue)
		})
	})
}

func TestParseTopArgs(t *testing.T) {
	convey.Convey("Given the top command's optional arguments", t, func() {
		convey.Convey("When no skillset is given", func() {
			skillset, limit, err := parseTopArgs(nil)
			convey.So(err, convey.ShouldBeNil)
			convey.So(skillset, convey.ShouldBeNil)
			convey.So(limit, convey.ShouldEqual, defaultTopScoresLimit)
		})

		convey.Convey("When a skillset alias is given", func() {
			skillset, _, err := parseTopArgs([]string{"cj"})
			convey.So(err, convey.ShouldBeNil)
			convey.So(skillset, convey.ShouldNotBeNil)
		})

		convey.Convey("When a custom limit is given", func() {
			_, limit, err := parseTopArgs([]string{"stream", "25"})
			convey.So(err, convey.ShouldBeNil)
			convey.So(limit, convey.ShouldEqual, 25)
		})

		convey.Convey("When the skillset is unknown", func() {
			_, _, err := parseTopArgs([]string{"vibro"})
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("When the limit is not a positive integer", func() {
			_, _, err := parseTopArgs([]string{"stream", "0"})
			convey.So(err, convey.ShouldNotBeNil)

			_, _, err = parseTopArgs([]string{"stream", "many"})
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

package logger_test

import (
	"context"
	"testing"

	"github.com/masarhr/murshid/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLogger(t *testing.T) {
	Convey("Given an initialized global logger", t, func() {
		err := logger.Init()
		So(err, ShouldBeNil)

		Convey("When getting the global logger", func() {
			l := logger.Get()

			Convey("Then it should not be nil", func() {
				So(l, ShouldNotBeNil)
			})

			Convey("And logging should not panic", func() {
				So(func() {
					l.Info(context.Background(), "test message",
						logger.String("key", "value"),
						logger.Int("count", 1),
						logger.Float64("score", 0.5),
					)
				}, ShouldNotPanic)
			})
		})

		Convey("When creating a named logger", func() {
			named := logger.Named("ranking")

			Convey("Then it should be usable", func() {
				So(named, ShouldNotBeNil)
				So(func() {
					named.Debug(context.Background(), "named message")
				}, ShouldNotPanic)
			})
		})

		Convey("When setting the level from a string", func() {
			Convey("Then known levels should be accepted", func() {
				So(logger.SetLevelString("debug"), ShouldBeNil)
				So(logger.SetLevelString("WARN"), ShouldBeNil)
				So(logger.SetLevelString(" error "), ShouldBeNil)
				So(logger.SetLevelString(""), ShouldBeNil)
			})

			Convey("And unknown levels should be rejected", func() {
				So(logger.SetLevelString("verbose"), ShouldNotBeNil)
			})
		})
	})
}

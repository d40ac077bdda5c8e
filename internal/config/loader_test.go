package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/masarhr/murshid/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLoad(t *testing.T) {
	Convey("Given a clean environment", t, func() {
		os.Unsetenv("MURSHID_CONFIG")
		os.Unsetenv("MURSHID_ADDR")
		os.Unsetenv("MURSHID_ALPHA")
		os.Unsetenv("MURSHID_DEFAULT_TOP_K")

		Convey("When loading with no file and no env", func() {
			cfg, err := config.Load(context.Background())

			Convey("Then defaults should apply", func() {
				So(err, ShouldBeNil)
				So(cfg.Addr, ShouldEqual, ":9090")
				So(cfg.Alpha, ShouldEqual, 0.5)
				So(cfg.DefaultTopK, ShouldEqual, 3)
				So(cfg.DiversityGrouping, ShouldEqual, "skill_category")
				So(cfg.CareerThresholds, ShouldResemble, []int{2, 5, 10})
				So(cfg.RelatedDepartments["finance"], ShouldResemble, []string{"operations"})
			})
		})

		Convey("When env variables are set", func() {
			os.Setenv("MURSHID_ADDR", ":7001")
			os.Setenv("MURSHID_DEFAULT_TOP_K", "5")
			defer os.Unsetenv("MURSHID_ADDR")
			defer os.Unsetenv("MURSHID_DEFAULT_TOP_K")

			cfg, err := config.Load(context.Background())

			Convey("Then env should override defaults", func() {
				So(err, ShouldBeNil)
				So(cfg.Addr, ShouldEqual, ":7001")
				So(cfg.DefaultTopK, ShouldEqual, 5)
			})
		})

		Convey("When a config file is provided", func() {
			dir := t.TempDir()
			path := filepath.Join(dir, "murshid.yaml")
			yaml := "addr: \":7002\"\nalpha: 0.7\ndiversity_grouping: department\n"
			So(os.WriteFile(path, []byte(yaml), 0o600), ShouldBeNil)
			os.Setenv("MURSHID_CONFIG", path)
			defer os.Unsetenv("MURSHID_CONFIG")

			Convey("Then file values should override defaults", func() {
				cfg, err := config.Load(context.Background())
				So(err, ShouldBeNil)
				So(cfg.Addr, ShouldEqual, ":7002")
				So(cfg.Alpha, ShouldEqual, 0.7)
				So(cfg.DiversityGrouping, ShouldEqual, "department")
			})

			Convey("And env should override the file", func() {
				os.Setenv("MURSHID_ADDR", ":7003")
				defer os.Unsetenv("MURSHID_ADDR")
				cfg, err := config.Load(context.Background())
				So(err, ShouldBeNil)
				So(cfg.Addr, ShouldEqual, ":7003")
			})
		})

		Convey("When the configuration is invalid", func() {
			Convey("Then an out-of-range alpha should be rejected", func() {
				os.Setenv("MURSHID_ALPHA", "1.5")
				defer os.Unsetenv("MURSHID_ALPHA")
				_, err := config.Load(context.Background())
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "alpha")
			})

			Convey("And an unknown diversity grouping should be rejected", func() {
				os.Setenv("MURSHID_DIVERSITY_GROUPING", "color")
				defer os.Unsetenv("MURSHID_DIVERSITY_GROUPING")
				_, err := config.Load(context.Background())
				So(err, ShouldNotBeNil)
			})
		})
	})
}

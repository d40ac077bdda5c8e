package model_test

import (
	"testing"

	"github.com/masarhr/murshid/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNormalize(t *testing.T) {
	Convey("Given categorical names", t, func() {
		Convey("When normalizing mixed-case names with spaces", func() {
			So(model.Normalize("Machine Learning"), ShouldEqual, "machine_learning")
			So(model.Normalize("  Information Technology "), ShouldEqual, "information_technology")
			So(model.Normalize("SQL"), ShouldEqual, "sql")
		})

		Convey("When normalizing a list", func() {
			out := model.NormalizeAll([]string{"Python", "", "Data Analysis"})

			Convey("Then empties should be dropped", func() {
				So(out, ShouldResemble, []string{"python", "data_analysis"})
			})
		})

		Convey("When building a set", func() {
			set := model.NormalizedSet([]string{"Python", "python", "ML"})

			Convey("Then duplicates should collapse", func() {
				So(len(set), ShouldEqual, 2)
				_, ok := set["python"]
				So(ok, ShouldBeTrue)
			})
		})
	})
}

func TestSkill(t *testing.T) {
	Convey("Given skills with out-of-range levels", t, func() {
		Convey("When clamping", func() {
			So(model.Skill{Name: "python", Level: 0}.ClampedLevel(), ShouldEqual, 1)
			So(model.Skill{Name: "python", Level: -3}.ClampedLevel(), ShouldEqual, 1)
			So(model.Skill{Name: "python", Level: 9}.ClampedLevel(), ShouldEqual, 5)
			So(model.Skill{Name: "python", Level: 3}.ClampedLevel(), ShouldEqual, 3)
		})
	})

	Convey("Given a profile with duplicate skill names", t, func() {
		p := model.EmployeeProfile{Skills: []model.Skill{
			{Name: "Python", Level: 2},
			{Name: "python", Level: 4},
			{Name: "SQL", Level: 3},
		}}

		Convey("When building the level map", func() {
			levels := p.SkillLevels()

			Convey("Then the later entry should win", func() {
				So(levels["python"], ShouldEqual, 4)
				So(levels["sql"], ShouldEqual, 3)
				So(len(levels), ShouldEqual, 2)
			})
		})
	})
}

func TestExperienceLevel(t *testing.T) {
	Convey("Given the level enumeration", t, func() {
		Convey("When asking for ordinals", func() {
			So(model.Beginner.Ordinal(), ShouldEqual, 1)
			So(model.Intermediate.Ordinal(), ShouldEqual, 2)
			So(model.Advanced.Ordinal(), ShouldEqual, 3)
			So(model.Expert.Ordinal(), ShouldEqual, 4)
			So(model.ExperienceLevel("Wizard").Ordinal(), ShouldEqual, 0)
		})
	})
}

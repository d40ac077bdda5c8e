package scoring_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/masarhr/murshid/internal/domain/model"
	"github.com/masarhr/murshid/internal/domain/scoring"
)

func newScorer() *scoring.Scorer {
	return scoring.NewScorer(
		scoring.WithRelatedDepartments(map[string][]string{
			"information_technology": {"engineering", "operations"},
			"engineering":            {"information_technology", "operations"},
		}),
	)
}

func TestScoreComposite(t *testing.T) {
	Convey("Given a scorer and a well-matched pair", t, func() {
		s := newScorer()
		p := model.EmployeeProfile{
			ExperienceYears: 3,
			Department: model.Department{
				Name:           "Information Technology",
				CriticalSkills: []string{"python", "sql"},
			},
			Skills: []model.Skill{
				{Name: "Python", Level: 2},
				{Name: "JavaScript", Level: 4},
			},
		}
		c := model.CourseCandidate{
			ID:             "course-001",
			RequiredSkills: []string{"Python", "SQL"},
			TargetLevel:    model.Intermediate,
			Department:     "Information Technology",
			DurationDays:   30,
		}

		Convey("When scoring", func() {
			composite, b := s.Score(p, c)

			Convey("Then every sub-score and the composite stay in [0,1]", func() {
				for _, v := range []float64{b.SkillMatch, b.SkillGapFill, b.DeptAlignment, b.CareerFit, composite} {
					So(v, ShouldBeBetweenOrEqual, 0, 1)
				}
			})

			Convey("Then the composite is the fixed convex combination", func() {
				want := 0.3*b.SkillMatch + 0.3*b.SkillGapFill + 0.2*b.DeptAlignment + 0.2*b.CareerFit
				So(composite, ShouldAlmostEqual, want, 1e-9)
			})

			Convey("Then scoring is deterministic", func() {
				again, _ := s.Score(p, c)
				So(again, ShouldAlmostEqual, composite, 1e-12)
			})
		})
	})
}

func TestSkillMatch(t *testing.T) {
	Convey("Given a scorer", t, func() {
		s := newScorer()

		Convey("When the employee holds half the required skills", func() {
			p := model.EmployeeProfile{
				ExperienceYears: 3,
				Skills: []model.Skill{
					{Name: "Python", Level: 4},
					{Name: "React", Level: 3},
				},
			}
			c := model.CourseCandidate{
				RequiredSkills: []string{"python", "sql"},
				TargetLevel:    model.Intermediate,
			}
			_, b := s.Score(p, c)

			Convey("Then coverage, proficiency and experience blend as weighted", func() {
				// coverage 0.5, proficiency 4/5 over the one matched skill,
				// exact experience match.
				So(b.SkillMatch, ShouldAlmostEqual, 0.5*0.5+0.3*0.8+0.2*1.0, 1e-9)
			})
		})

		Convey("When the employee has no skills and the course requires some", func() {
			p := model.EmployeeProfile{ExperienceYears: 3}
			c := model.CourseCandidate{
				RequiredSkills: []string{"python"},
				TargetLevel:    model.Intermediate,
			}
			_, b := s.Score(p, c)

			Convey("Then skill match is exactly zero", func() {
				So(b.SkillMatch, ShouldEqual, 0)
			})
		})

		Convey("When the course lists no required skills", func() {
			p := model.EmployeeProfile{
				ExperienceYears: 3,
				Skills:          []model.Skill{{Name: "Python", Level: 5}},
			}
			c := model.CourseCandidate{TargetLevel: model.Intermediate}
			_, b := s.Score(p, c)

			Convey("Then coverage is zero but experience credit still applies", func() {
				So(b.SkillMatch, ShouldAlmostEqual, 0.2*1.0, 1e-9)
			})
		})

		Convey("When tenure sits outside the target band", func() {
			c := model.CourseCandidate{
				RequiredSkills: []string{"python"},
				TargetLevel:    model.Beginner,
			}
			near := model.EmployeeProfile{
				ExperienceYears: 4, // two years past the Beginner band
				Skills:          []model.Skill{{Name: "Python", Level: 5}},
			}
			far := model.EmployeeProfile{
				ExperienceYears: 12,
				Skills:          []model.Skill{{Name: "Python", Level: 5}},
			}
			_, nb := s.Score(near, c)
			_, fb := s.Score(far, c)

			Convey("Then near misses outscore distant ones", func() {
				So(nb.SkillMatch, ShouldBeGreaterThan, fb.SkillMatch)
				So(nb.SkillMatch, ShouldAlmostEqual, 0.5+0.3+0.2*0.7, 1e-9)
				So(fb.SkillMatch, ShouldAlmostEqual, 0.5+0.3+0.2*0.3, 1e-9)
			})
		})

		Convey("When the course target level is unrecognized", func() {
			p := model.EmployeeProfile{
				ExperienceYears: 3,
				Skills:          []model.Skill{{Name: "Python", Level: 5}},
			}
			c := model.CourseCandidate{
				RequiredSkills: []string{"python"},
				TargetLevel:    model.ExperienceLevel("Wizard"),
			}
			_, b := s.Score(p, c)

			Convey("Then the experience factor is neutral, not a penalty", func() {
				So(b.SkillMatch, ShouldAlmostEqual, 0.5+0.3+0.2*0.5, 1e-9)
			})
		})
	})
}

func TestSkillGapFill(t *testing.T) {
	Convey("Given a scorer", t, func() {
		s := newScorer()

		Convey("When a course fills missing critical skills", func() {
			p := model.EmployeeProfile{
				Department: model.Department{
					CriticalSkills: []string{"python", "sql"},
				},
				Skills: []model.Skill{{Name: "Python", Level: 2}},
			}
			c := model.CourseCandidate{
				RequiredSkills: []string{"sql", "python"},
			}
			_, b := s.Score(p, c)

			Convey("Then all three gap shares contribute", func() {
				// sql fills 1 of 2 critical, 1 of 2 required is new,
				// python is held weak: 0.5*0.5 + 0.3*0.5 + 0.2*0.5.
				So(b.SkillGapFill, ShouldAlmostEqual, 0.5, 1e-9)
			})
		})

		Convey("When a course has no required skills", func() {
			_, b := s.Score(model.EmployeeProfile{}, model.CourseCandidate{})

			Convey("Then the gap score is the neutral-low floor", func() {
				So(b.SkillGapFill, ShouldAlmostEqual, 0.3, 1e-9)
			})
		})

		Convey("When every required skill is already held at strength", func() {
			p := model.EmployeeProfile{
				Skills: []model.Skill{{Name: "Python", Level: 5}},
			}
			c := model.CourseCandidate{RequiredSkills: []string{"python"}}
			_, b := s.Score(p, c)

			Convey("Then the course fills no gap", func() {
				So(b.SkillGapFill, ShouldEqual, 0)
			})
		})
	})
}

func TestDeptAlignment(t *testing.T) {
	Convey("Given a scorer with an IT/engineering relatedness table", t, func() {
		s := newScorer()
		score := func(emp, course string) float64 {
			_, b := s.Score(
				model.EmployeeProfile{Department: model.Department{Name: emp}},
				model.CourseCandidate{Department: course},
			)
			return b.DeptAlignment
		}

		Convey("Then exact matches score full", func() {
			So(score("Information Technology", "information technology"), ShouldEqual, 1.0)
		})

		Convey("Then related departments score the related tier", func() {
			So(score("Engineering", "Information Technology"), ShouldEqual, 0.7)
		})

		Convey("Then unrelated departments score the distant tier", func() {
			So(score("Finance", "Marketing"), ShouldEqual, 0.3)
		})

		Convey("Then a missing department on either side scores neutral", func() {
			So(score("", "Marketing"), ShouldEqual, 0.5)
			So(score("Finance", ""), ShouldEqual, 0.5)
		})
	})
}

func TestCareerFit(t *testing.T) {
	Convey("Given a scorer and a level-2 employee", t, func() {
		s := newScorer()
		p := model.EmployeeProfile{
			ExperienceYears: 3, // career level 2, next level 3
			Skills:          []model.Skill{{Name: "Python", Level: 4}},
		}
		fit := func(target model.ExperienceLevel, days int) float64 {
			_, b := s.Score(p, model.CourseCandidate{TargetLevel: target, DurationDays: days})
			return b.CareerFit
		}

		Convey("Then a next-level course outranks every other target", func() {
			next := fit(model.Advanced, 60)
			So(next, ShouldBeGreaterThan, fit(model.Intermediate, 60))
			So(next, ShouldBeGreaterThan, fit(model.Expert, 60))
			So(next, ShouldBeGreaterThan, fit(model.Beginner, 60))
			// 0.6*1.0 + 0.25*(4/5) + 0.15*1.0
			So(next, ShouldAlmostEqual, 0.95, 1e-9)
		})

		Convey("Then a course below the current level scores lowest on progression", func() {
			So(fit(model.Beginner, 60), ShouldAlmostEqual, 0.6*0.3+0.25*0.8+0.15*1.0, 1e-9)
		})

		Convey("Then an unknown target level scores neutral progression", func() {
			So(fit(model.ExperienceLevel("Guru"), 60), ShouldAlmostEqual, 0.6*0.5+0.25*0.8+0.15*1.0, 1e-9)
		})

		Convey("Then duration saturates at the substantial-course mark", func() {
			So(fit(model.Advanced, 120), ShouldAlmostEqual, fit(model.Advanced, 60), 1e-9)
			So(fit(model.Advanced, 30), ShouldBeLessThan, fit(model.Advanced, 60))
		})
	})
}

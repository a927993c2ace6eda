package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/perfscore/internal/domain/model"
)

const fixture = "testdata/dataset.yaml"

func baseOptions() *scoreOptions {
	return &scoreOptions{
		dataset: fixture,
		from:    "2025-03-01",
		to:      "2025-04-01",
		ref:     "2025-03-31",
		top:     10,
		output:  outputTable,
	}
}

func TestRunScore(t *testing.T) {
	t.Setenv("PERFSCORE_CONFIG", "")

	Convey("Given the sample dataset", t, func() {
		var stdout, stderr bytes.Buffer
		opts := baseOptions()

		Convey("table output lists every employee with a summary", func() {
			err := runScore(context.Background(), &stdout, &stderr, opts)
			So(err, ShouldBeNil)

			out := stdout.String()
			So(out, ShouldContainSubstring, "Alice")
			So(out, ShouldContainSubstring, "Bob")
			So(out, ShouldContainSubstring, "Cara")
			So(out, ShouldContainSubstring, "3 of 3 employees shown")
		})

		Convey("json output ranks the warned employee last", func() {
			opts.output = outputJSON
			err := runScore(context.Background(), &stdout, &stderr, opts)
			So(err, ShouldBeNil)

			var report struct {
				ReferenceDate time.Time `json:"reference_date"`
				Employees     int       `json:"employees"`
				Scores        []struct {
					EmployeeID     string  `json:"employee_id"`
					OverallScore   float64 `json:"overall_score"`
					WarningPenalty struct {
						TotalPenalty float64 `json:"total_penalty"`
					} `json:"warning_penalty"`
				} `json:"scores"`
				Failures []json.RawMessage `json:"failures"`
			}
			So(json.Unmarshal(stdout.Bytes(), &report), ShouldBeNil)
			So(report.Employees, ShouldEqual, 3)
			So(report.Scores, ShouldHaveLength, 3)
			So(report.Failures, ShouldBeEmpty)
			So(report.ReferenceDate.Equal(time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)), ShouldBeTrue)

			last := report.Scores[2]
			So(last.EmployeeID, ShouldEqual, "e1")
			So(last.WarningPenalty.TotalPenalty, ShouldAlmostEqual, 2)
			So(report.Scores[0].OverallScore, ShouldBeGreaterThanOrEqualTo, report.Scores[1].OverallScore)
		})

		Convey("top limits the rows but not the cohort size", func() {
			opts.top = 1
			err := runScore(context.Background(), &stdout, &stderr, opts)
			So(err, ShouldBeNil)
			So(stdout.String(), ShouldContainSubstring, "1 of 3 employees shown")
		})

		Convey("a location filter narrows the cohort", func() {
			opts.location = "L1"
			opts.output = outputJSON
			So(runScore(context.Background(), &stdout, &stderr, opts), ShouldBeNil)

			var report struct {
				Employees int `json:"employees"`
			}
			So(json.Unmarshal(stdout.Bytes(), &report), ShouldBeNil)
			So(report.Employees, ShouldEqual, 2)
		})

		Convey("an unknown output format is rejected", func() {
			opts.output = "xml"
			err := runScore(context.Background(), &stdout, &stderr, opts)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "unknown output")
		})

		Convey("a window needs both bounds", func() {
			opts.to = ""
			err := runScore(context.Background(), &stdout, &stderr, opts)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "--from and --to")
		})

		Convey("a bad date is rejected", func() {
			opts.ref = "31/03/2025"
			err := runScore(context.Background(), &stdout, &stderr, opts)
			So(errors.Is(err, model.ErrInvalidTime), ShouldBeTrue)
		})

		Convey("a missing dataset file is an error", func() {
			opts.dataset = "testdata/missing.yaml"
			So(runScore(context.Background(), &stdout, &stderr, opts), ShouldNotBeNil)
		})

		Convey("an invalid timezone is rejected", func() {
			opts.timezone = "Mars/Olympus"
			So(runScore(context.Background(), &stdout, &stderr, opts), ShouldNotBeNil)
		})
	})
}

func TestRootCommand(t *testing.T) {
	Convey("The root command wires its subcommands", t, func() {
		root := newRootCmd()
		names := map[string]bool{}
		for _, c := range root.Commands() {
			names[c.Name()] = true
		}
		So(names["serve"], ShouldBeTrue)
		So(names["score"], ShouldBeTrue)

		Convey("score requires a dataset", func() {
			var out bytes.Buffer
			root.SetOut(&out)
			root.SetErr(&out)
			root.SetArgs([]string{"score"})
			So(root.Execute(), ShouldNotBeNil)
		})
	})
}

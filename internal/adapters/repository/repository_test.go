package repository

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/perfscore/internal/domain/model"
)

func march() model.Window {
	return model.Window{
		Start: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
	}
}

func request(id string) model.Request {
	return model.Request{
		EmployeeID:    id,
		Window:        march(),
		ReferenceDate: time.Date(2025, 3, 31, 23, 0, 0, 0, time.UTC),
	}
}

func TestLoadDataset(t *testing.T) {
	Convey("Given the YAML fixture", t, func() {
		ds, err := LoadDataset("testdata/dataset.yaml")

		Convey("Then every record kind should decode", func() {
			So(err, ShouldBeNil)
			So(ds.Locations, ShouldHaveLength, 2)
			So(ds.Employees, ShouldHaveLength, 3)
			So(ds.Shifts, ShouldHaveLength, 4)
			So(ds.Attendance, ShouldHaveLength, 1)
			So(ds.Tasks, ShouldHaveLength, 2)
			So(ds.Tests, ShouldHaveLength, 1)
			So(ds.Reviews, ShouldHaveLength, 1)
			So(ds.Warnings, ShouldHaveLength, 2)
			So(*ds.Attendance[0].CheckInAt, ShouldEqual, time.Date(2025, 3, 3, 9, 10, 0, 0, time.UTC))
			So(ds.Tasks[1].CompletedAt, ShouldBeNil)
			So(*ds.Tests[0].Score, ShouldEqual, 80)
		})
	})

	Convey("Given a missing file", t, func() {
		_, err := LoadDataset("testdata/nope.yaml")
		So(err, ShouldNotBeNil)
	})
}

func TestDecodeDataset(t *testing.T) {
	Convey("Given a JSON dataset", t, func() {
		in := `{"employees":[{"id":"e1","name":"Alice","location_id":"L1"}],
			"warnings":[{"id":"w1","employee_id":"e1","event_date":"2025-03-20T00:00:00Z","severity":"major","category":"safety"}]}`
		ds, err := DecodeDataset(strings.NewReader(in), FormatJSON)

		So(err, ShouldBeNil)
		So(ds.Employees[0].Name, ShouldEqual, "Alice")
		So(string(ds.Warnings[0].Severity), ShouldEqual, "major")
	})

	Convey("Given an empty YAML document", t, func() {
		ds, err := DecodeDataset(strings.NewReader(""), FormatYAML)
		So(err, ShouldBeNil)
		So(ds.Employees, ShouldBeEmpty)
	})

	Convey("Given duplicate employee ids", t, func() {
		in := "employees:\n  - id: e1\n  - id: e1\n"
		_, err := DecodeDataset(strings.NewReader(in), FormatYAML)
		So(errors.Is(err, ErrInvalidDataset), ShouldBeTrue)
	})

	Convey("Given an employee without id", t, func() {
		in := "employees:\n  - name: nobody\n"
		_, err := DecodeDataset(strings.NewReader(in), FormatYAML)
		So(errors.Is(err, ErrInvalidDataset), ShouldBeTrue)
	})

	Convey("Given an unknown format", t, func() {
		_, err := DecodeDataset(strings.NewReader(""), "toml")
		So(errors.Is(err, ErrInvalidDataset), ShouldBeTrue)
	})

	Convey("Given malformed YAML", t, func() {
		_, err := DecodeDataset(strings.NewReader("employees: [:"), FormatYAML)
		So(errors.Is(err, ErrInvalidDataset), ShouldBeTrue)
	})
}

func TestMemorySourceInputs(t *testing.T) {
	Convey("Given a memory source over the fixture", t, func() {
		ds, err := LoadDataset("testdata/dataset.yaml")
		So(err, ShouldBeNil)
		src := NewMemorySource(ds)
		ctx := context.Background()

		Convey("When assembling inputs for Alice", func() {
			in, err := src.Inputs(ctx, request("e1"))

			Convey("Then identity, counts and warnings should be filled", func() {
				So(err, ShouldBeNil)
				So(in.Identity.Name, ShouldEqual, "Alice")
				So(in.Identity.LocationName, ShouldEqual, "Downtown")

				raw := in.Raw
				So(raw.ScheduledShifts, ShouldEqual, 2)
				So(raw.AttendedShifts, ShouldEqual, 1)
				So(raw.MissedShifts, ShouldEqual, 1)
				So(raw.LateCount, ShouldEqual, 1)
				So(raw.TotalLateMinutes, ShouldEqual, 10)
				So(raw.TasksAssigned, ShouldEqual, 2)
				So(raw.TasksCompleted, ShouldEqual, 1)
				So(raw.TasksCompletedOnTime, ShouldEqual, 1)
				So(raw.TasksOverdue, ShouldEqual, 1)
				So(raw.TestScores, ShouldResemble, []float64{80})
				So(raw.ReviewScores, ShouldResemble, []float64{90})

				So(in.Warnings, ShouldHaveLength, 1)
				So(in.Warnings[0].ID, ShouldEqual, "w1")
			})
		})

		Convey("When assembling inputs for Bob at a no-check-in location", func() {
			in, err := src.Inputs(ctx, request("e2"))
			So(err, ShouldBeNil)
			So(in.Raw.ScheduledShifts, ShouldEqual, 1)
			So(in.Raw.AttendedShifts, ShouldEqual, 1)
		})

		Convey("When the employee is unknown", func() {
			_, err := src.Inputs(ctx, request("ghost"))
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)
		})

		Convey("When the window is empty", func() {
			req := request("e1")
			req.Window.End = req.Window.Start
			_, err := src.Inputs(ctx, req)
			So(errors.Is(err, ErrInvalidWindow), ShouldBeTrue)
		})

		Convey("When listing employees", func() {
			all, err := src.Employees(ctx, "")
			So(err, ShouldBeNil)
			So(all, ShouldHaveLength, 3)
			So(all[0].ID, ShouldEqual, "e1")
			So(all[2].ID, ShouldEqual, "e3")

			l1, err := src.Employees(ctx, "L1")
			So(err, ShouldBeNil)
			So(l1, ShouldHaveLength, 2)
			So(src.Count(ctx), ShouldEqual, 3)
		})

		Convey("When looking up a location", func() {
			loc, ok := src.Location("L2")
			So(ok, ShouldBeTrue)
			So(loc.RequiresCheckIn, ShouldBeFalse)
			_, ok = src.Location("L9")
			So(ok, ShouldBeFalse)
		})

		Convey("When the dataset is replaced", func() {
			src.Replace(Dataset{Employees: []model.Employee{{ID: "z"}}})
			So(src.Count(ctx), ShouldEqual, 1)
			_, err := src.Inputs(ctx, request("e1"))
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestMemorySourceFetchDelay(t *testing.T) {
	Convey("Given a source with a fetch delay", t, func() {
		src := NewMemorySource(Dataset{Employees: []model.Employee{{ID: "e1"}}}, WithFetchDelay(time.Hour))

		Convey("When the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := src.Inputs(ctx, request("e1"))

			Convey("Then the read should abort", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})

		Convey("When listing with a cancelled context", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := src.Employees(ctx, "")
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}

package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/perfscore/internal/adapters/http/api"
	"github.com/okian/perfscore/internal/adapters/repository"
	service "github.com/okian/perfscore/internal/app"
	"github.com/okian/perfscore/internal/domain/leaderboard"
	"github.com/okian/perfscore/internal/domain/model"
	"github.com/okian/perfscore/internal/domain/types"
)

// mockDeps records the last query and returns canned results.
type mockDeps struct {
	lastQuery   service.Query
	lastLimit   int
	lastDataset *repository.Dataset
	scores      []model.EmployeePerformanceScore
	err         error
	cancelled   map[string]bool
}

func (m *mockDeps) cohort(q service.Query) service.Cohort {
	return service.Cohort{
		Window:        q.Window,
		ReferenceDate: q.ReferenceDate,
		Board:         leaderboard.Rank(m.scores),
		Failures:      []service.Failure{{EmployeeID: "ghost", Error: "employee not found"}},
	}
}

func (m *mockDeps) Score(_ context.Context, q service.Query) (service.Cohort, error) {
	m.lastQuery = q
	if m.err != nil {
		return service.Cohort{}, m.err
	}
	return m.cohort(q), nil
}

func (m *mockDeps) ScoreDataset(_ context.Context, ds repository.Dataset, q service.Query) (service.Cohort, error) {
	m.lastQuery = q
	m.lastDataset = &ds
	if m.err != nil {
		return service.Cohort{}, m.err
	}
	return m.cohort(q), nil
}

func (m *mockDeps) Leaderboard(_ context.Context, q service.Query, limit int) ([]types.Entry, error) {
	m.lastQuery = q
	m.lastLimit = limit
	if m.err != nil {
		return nil, m.err
	}
	return leaderboard.Rank(m.scores).TopEntries(limit), nil
}

func (m *mockDeps) EmployeeScore(_ context.Context, id string, q service.Query) (model.EmployeePerformanceScore, types.Entry, error) {
	m.lastQuery = q
	if m.err != nil {
		return model.EmployeePerformanceScore{}, types.Entry{}, m.err
	}
	board := leaderboard.Rank(m.scores)
	for _, s := range board.All() {
		if s.EmployeeID == id {
			return s, types.Entry{EmployeeID: id, Rank: board.Position(id), Score: s.OverallScore}, nil
		}
	}
	return model.EmployeePerformanceScore{}, types.Entry{}, repository.ErrNotFound
}

func (m *mockDeps) Cancel(id string) bool {
	return m.cancelled[id]
}

type mockStats struct{}

func (mockStats) GetStats() map[string]interface{} {
	return map[string]interface{}{"started": true, "batches": 3}
}

func score(id, loc string, overall float64) model.EmployeePerformanceScore {
	return model.EmployeePerformanceScore{
		Identity:     model.Identity{EmployeeID: id, Name: strings.ToUpper(id), LocationID: loc},
		OverallScore: overall,
	}
}

func newDeps() *mockDeps {
	return &mockDeps{
		scores: []model.EmployeePerformanceScore{
			score("a", "L1", 70), score("b", "L2", 95), score("c", "L1", 80),
		},
		cancelled: map[string]bool{"busy": true},
	}
}

func serve(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(rec *httptest.ResponseRecorder) (code string) {
	var body struct {
		Code string `json:"code"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return body.Code
}

func TestLeaderboardEndpoint(t *testing.T) {
	Convey("Given the API router", t, func() {
		deps := newDeps()
		h := api.NewServer(deps, mockStats{}, api.WithMaxLimit(2)).Router()

		Convey("When requesting the leaderboard with a date window", func() {
			rec := serve(h, http.MethodGet, "/leaderboard?limit=2&from=2025-03-01&to=2025-04-01&ref=2025-03-31T12:00:00Z&location=L1", "")

			Convey("Then the ranked entries and parsed query should match", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var entries []types.Entry
				So(json.Unmarshal(rec.Body.Bytes(), &entries), ShouldBeNil)
				So(entries, ShouldHaveLength, 2)
				So(entries[0].EmployeeID, ShouldEqual, "b")
				So(entries[0].Rank, ShouldEqual, 1)

				So(deps.lastLimit, ShouldEqual, 2)
				So(deps.lastQuery.LocationID, ShouldEqual, "L1")
				So(deps.lastQuery.Window.Start, ShouldEqual, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
				So(deps.lastQuery.Window.End, ShouldEqual, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC))
				So(deps.lastQuery.ReferenceDate, ShouldEqual, time.Date(2025, 3, 31, 12, 0, 0, 0, time.UTC))
			})
		})

		Convey("When no limit is given", func() {
			rec := serve(h, http.MethodGet, "/leaderboard", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(deps.lastLimit, ShouldEqual, 2)
		})

		Convey("When the limit is invalid", func() {
			rec := serve(h, http.MethodGet, "/leaderboard?limit=zero", "")
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			So(decodeError(rec), ShouldEqual, "bad_request")
		})

		Convey("When the limit exceeds the maximum", func() {
			rec := serve(h, http.MethodGet, "/leaderboard?limit=3", "")
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			So(decodeError(rec), ShouldEqual, "limit_exceeded")
		})

		Convey("When only one window bound is given", func() {
			rec := serve(h, http.MethodGet, "/leaderboard?from=2025-03-01", "")
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When a date cannot be parsed", func() {
			rec := serve(h, http.MethodGet, "/leaderboard?ref=yesterday", "")
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the service reports an invalid window", func() {
			deps.err = repository.ErrInvalidWindow
			rec := serve(h, http.MethodGet, "/leaderboard", "")
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the service is not started", func() {
			deps.err = service.ErrNotStarted
			rec := serve(h, http.MethodGet, "/leaderboard", "")
			So(rec.Code, ShouldEqual, http.StatusServiceUnavailable)
		})

		Convey("When the service fails unexpectedly", func() {
			deps.err = errors.New("boom")
			rec := serve(h, http.MethodGet, "/leaderboard", "")
			So(rec.Code, ShouldEqual, http.StatusInternalServerError)
			So(decodeError(rec), ShouldEqual, "internal_error")
		})
	})
}

func TestEmployeeEndpoints(t *testing.T) {
	Convey("Given the API router", t, func() {
		deps := newDeps()
		h := api.NewServer(deps, mockStats{}).Router()

		Convey("When requesting a known employee", func() {
			rec := serve(h, http.MethodGet, "/employees/c/score", "")

			Convey("Then the score and rank should be returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var body struct {
					Rank  int `json:"rank"`
					Score struct {
						EmployeeID   string  `json:"employee_id"`
						OverallScore float64 `json:"overall_score"`
					} `json:"score"`
				}
				So(json.Unmarshal(rec.Body.Bytes(), &body), ShouldBeNil)
				So(body.Rank, ShouldEqual, 2)
				So(body.Score.EmployeeID, ShouldEqual, "c")
				So(body.Score.OverallScore, ShouldEqual, 80)
			})
		})

		Convey("When requesting an unknown employee", func() {
			rec := serve(h, http.MethodGet, "/employees/zz/score", "")
			So(rec.Code, ShouldEqual, http.StatusNotFound)
			So(decodeError(rec), ShouldEqual, "not_found")
		})

		Convey("When cancelling an employee", func() {
			rec := serve(h, http.MethodDelete, "/employees/busy/score", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, `"cancelled":true`)

			rec = serve(h, http.MethodDelete, "/employees/idle/score", "")
			So(rec.Body.String(), ShouldContainSubstring, `"cancelled":false`)
		})
	})
}

func TestScoresEndpoint(t *testing.T) {
	Convey("Given the API router", t, func() {
		deps := newDeps()
		h := api.NewServer(deps, mockStats{}).Router()

		Convey("When posting an inline dataset", func() {
			body := `{
				"reference_date": "2025-03-31",
				"window": {"start": "2025-03-01", "end": "2025-04-01"},
				"top_n": 1,
				"dataset": {"employees": [{"id": "a", "name": "A"}]}
			}`
			rec := serve(h, http.MethodPost, "/scores", body)

			Convey("Then the dataset should be scored and grouped", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(deps.lastDataset, ShouldNotBeNil)
				So(deps.lastDataset.Employees[0].ID, ShouldEqual, "a")

				var resp struct {
					Scores    []json.RawMessage          `json:"scores"`
					Top       []types.Entry              `json:"top"`
					Locations map[string]json.RawMessage `json:"locations"`
					Failures  []service.Failure          `json:"failures"`
				}
				So(json.Unmarshal(rec.Body.Bytes(), &resp), ShouldBeNil)
				So(resp.Scores, ShouldHaveLength, 3)
				So(resp.Top, ShouldHaveLength, 1)
				So(resp.Top[0].EmployeeID, ShouldEqual, "b")
				So(resp.Locations, ShouldContainKey, "L1")
				So(resp.Locations, ShouldContainKey, "L2")
				So(resp.Failures, ShouldHaveLength, 1)
			})
		})

		Convey("When posting without a dataset", func() {
			rec := serve(h, http.MethodPost, "/scores?top_n=2", `{"employee_ids": ["a", "b"]}`)
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(deps.lastDataset, ShouldBeNil)
			So(deps.lastQuery.EmployeeIDs, ShouldResemble, []string{"a", "b"})
		})

		Convey("When the body is malformed", func() {
			rec := serve(h, http.MethodPost, "/scores", `{"window":`)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the body has unknown fields", func() {
			rec := serve(h, http.MethodPost, "/scores", `{"weights": {"attendance": 2}}`)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the dataset is rejected", func() {
			deps.err = repository.ErrInvalidDataset
			rec := serve(h, http.MethodPost, "/scores", `{"dataset": {"employees": [{"name": "x"}]}}`)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestOperationalEndpoints(t *testing.T) {
	Convey("Given the API router", t, func() {
		h := api.NewServer(newDeps(), mockStats{}).Router()

		Convey("When reading stats", func() {
			rec := serve(h, http.MethodGet, "/stats", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, `"batches":3`)
		})

		Convey("When scraping health metrics after a request", func() {
			_ = serve(h, http.MethodGet, "/stats", "")
			rec := serve(h, http.MethodGet, "/healthz", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, "perfscore_engine_http_requests_total")
		})

		Convey("When using an unsupported method", func() {
			rec := serve(h, http.MethodPut, "/leaderboard", "")
			So(rec.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})

		Convey("When a CORS preflight arrives", func() {
			req := httptest.NewRequest(http.MethodOptions, "/leaderboard", nil)
			req.Header.Set("Origin", "https://dash.example")
			req.Header.Set("Access-Control-Request-Method", http.MethodGet)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			So(rec.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "*")
		})
	})
}

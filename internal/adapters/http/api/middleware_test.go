package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/perfscore/pkg/metrics"
)

func errorCount(endpoint, method, class string) float64 {
	families, err := metrics.GetRegistry().Gather()
	if err != nil {
		return -1
	}
	for _, mf := range families {
		if mf.GetName() != "perfscore_engine_errors_by_endpoint_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, l := range m.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			if labels["endpoint"] == endpoint && labels["method"] == method && labels["error_type"] == class {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestErrorClass(t *testing.T) {
	Convey("Failed statuses map to the error codes the API returns", t, func() {
		So(errorClass(http.StatusBadRequest), ShouldEqual, codeBadRequest)
		So(errorClass(http.StatusNotFound), ShouldEqual, codeNotFound)
		So(errorClass(http.StatusServiceUnavailable), ShouldEqual, codeUnavailable)
		So(errorClass(http.StatusGatewayTimeout), ShouldEqual, codeTimeout)
		So(errorClass(http.StatusInternalServerError), ShouldEqual, codeInternal)
		So(errorClass(http.StatusMethodNotAllowed), ShouldEqual, "client_error")
	})
}

func TestMetricsMiddleware(t *testing.T) {
	Convey("Given a handler wrapped for metrics", t, func() {
		status := http.StatusOK
		h := MetricsMiddleware(func(w http.ResponseWriter, _ *http.Request) {
			if status != http.StatusOK {
				w.WriteHeader(status)
			}
			_, _ = w.Write([]byte("{}"))
		}, "middleware_test")

		Convey("When the handler fails with 404", func() {
			before := errorCount("middleware_test", http.MethodGet, codeNotFound)
			status = http.StatusNotFound
			rec := httptest.NewRecorder()
			h(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

			Convey("Then the response passes through and the error is counted as not_found", func() {
				So(rec.Code, ShouldEqual, http.StatusNotFound)
				So(rec.Body.String(), ShouldEqual, "{}")
				So(errorCount("middleware_test", http.MethodGet, codeNotFound), ShouldEqual, before+1)
			})
		})

		Convey("When the handler succeeds without writing a header", func() {
			before := errorCount("middleware_test", http.MethodPost, codeInternal)
			rec := httptest.NewRecorder()
			h(rec, httptest.NewRequest(http.MethodPost, "/x", nil))

			Convey("Then no error is counted", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(errorCount("middleware_test", http.MethodPost, codeInternal), ShouldEqual, before)
			})
		})
	})
}

package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/ogurasousui/engineer-capacity/internal/core/allocation"
)

func counterValue(registry *prometheus.Registry, name string, labels map[string]string) float64 {
	families, err := registry.Gather()
	if err != nil {
		return -1
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metrics:
		for _, metric := range mf.GetMetric() {
			for _, lp := range metric.GetLabel() {
				if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
					continue metrics
				}
			}
			return metric.GetCounter().GetValue()
		}
	}
	return 0
}

func TestManager(t *testing.T) {
	Convey("Given a metrics manager on a private registry", t, func() {
		registry := prometheus.NewRegistry()
		m := NewManager(WithRegistry(registry), WithNamespace("test"))

		Convey("When a valid and a rejected validation are observed", func() {
			m.ObserveValidation(allocation.ValidationResult{})
			m.ObserveValidation(allocation.ValidationResult{
				allocation.FieldEngineerID:           "skills",
				allocation.FieldAllocationPercentage: "capacity",
			})

			Convey("Then results and fields are counted", func() {
				So(counterValue(registry, "test_allocation_validations_total", map[string]string{"result": "accepted"}), ShouldEqual, 1)
				So(counterValue(registry, "test_allocation_validations_total", map[string]string{"result": "rejected"}), ShouldEqual, 1)
				So(counterValue(registry, "test_allocation_validation_errors_total", map[string]string{"field": "engineerId"}), ShouldEqual, 1)
				So(counterValue(registry, "test_allocation_validation_errors_total", map[string]string{"field": "allocationPercentage"}), ShouldEqual, 1)
			})
		})

		Convey("When a gRPC request is observed", func() {
			m.ObserveRequest("/capacity.v1.AssignmentService/CreateAssignment", "OK", 15*time.Millisecond)

			Convey("Then it is exposed by the handler", func() {
				rec := httptest.NewRecorder()
				m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
				body, _ := io.ReadAll(rec.Body)

				So(rec.Code, ShouldEqual, 200)
				So(strings.Contains(string(body), `test_grpc_requests_total{code="OK",method="/capacity.v1.AssignmentService/CreateAssignment"} 1`), ShouldBeTrue)
				So(strings.Contains(string(body), "test_grpc_request_duration_seconds_bucket"), ShouldBeTrue)
			})
		})
	})
}

func TestManager_NilSafe(t *testing.T) {
	t.Parallel()

	var m *Manager
	m.ObserveValidation(allocation.ValidationResult{})
	m.ObserveRequest("x", "OK", time.Second)
}

package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestConstructorsSetCodeAndStatus(t *testing.T) {
	cases := []struct {
		name       string
		err        *AppError
		wantCode   string
		wantStatus int
	}{
		{"not found", NotFound("Bid"), CodeNotFound, http.StatusNotFound},
		{"not found with id", NotFoundWithID("Bid", "abc"), CodeNotFound, http.StatusNotFound},
		{"conflict", Conflict("already processed"), CodeConflict, http.StatusConflict},
		{"validation", Validation("bad input", nil), CodeValidation, http.StatusUnprocessableEntity},
		{"invalid input", InvalidInput("empty id"), CodeInvalidInput, http.StatusBadRequest},
		{"invalid odometer", InvalidOdometer("below minimum", 900, 1000), CodeInvalidOdometer, http.StatusUnprocessableEntity},
		{"sequence violation", SequenceViolation("no start reading"), CodeSequenceViolation, http.StatusUnprocessableEntity},
		{"internal", Internal("boom", errors.New("cause")), CodeInternal, http.StatusInternalServerError},
		{"timeout", Timeout("too slow"), CodeTimeout, http.StatusGatewayTimeout},
		{"unavailable", Unavailable("bid queue"), CodeUnavailable, http.StatusServiceUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err.Code != tc.wantCode {
				t.Errorf("code = %s, want %s", tc.err.Code, tc.wantCode)
			}
			if tc.err.StatusCode() != tc.wantStatus {
				t.Errorf("status = %d, want %d", tc.err.StatusCode(), tc.wantStatus)
			}
		})
	}
}

func TestInvalidOdometerCarriesReadings(t *testing.T) {
	err := InvalidOdometer("below minimum", 900, 1000)

	if err.Details["reading"] != float64(900) {
		t.Errorf("reading detail = %v, want 900", err.Details["reading"])
	}
	if err.Details["minimum"] != float64(1000) {
		t.Errorf("minimum detail = %v, want 1000", err.Details["minimum"])
	}
}

func TestUnwrapExposesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Internal("query failed", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is must find the wrapped cause")
	}
}

func TestAsAppErrorThroughWrapping(t *testing.T) {
	inner := Conflict("bid already processed")
	wrapped := fmt.Errorf("accept failed: %w", inner)

	got := AsAppError(wrapped)
	if got.Code != CodeConflict {
		t.Errorf("code = %s, want %s", got.Code, CodeConflict)
	}
}

func TestAsAppErrorFoldsPlainErrors(t *testing.T) {
	got := AsAppError(errors.New("plain"))
	if got.Code != CodeInternal {
		t.Errorf("code = %s, want %s", got.Code, CodeInternal)
	}
	if got.StatusCode() != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", got.StatusCode())
	}
}

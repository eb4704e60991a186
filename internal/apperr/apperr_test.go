package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", Validation("runnerIds must contain %d ids", 10), http.StatusBadRequest},
		{"wrapped_not_found", fmt.Errorf("load race: %w", NotFound("race %s", "r1")), http.StatusNotFound},
		{"forbidden", Forbidden("admin only"), http.StatusForbidden},
		{"conflict", Conflict("race started"), http.StatusConflict},
		{"unauthorized", ErrUnauthorized, http.StatusUnauthorized},
		{"other", errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Status(tc.err); got != tc.want {
				t.Errorf("Status(%v) = %d, want %d", tc.err, got, tc.want)
			}
		})
	}
}

func TestValidationMessage(t *testing.T) {
	err := Validation("runnerIds must contain %d ids", 10)
	if err.Error() != "runnerIds must contain 10 ids: validation failed" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if !Public(err) {
		t.Error("validation errors are public")
	}
	if Public(errors.New("db down")) {
		t.Error("internal errors are not public")
	}
}

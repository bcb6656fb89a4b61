package api

import (
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/girder/covalic/app/shared"
	"github.com/girder/covalic/app/shared/errs"
)

func TestSubmissionListParams(t *testing.T) {
	phaseID := shared.PhaseID(uuid.New())
	userID := shared.UserID(uuid.New())

	t.Run("latest filter is on by default", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/covalic_submission?phaseId="+phaseID.String(), nil)
		params, err := submissionListParams(r)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !params.LatestOnly {
			t.Error("expected LatestOnly on without an explicit latest parameter")
		}
	})

	t.Run("latest=false opts out", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/covalic_submission?phaseId="+phaseID.String()+"&latest=false", nil)
		params, err := submissionListParams(r)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if params.LatestOnly {
			t.Error("expected LatestOnly off for latest=false")
		}
	})

	t.Run("user filter is forwarded", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/covalic_submission?phaseId="+phaseID.String()+"&userId="+userID.String(), nil)
		params, err := submissionListParams(r)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if params.UserID == nil || *params.UserID != userID {
			t.Errorf("expected user filter %s, got %v", userID, params.UserID)
		}
	})

	t.Run("invalid phase ID rejected", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/covalic_submission?phaseId=nope", nil)
		if _, err := submissionListParams(r); !errs.IsValidation(err) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})
}

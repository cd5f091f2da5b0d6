package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataForTaxonomyCodes(t *testing.T) {
	tests := []struct {
		code   Code
		status int
	}{
		{CodeNotFound, http.StatusNotFound},
		{CodeInvalidArgument, http.StatusBadRequest},
		{CodeInvalidState, http.StatusConflict},
		{CodeSecurityViolation, http.StatusForbidden},
		{CodeExternalService, http.StatusBadGateway},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeDependency, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		assert.Equalf(t, tt.status, MetadataFor(tt.code).HTTPStatus, "code %s", tt.code)
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	assert.Equal(t, http.StatusInternalServerError, meta.HTTPStatus)
}

func TestWrapKeepsCauseAndCode(t *testing.T) {
	cause := stdErrors.New("connection reset")
	err := Wrap(CodeExternalService, cause, "create charge")

	require.True(t, stdErrors.Is(err, cause))
	assert.Equal(t, CodeExternalService, err.Code())
	assert.Equal(t, "create charge", err.Message())

	wrapped := fmt.Errorf("charge order: %w", err)
	assert.True(t, IsCode(wrapped, CodeExternalService))
	assert.False(t, IsCode(wrapped, CodeNotFound))
	assert.False(t, IsCode(stdErrors.New("plain"), CodeNotFound))
}

func TestWithDetails(t *testing.T) {
	err := New(CodeInvalidState, "insufficient product quantity").
		WithDetails(map[string]int{"available": 5, "requested": 10})
	assert.NotNil(t, err.Details())
}

func TestDumpCollectsChain(t *testing.T) {
	err := Wrap(CodeDependency, stdErrors.New("boom"), "load order")
	dump := Dump(err)
	assert.Equal(t, CodeDependency, dump.Code)
	assert.Len(t, dump.Chain, 2)
	assert.Empty(t, dump.PGCode)
}

package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusError(t *testing.T) {
	err := fmt.Errorf("fetching incidents: %w", &StatusError{
		Method:     "GET",
		URL:        "https://api.pagerduty.com/incidents",
		StatusCode: 401,
		Body:       `{"error":"unauthorized"}` + "\n",
	})

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, 401, statusErr.StatusCode)
	assert.Equal(t, `fetching incidents: GET https://api.pagerduty.com/incidents: unexpected status 401: {"error":"unauthorized"}`, err.Error())
}

func TestStatusErrorWithoutBody(t *testing.T) {
	err := &StatusError{Method: "POST", URL: "/wiki", StatusCode: 500}
	assert.Equal(t, "POST /wiki: unexpected status 500", err.Error())
}

func TestDecodeErrorUnwraps(t *testing.T) {
	inner := json.Unmarshal([]byte("{"), &struct{}{})
	require.Error(t, inner)

	err := &DecodeError{URL: "/incidents", Err: inner}
	var syntaxErr *json.SyntaxError
	assert.ErrorAs(t, err, &syntaxErr)
	assert.Contains(t, err.Error(), "decoding response from /incidents")
}

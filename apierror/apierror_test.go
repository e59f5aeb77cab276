package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromStatus(t *testing.T) {
	cases := map[int]Kind{
		http.StatusBadRequest:          Validation,
		http.StatusUnprocessableEntity: Validation,
		http.StatusUnauthorized:        Authorization,
		http.StatusForbidden:           Authorization,
		http.StatusNotFound:            NotFound,
		http.StatusInternalServerError: Transport,
		http.StatusBadGateway:          Transport,
	}
	for status, kind := range cases {
		require.Equal(t, kind, FromStatus(status, "x").Kind, status)
	}
}

func TestFromStatus_ServerErrorsCarryRetryHint(t *testing.T) {
	err := FromStatus(http.StatusInternalServerError, "database unavailable")
	require.Equal(t, "database unavailable: "+RetryHint, Message(err))

	err = FromStatus(http.StatusServiceUnavailable, "")
	require.Equal(t, RetryHint, Message(err))

	require.Equal(t, "not eligible", FromStatus(http.StatusForbidden, "not eligible").Message)
}

func TestIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("assign: %w", FromStatus(http.StatusForbidden, "not eligible"))
	require.True(t, errors.Is(err, ErrAuthorization))
	require.False(t, errors.Is(err, ErrNotFound))
	require.Equal(t, Authorization, KindOf(err))
	require.Equal(t, "not eligible", Message(err))
}

func TestTransportWrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewTransport(cause)
	require.ErrorIs(t, err, cause)
	require.ErrorIs(t, err, ErrTransport)
	require.Equal(t, RetryHint, Message(err))
}

func TestKindOfUnclassified(t *testing.T) {
	require.Equal(t, Transport, KindOf(errors.New("boom")))
}

package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(cause, CodeInternal, "commit balance record")

	require.Error(t, err)
	assert.True(t, errors.Is(err, cause))
	assert.True(t, HasCode(err, CodeInternal))
	assert.False(t, HasCode(err, CodeNotFound))
}

func TestWrapNilIsNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, CodeInternal, "ignored"))
}

func TestIsSeesNestedCodes(t *testing.T) {
	inner := New(CodeInsufficientFunds, "balance too low")
	outer := Wrap(inner, CodeInternal, "transfer failed")

	assert.True(t, Is(outer, CodeInternal))
	assert.True(t, Is(outer, CodeInsufficientFunds))
}

func TestIsIgnoresPlainErrors(t *testing.T) {
	assert.False(t, Is(fmt.Errorf("plain"), CodeInternal))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, CodeSameAccount, GetCode(New(CodeSameAccount, "x")))
	assert.Equal(t, CodeInternal, GetCode(errors.New("plain")))
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeInvalidAmount:      http.StatusBadRequest,
		CodeUnauthorized:       http.StatusUnauthorized,
		CodeNotFound:           http.StatusNotFound,
		CodeAlreadyEnrolled:    http.StatusConflict,
		CodeInsufficientFunds:  http.StatusUnprocessableEntity,
		CodeTimeout:            http.StatusGatewayTimeout,
		CodeLedgerInconsistent: http.StatusInternalServerError,
		Code("unknown"):        http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, ToHTTPStatus(code), string(code))
	}
}

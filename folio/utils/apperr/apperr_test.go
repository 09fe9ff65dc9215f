package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromUpstreamStatus(t *testing.T) {
	cases := []struct {
		status int
		kind   Kind
		code   int
		msg    string
	}{
		{http.StatusTooManyRequests, KindRateLimited, http.StatusTooManyRequests, MsgUpstreamRateLimited},
		{http.StatusPaymentRequired, KindPaymentRequired, http.StatusPaymentRequired, MsgUpstreamCredits},
		{http.StatusBadGateway, KindUpstream, http.StatusInternalServerError, MsgUpstreamGateway},
		{http.StatusUnauthorized, KindUpstream, http.StatusInternalServerError, MsgUpstreamGateway},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprint(tc.status), func(t *testing.T) {
			err := FromUpstreamStatus(tc.status, nil)
			assert.Equal(t, tc.kind, err.Kind)
			assert.Equal(t, tc.code, err.Kind.Status())
			assert.Equal(t, tc.msg, err.Message)
		})
	}
}

func TestAsWrapsUnknownErrors(t *testing.T) {
	plain := errors.New("boom")
	e := As(plain)
	assert.Equal(t, KindInternal, e.Kind)
	assert.Equal(t, "boom", e.Message)
	assert.ErrorIs(t, e, plain)

	wrapped := fmt.Errorf("handler: %w", BadRequest("missing"))
	assert.Equal(t, KindBadRequest, As(wrapped).Kind)
	assert.True(t, Is(wrapped, KindBadRequest))
	assert.False(t, Is(wrapped, KindUnauthorized))
}

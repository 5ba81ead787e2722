package errors

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestWrapKeepsCode(t *testing.T) {
	base := NotFound("section bus_stops")
	wrapped := Wrap(base, "load narrative")

	assert.Equal(t, CodeNotFound, GetCode(wrapped))
	assert.Contains(t, wrapped.Error(), "load narrative")
	assert.Contains(t, wrapped.Error(), "section bus_stops not found")
	assert.True(t, IsAppError(wrapped))
}

func TestWrapPlainError(t *testing.T) {
	err := Wrapf(eris.New("disk full"), "write %s", "report.md")
	assert.Equal(t, CodeInternalError, GetCode(err))
	assert.Contains(t, err.Error(), "write report.md")

	assert.Nil(t, Wrap(nil, "ignored"))
	assert.Equal(t, "UNKNOWN", GetCode(eris.New("bare")))
}

func TestWithCode(t *testing.T) {
	err := WithCode(CodeInvalidInput, eris.New("bad filter"))
	assert.Equal(t, CodeInvalidInput, GetCode(err))

	recoded := WithCode(CodeDataUnavailable, ConfigInvalid("x"))
	assert.Equal(t, CodeDataUnavailable, GetCode(recoded))
	assert.Nil(t, WithCode(CodeInvalidInput, nil))
}

func TestDataUnavailable(t *testing.T) {
	err := DataUnavailable("areas.csv", eris.New("no rows"))
	assert.Equal(t, CodeDataUnavailable, err.Code)
	assert.Equal(t, "data unavailable: areas.csv: no rows", err.Error())
}

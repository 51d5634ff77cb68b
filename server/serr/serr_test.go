package serr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_New_matchesEveryCauseWithErrorsIs(t *testing.T) {
	underlying := fmt.Errorf("disk on fire")
	err := New("could not load entry", underlying, ErrNotFound)

	assert.True(t, errors.Is(err, underlying))
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrDB))
}

func Test_WrapDB_addsDBSentinelAndKeepsCause(t *testing.T) {
	underlying := fmt.Errorf("constraint violated")
	err := WrapDB("SQLITE_CONSTRAINT", underlying)

	assert.True(t, errors.Is(err, ErrDB))
	assert.True(t, errors.Is(err, underlying))
	assert.Equal(t, "SQLITE_CONSTRAINT: constraint violated", err.Error())
}

func Test_Error_messageForms(t *testing.T) {
	assert.Equal(t, "just a message", New("just a message").Error())
	assert.Equal(t, "the requested entity could not be found", New("", ErrNotFound).Error())
	assert.Equal(t, "lookup failed: the requested entity could not be found", New("lookup failed", ErrNotFound).Error())
}

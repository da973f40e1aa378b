package docsift_test

import (
	"errors"
	"testing"

	"github.com/fwojciec/docsift"
	"github.com/stretchr/testify/assert"
)

func TestErrorf(t *testing.T) {
	t.Parallel()

	err := docsift.Errorf(docsift.ENOTFOUND, "no page type detected for %q", "https://example.com/x")

	assert.Equal(t, docsift.ENOTFOUND, docsift.ErrorCode(err))
	assert.Equal(t, "no page type detected for \"https://example.com/x\"", docsift.ErrorMessage(err))
}

func TestErrorCode_NilError(t *testing.T) {
	t.Parallel()

	assert.Empty(t, docsift.ErrorCode(nil))
}

func TestErrorCode_NonDomainError(t *testing.T) {
	t.Parallel()

	assert.Equal(t, docsift.EINTERNAL, docsift.ErrorCode(errors.New("boom")))
}

func TestErrorMessage_NilError(t *testing.T) {
	t.Parallel()

	assert.Empty(t, docsift.ErrorMessage(nil))
}

package db

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kreasi-nusantara/compro/internal/shared"
)

func TestTxErrorKeepsTaxonomy(t *testing.T) {
	for _, err := range []error{
		shared.NewValidationError("name", "wajib diisi"),
		shared.NotFound("layanan"),
		shared.Conflict("role masih direferensikan"),
		shared.ErrBadCredentials,
	} {
		assert.Same(t, err, txError(err))
	}
}

func TestTxErrorWrapsUnknown(t *testing.T) {
	cause := errors.New("connection reset")
	err := txError(cause)

	assert.ErrorIs(t, err, shared.ErrTransaction)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "transaction failed: connection reset", err.Error())
}

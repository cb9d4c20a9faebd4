package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-ctap/biogate/pkg/config"
	"github.com/go-ctap/biogate/pkg/platform/enroll"
	"github.com/go-ctap/biogate/pkg/platform/fido"
)

func TestEnrollerFor(t *testing.T) {
	cfg := config.Default()

	cfg.Platform.Backend = config.PlatformFprintd
	assert.NotNil(t, enrollerFor(cfg, nil))

	// No OS default for security keys.
	cfg.Platform.Backend = config.PlatformFIDO
	e := enrollerFor(cfg, nil)
	assert.Nil(t, e)
	err := fido.New(nil, e).NavigateToEnrollment(context.Background())
	require.ErrorIs(t, err, enroll.ErrUnsupported)

	cfg.Platform.EnrollCommand = "ykman fido fingerprints add"
	assert.NotNil(t, enrollerFor(cfg, nil))
}

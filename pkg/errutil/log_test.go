// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package errutil_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/authgate/pkg/errutil"
)

func captureLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewJSONHandler(&buf, nil)), &buf
}

func TestLogError_OopsError(t *testing.T) {
	logger, buf := captureLogger()

	err := oops.Code("IDP_UNREACHABLE").
		With("path", "/token").
		Errorf("request failed")
	errutil.LogError(logger, "identity call failed", err)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "ERROR", record["level"])
	assert.Equal(t, "identity call failed", record["msg"])
	assert.Equal(t, "IDP_UNREACHABLE", record["code"])

	ctx, ok := record["context"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "/token", ctx["path"])
}

func TestLogError_PlainError(t *testing.T) {
	logger, buf := captureLogger()

	errutil.LogError(logger, "something failed", errors.New("boom"))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "boom", record["error"])
	assert.NotContains(t, record, "code")
}

func TestLogWarn(t *testing.T) {
	logger, buf := captureLogger()

	errutil.LogWarn(logger, "recoverable", errors.New("boom"))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "WARN", record["level"])
	assert.Equal(t, "recoverable", record["msg"])
}

package logging

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    log.Level
		wantErr bool
	}{
		{input: "", want: log.InfoLevel},
		{input: "debug", want: log.DebugLevel},
		{input: " INFO ", want: log.InfoLevel},
		{input: "warn", want: log.WarnLevel},
		{input: "warning", want: log.WarnLevel},
		{input: "error", want: log.ErrorLevel},
		{input: "loud", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew_WritesJSON(t *testing.T) {
	var buf bytes.Buffer

	logger, cleanup, err := New(Config{Level: "debug", Format: "json"}, &buf)
	require.NoError(t, err)
	defer cleanup()

	logger.Info("file stored", FieldFileID, "abc")

	assert.Contains(t, buf.String(), `"msg":"file stored"`)
	assert.Contains(t, buf.String(), `"file_id":"abc"`)
}

func TestNew_InvalidFormat(t *testing.T) {
	_, _, err := New(Config{Format: "xml"}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "appupdate.log")

	logger, cleanup, err := New(Config{
		Level: "info",
		File:  FileConfig{Enabled: true, Path: path, MaxSize: 1},
	}, &bytes.Buffer{})
	require.NoError(t, err)

	logger.Info("hello")
	require.NoError(t, cleanup())

	assert.FileExists(t, path)
}

func TestWithFields_PropagatesThroughContext(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := New(Config{Format: "logfmt"}, &buf)
	require.NoError(t, err)

	ctx := WithContext(context.Background(), logger)
	ctx, _ = WithFields(ctx, FieldLayer, "usecase")

	FromContext(ctx).Info("done")

	assert.Contains(t, buf.String(), "layer=usecase")
}

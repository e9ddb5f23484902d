package logger_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"

	"vatcompanion/internal/logger"
)

func TestNewLevel(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New("warn", &buf)
	log.Info().Msg("hidden")
	log.Warn().Str("k", "v").Msg("shown")

	gt.Bool(t, strings.Contains(buf.String(), "hidden")).False()
	gt.String(t, buf.String()).Contains(`"message":"shown"`)
	gt.String(t, buf.String()).Contains(`"k":"v"`)
}

func TestNewUnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New("loud", &buf)
	log.Debug().Msg("debug")
	log.Info().Msg("info")

	gt.Bool(t, strings.Contains(buf.String(), "debug")).False()
	gt.String(t, buf.String()).Contains("info")
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "vat.log")
	log, closer, err := logger.File("info", path)
	gt.NoError(t, err).Required()
	log.Info().Msg("written")
	gt.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	gt.NoError(t, err).Required()
	gt.String(t, string(data)).Contains("written")

	_, closer, err = logger.File("info", "")
	gt.NoError(t, err).Required()
	gt.NoError(t, closer.Close())
}

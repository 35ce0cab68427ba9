package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseHelpers(t *testing.T) {
	assert.Equal(t, 42, parseInt("42", 7))
	assert.Equal(t, 7, parseInt("", 7))
	assert.Equal(t, 7, parseInt("nope", 7))

	assert.Equal(t, int64(1<<30), parseInt64("1073741824", 0))
	assert.Equal(t, int64(9), parseInt64("bad", 9))

	assert.Equal(t, 90*time.Second, parseDuration("90s", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("soon", time.Minute))
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"eng", "vie"}, splitList("eng, vie"))
	assert.Equal(t, []string{"eng"}, splitList("eng,,  "))
	assert.Empty(t, splitList("  ,"))
}

package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDateMarkupFormat(t *testing.T) {
	// epoch milliseconds wrapped in markup; the +0800 offset is ignored
	// and the day is taken in UTC
	assert.Equal(t, "2024-09-13", NormalizeDate("/Date(1726232792000+0800)/"))
	assert.Equal(t, "1970-01-01", NormalizeDate("/Date(0+0800)/"))
}

func TestNormalizeDateTimestampFormat(t *testing.T) {
	assert.Equal(t, "2024-09-13", NormalizeDate("2024-09-13 10:22:00"))
	assert.Equal(t, "2024-09-13", NormalizeDate("2024-09-13"))
}

func TestNormalizeDatePassthrough(t *testing.T) {
	assert.Equal(t, "", NormalizeDate(""))
	assert.Equal(t, "", NormalizeDate("   "))
	// unparseable markup values fall through unchanged
	assert.Equal(t, "/Date(abc)/", NormalizeDate("/Date(abc)/"))
}

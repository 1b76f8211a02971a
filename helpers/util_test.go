package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSplitPart(t *testing.T) {
	part, err := GetSplitPart("a|b|c", "|", 1)
	require.NoError(t, err)
	assert.Equal(t, "b", part)

	_, err = GetSplitPart("a|b", "|", 5)
	assert.Error(t, err)
}

func TestExtractSightID(t *testing.T) {
	cases := map[string]string{
		"https://you.ctrip.com/sight/xining237/t62.html":  "62",
		"https://piao.ctrip.com/ticket/dest/t4081.html":   "4081",
		"https://you.ctrip.com/sight/t10558.html?from=ad": "10558",
		"https://you.ctrip.com/sight/xining237.html":      "",
		"": "",
	}

	for url, expected := range cases {
		assert.Equal(t, expected, ExtractSightID(url), url)
	}
}

func TestSafeFileName(t *testing.T) {
	assert.Equal(t, "Qinghai Lake", SafeFileName("Qinghai Lake"))
	assert.Equal(t, "青海湖", SafeFileName("青海湖"))
	assert.Equal(t, "ab_c-d", SafeFileName(`a/b_c-d\`))
	assert.Equal(t, "", SafeFileName("<>:\"|?*"))
}

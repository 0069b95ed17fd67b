package headers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseHeaders(t *testing.T) {
	in := []string{"referer: https://www.bbb.org/", "Accept-Language:  en-GB ", "BadHeader", ": empty"}
	out := ParseHeaders(in)
	assert.Equal(t, map[string]string{
		"Referer":         "https://www.bbb.org/",
		"Accept-Language": "en-GB",
	}, out)
}

func TestParseHeader_ValueMayContainColons(t *testing.T) {
	k, v, err := ParseHeader("Referer: https://example.com:8443/x")
	assert.NoError(t, err)
	assert.Equal(t, "Referer", k)
	assert.Equal(t, "https://example.com:8443/x", v)

	_, _, err = ParseHeader("Bad Key: x")
	assert.Error(t, err)
}

func TestMerge(t *testing.T) {
	base := map[string]string{"Referer": "a", "Accept-Language": "en"}
	got := Merge(base, map[string]string{"referer": "b"})
	assert.Equal(t, map[string]string{"Referer": "b", "Accept-Language": "en"}, got)
	assert.Equal(t, "a", base["Referer"])
}

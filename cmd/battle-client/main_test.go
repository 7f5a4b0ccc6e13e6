package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerURL(t *testing.T) {
	testCases := map[string]string{
		"localhost:4000":          "ws://localhost:4000/ws",
		"http://example.com":      "ws://example.com/ws",
		"https://example.com":     "wss://example.com/ws",
		"wss://example.com:8443/": "wss://example.com:8443/ws",
	}
	for in, expected := range testCases {
		u, err := serverURL(in)
		require.NoError(t, err, in)
		assert.Equal(t, expected, u.String(), in)
	}
}

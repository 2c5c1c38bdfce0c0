package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractHTTPInfo(t *testing.T) {
	host, port, path, err := ExtractHTTPInfo("http://cam.local:8080/live/0.h264")
	require.Nil(t, err)
	require.Equal(t, "cam.local", host)
	require.Equal(t, 8080, port)
	require.Equal(t, "/live/0.h264", path)

	// default port and empty path
	host, port, path, err = ExtractHTTPInfo("http://10.0.0.7")
	require.Nil(t, err)
	require.Equal(t, "10.0.0.7", host)
	require.Equal(t, 80, port)
	require.Equal(t, "/", path)

	// query string stays on the request path
	_, _, path, err = ExtractHTTPInfo("http://h/live?cam=3")
	require.Nil(t, err)
	require.Equal(t, "/live?cam=3", path)
}

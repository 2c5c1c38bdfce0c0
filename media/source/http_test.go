package source

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHTTPRequestLine(t *testing.T) {
	h := NewHTTP(HTTPConfig{Host: "cam.local", Port: 8080, Path: "/live/0.h264"})
	require.Equal(t, "GET /live/0.h264 HTTP/1.1\r\nHost: cam.local\r\n\r\n", string(h.request))
}

func TestSkipHeadersWholeBuffer(t *testing.T) {
	h := NewHTTP(HTTPConfig{Host: "a", Port: 80, Path: "/"})
	h.state = httpSkipHeaders

	rest := h.skipHeaders([]byte("HTTP/1.1 200 OK\r\nContent-Type: video/h264\r\n\r\n\x00\x00\x00\x01\x65"))
	require.Equal(t, []byte{0, 0, 0, 1, 0x65}, rest)
	require.Equal(t, httpBody, h.state)
}

func TestSkipHeadersSplitAcrossReads(t *testing.T) {
	h := NewHTTP(HTTPConfig{Host: "a", Port: 80, Path: "/"})
	h.state = httpSkipHeaders

	payload := "HTTP/1.1 200 OK\r\nServer: x\r\n\r\nBODY"
	var got []byte
	for i := 0; i < len(payload); i++ {
		if rest := h.skipHeaders([]byte{payload[i]}); rest != nil {
			got = append(got, rest...)
		}
		if h.state == httpBody {
			got = append(got, payload[i+1:]...)
			break
		}
	}
	require.Equal(t, "BODY", string(got))
}

func TestSkipHeadersBareLFDoesNotTerminate(t *testing.T) {
	h := NewHTTP(HTTPConfig{Host: "a", Port: 80, Path: "/"})
	h.state = httpSkipHeaders

	require.Nil(t, h.skipHeaders([]byte("x\n\ny\r\nz")))
	require.Equal(t, httpSkipHeaders, h.state)

	rest := h.skipHeaders([]byte("\r\n\r\nQ"))
	require.Equal(t, "Q", string(rest))
}

package transport

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/richard-senior/matchodds/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamTransportReadsConsecutiveRequests(t *testing.T) {
	in := strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"tools/list","params":{"q":"a } in a string \" quoted"}}` + "\n" +
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`)
	tr := NewStreamTransport(in, io.Discard)

	first, err := tr.ReadRequest()
	require.NoError(t, err)
	assert.Equal(t, "tools/list", first.Method)
	assert.Contains(t, string(first.Params), `a } in a string`)

	second, err := tr.ReadRequest()
	require.NoError(t, err)
	assert.Equal(t, "notifications/initialized", second.Method)
	assert.Nil(t, second.ID)

	_, err = tr.ReadRequest()
	assert.ErrorIs(t, err, io.EOF)
}

func TestStreamTransportRejectsWrongVersion(t *testing.T) {
	tr := NewStreamTransport(strings.NewReader(`{"jsonrpc":"1.0","id":1,"method":"x"}`), io.Discard)
	_, err := tr.ReadRequest()
	assert.Error(t, err)
}

func TestWriteResponseIsLineDelimited(t *testing.T) {
	var out bytes.Buffer
	tr := NewStreamTransport(strings.NewReader(""), &out)
	resp, err := protocol.NewJsonRpcResponse(map[string]string{"ok": "yes"}, 7)
	require.NoError(t, err)
	require.NoError(t, tr.WriteResponse(resp))
	assert.Equal(t, `{"jsonrpc":"2.0","result":{"ok":"yes"},"id":7}`+"\n", out.String())
}

func TestGetBodyDecodesCompressedResponses(t *testing.T) {
	const page = "<html><body>fixture list</body></html>"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
		switch r.URL.Path {
		case "/gzip":
			w.Header().Set("Content-Encoding", "gzip")
			zw := gzip.NewWriter(w)
			zw.Write([]byte(page))
			zw.Close()
		case "/br":
			w.Header().Set("Content-Encoding", "br")
			bw := brotli.NewWriter(w)
			bw.Write([]byte(page))
			bw.Close()
		case "/json":
			w.Write([]byte(`{"team":"Arsenal","rank":2}`))
		case "/plain":
			w.Write([]byte(page))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := WithClient(srv.Client(), map[string]string{"X-Api-Key": "secret"})
	ctx := context.Background()
	for _, path := range []string{"/gzip", "/br", "/plain"} {
		body, err := c.GetHTML(ctx, srv.URL+path)
		require.NoError(t, err, path)
		assert.Equal(t, page, string(body), path)
	}

	var doc struct {
		Team string `json:"team"`
		Rank int    `json:"rank"`
	}
	require.NoError(t, c.GetJSON(ctx, srv.URL+"/json", &doc))
	assert.Equal(t, "Arsenal", doc.Team)
	assert.Equal(t, 2, doc.Rank)

	_, err := c.GetHTML(ctx, srv.URL+"/missing")
	assert.ErrorContains(t, err, "404")
}

func TestGetBodyHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := NewHTTPClient(5*time.Second, nil).GetHTML(ctx, srv.URL)
	assert.Error(t, err)
}

package httpclient

import (
	"bufio"
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var errNoGetBody = errors.New("request has a body but no GetBody")

// compressBody encodes body with the configured method.
func compressBody(c Compression, body []byte) ([]byte, error) {
	var buf bytes.Buffer
	var w io.WriteCloser
	switch c {
	case CompressionGzip:
		w = gzip.NewWriter(&buf)
	case CompressionDeflate:
		fw, err := flate.NewWriter(&buf, flate.DefaultCompression)
		if err != nil {
			return nil, err
		}
		w = fw
	default:
		return body, nil
	}
	if _, err := w.Write(body); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decompressTransport advertises gzip and deflate and decodes responses in
// either encoding. net/http only decodes gzip on its own when it added the
// Accept-Encoding header itself, so both are handled here.
type decompressTransport struct {
	base http.RoundTripper
}

func newDecompressTransport(base http.RoundTripper) *decompressTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &decompressTransport{base: base}
}

// RoundTrip implements http.RoundTripper.
func (t *decompressTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("Accept-Encoding") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("Accept-Encoding", "gzip, deflate")
	}
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	encoding := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding")))
	var dec io.ReadCloser
	switch encoding {
	case "", "identity":
		return resp, nil
	case "gzip", "x-gzip":
		dec, err = gzip.NewReader(resp.Body)
	case "deflate":
		dec, err = newDeflateReader(resp.Body)
	default:
		drain(resp)
		return nil, &TransportError{Type: ErrorTypeClient, StatusCode: resp.StatusCode, Message: fmt.Sprintf("unsupported response encoding %q", encoding)}
	}
	if err != nil {
		// A 500 may arrive with an empty body; let the retry layer see it.
		if resp.StatusCode == http.StatusInternalServerError {
			return resp, nil
		}
		drain(resp)
		return nil, &TransportError{Type: ErrorTypeServer, StatusCode: resp.StatusCode, Message: "malformed " + encoding + " response", Cause: err}
	}

	resp.Body = &decodedBody{Reader: dec, dec: dec, raw: resp.Body}
	resp.Header.Del("Content-Encoding")
	resp.Header.Del("Content-Length")
	resp.ContentLength = -1
	resp.Uncompressed = true
	return resp, nil
}

// newDeflateReader accepts both zlib-wrapped and raw deflate streams; servers
// disagree on what "deflate" means.
func newDeflateReader(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(2)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if len(head) == 2 && head[0]&0x0f == 8 && (uint16(head[0])<<8|uint16(head[1]))%31 == 0 {
		return zlib.NewReader(br)
	}
	return flate.NewReader(br), nil
}

type decodedBody struct {
	io.Reader
	dec io.Closer
	raw io.Closer
}

func (b *decodedBody) Close() error {
	decErr := b.dec.Close()
	if err := b.raw.Close(); err != nil {
		return err
	}
	return decErr
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCaptureWriter_WithinLimit(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 1024}

	body := []byte(`[{"id":1,"name":"fist"}]`)
	if _, err := cw.Write(body); err != nil {
		t.Fatalf("Write error: %v", err)
	}

	if rec.Body.String() != string(body) {
		t.Fatalf("client response altered: %q", rec.Body.String())
	}
	if cw.overflowed() {
		t.Fatalf("small response reported as overflowed")
	}
	if cw.buf.String() != string(body) {
		t.Fatalf("captured body differs: %q", cw.buf.String())
	}
}

func TestCaptureWriter_OverflowIsNotCacheable(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 10}

	// Written across two calls, as Echo's encoder does for large bodies.
	body := []byte(`[{"id":1,"name":"fist"},{"id":2,"name":"wave"}]`)
	if _, err := cw.Write(body[:20]); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if _, err := cw.Write(body[20:]); err != nil {
		t.Fatalf("Write error: %v", err)
	}

	// The client still receives the complete body.
	if rec.Body.String() != string(body) {
		t.Fatalf("client response truncated: %q", rec.Body.String())
	}
	// The capture holds only a prefix, so it must be flagged as
	// overflowed and skipped by the caching branch.
	if !cw.overflowed() {
		t.Fatalf("oversized response not reported as overflowed (size=%d limit=%d)", cw.size, cw.limit)
	}
	if int64(cw.buf.Len()) >= int64(len(body)) {
		t.Fatalf("capture unexpectedly complete: %d bytes", cw.buf.Len())
	}
}

func TestPayloadEncodeDecode(t *testing.T) {
	hdr := http.Header{"Content-Type": []string{"application/json"}, "X-Total": []string{"2"}}
	body := []byte(`[{"id":1},{"id":2}]`)

	bs, err := encodePayload(http.StatusOK, hdr, body)
	if err != nil {
		t.Fatalf("encodePayload error: %v", err)
	}
	status, gotHdr, gotBody, ok := decodePayload(bs)
	if !ok {
		t.Fatalf("decodePayload rejected its own encoding")
	}
	if status != http.StatusOK || string(gotBody) != string(body) {
		t.Fatalf("round trip mismatch: status=%d body=%q", status, gotBody)
	}
	if gotHdr.Get("Content-Type") != "application/json" {
		t.Fatalf("header lost in round trip: %v", gotHdr)
	}
}

func TestDecodePayload_Garbage(t *testing.T) {
	if _, _, _, ok := decodePayload([]byte("short")); ok {
		t.Fatalf("garbage payload decoded")
	}
}

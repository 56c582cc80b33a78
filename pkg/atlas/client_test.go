package atlas

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// stubMarker records marking requests and returns a fresh copy so the
// derived-from relation between Image and Marked can be asserted.
type stubMarker struct {
	calls []markCall
}

type markCall struct {
	x, y, radius int
}

func (m *stubMarker) MarkCircle(src image.Image, x, y, radius int) image.Image {
	m.calls = append(m.calls, markCall{x: x, y: y, radius: radius})
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

// testPNG returns a small encodable atlas image
func testPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 16, 12))); err != nil {
		t.Fatalf("encoding test image: %v", err)
	}
	return buf.Bytes()
}

// metadataBody builds a three-plane response whose image URLs point at the
// given base
func metadataBody(base string) string {
	plane := func(top, left int, name string) string {
		return fmt.Sprintf(`{"top":%d,"left":%d,"image_url":"%s/images/%s.png"}`, top, left, base, name)
	}
	return fmt.Sprintf(`{"coronal":%s,"sagittal":%s,"horizontal":%s}`,
		plane(5, 10, "c"), plane(7, 14, "s"), plane(9, 18, "h"))
}

// newAtlasServer serves metadata at / and images under /images/.
// failImages makes every image fetch return 404.
func newAtlasServer(t *testing.T, failImages bool) *httptest.Server {
	t.Helper()
	img := testPNG(t)

	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/images/") {
			if failImages {
				http.NotFound(w, r)
				return
			}
			w.Write(img)
			return
		}
		fmt.Fprint(w, metadataBody(srv.URL))
	}))
	return srv
}

// TestLookupRoundTrip verifies that the plane metadata survives the lookup
// unchanged: integer pixel positions and image URL strings
func TestLookupRoundTrip(t *testing.T) {
	srv := newAtlasServer(t, false)
	defer srv.Close()

	marker := &stubMarker{}
	client := NewClient(srv.URL, time.Second, marker, nil)

	bundle, err := client.Lookup(context.Background(), 3.0, -2.0, -4.0)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}

	if bundle.Point.AP != -2.0 || bundle.Point.ML != 3.0 || bundle.Point.DV != -4.0 {
		t.Errorf("Bundle point does not match queried coordinate: %v", bundle.Point)
	}

	cases := []struct {
		plane *PlaneSample
		top   int
		left  int
		name  string
	}{
		{bundle.Coronal, 5, 10, "c"},
		{bundle.Sagittal, 7, 14, "s"},
		{bundle.Horizontal, 9, 18, "h"},
	}
	for _, tc := range cases {
		if tc.plane.Top != tc.top || tc.plane.Left != tc.left {
			t.Errorf("plane %s: expected top=%d left=%d, got top=%d left=%d",
				tc.name, tc.top, tc.left, tc.plane.Top, tc.plane.Left)
		}
		wantURL := fmt.Sprintf("%s/images/%s.png", srv.URL, tc.name)
		if tc.plane.ImageURL != wantURL {
			t.Errorf("plane %s: expected image URL %q, got %q", tc.name, wantURL, tc.plane.ImageURL)
		}
		if tc.plane.Image == nil {
			t.Errorf("plane %s: expected a decoded image", tc.name)
		}
		if tc.plane.Marked == nil {
			t.Errorf("plane %s: expected a default-marked copy", tc.name)
		}
	}
}

// TestLookupAutoMark verifies the fixed-radius convenience marker drawn on
// every decoded plane at its own marker position
func TestLookupAutoMark(t *testing.T) {
	srv := newAtlasServer(t, false)
	defer srv.Close()

	marker := &stubMarker{}
	client := NewClient(srv.URL, time.Second, marker, nil)

	if _, err := client.Lookup(context.Background(), 1, 2, 3); err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}

	want := []markCall{
		{x: 10, y: 5, radius: 10},
		{x: 14, y: 7, radius: 10},
		{x: 18, y: 9, radius: 10},
	}
	if len(marker.calls) != len(want) {
		t.Fatalf("Expected %d mark calls, got %d", len(want), len(marker.calls))
	}
	for i, call := range marker.calls {
		if call != want[i] {
			t.Errorf("mark call %d: expected %+v, got %+v", i, want[i], call)
		}
	}
}

// TestLookupWithoutMarker verifies that a nil marker leaves every plane
// without a marked copy while the unmarked image is still decoded
func TestLookupWithoutMarker(t *testing.T) {
	srv := newAtlasServer(t, false)
	defer srv.Close()

	client := NewClient(srv.URL, time.Second, nil, nil)
	bundle, err := client.Lookup(context.Background(), 1, 2, 3)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}

	for i, plane := range bundle.Planes() {
		if plane.Image == nil {
			t.Errorf("plane %d: expected a decoded image", i)
		}
		if plane.Marked != nil {
			t.Errorf("plane %d: expected no marked copy without a marker", i)
		}
	}
}

// TestLookupImagesUnavailable verifies graceful per-plane degradation: failed
// image fetches leave Image and Marked nil without failing the lookup
func TestLookupImagesUnavailable(t *testing.T) {
	srv := newAtlasServer(t, true)
	defer srv.Close()

	marker := &stubMarker{}
	client := NewClient(srv.URL, time.Second, marker, nil)

	bundle, err := client.Lookup(context.Background(), 1, 2, 3)
	if err != nil {
		t.Fatalf("Expected lookup to succeed despite missing images, got %v", err)
	}

	for i, plane := range bundle.Planes() {
		if plane.Image != nil {
			t.Errorf("plane %d: expected nil image after failed fetch", i)
		}
		if plane.Marked != nil {
			t.Errorf("plane %d: marked copy must be absent when the image is absent", i)
		}
	}
	if len(marker.calls) != 0 {
		t.Errorf("Expected no mark calls without images, got %d", len(marker.calls))
	}

	// Metadata must still round-trip
	if bundle.Coronal.Top != 5 || bundle.Coronal.Left != 10 {
		t.Errorf("Coronal metadata lost: %+v", bundle.Coronal)
	}
}

// TestLookupTransportError verifies that a non-success status on the metadata
// request fails the lookup with a TransportError carrying the request URL
func TestLookupTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second, nil, nil)
	bundle, err := client.Lookup(context.Background(), 1, 2, 3)
	if bundle != nil {
		t.Errorf("Expected no bundle on transport failure, got %+v", bundle)
	}

	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("Expected a TransportError, got %T: %v", err, err)
	}
	if te.StatusCode != http.StatusInternalServerError {
		t.Errorf("Expected status 500 in the error, got %d", te.StatusCode)
	}
	if !strings.Contains(te.URL, srv.URL) {
		t.Errorf("Expected the request URL in the error, got %q", te.URL)
	}
}

// TestLookupConnectionRefused verifies the wrapped-cause form of TransportError
func TestLookupConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // immediately, so the port refuses connections

	client := NewClient(srv.URL, time.Second, nil, nil)
	_, err := client.Lookup(context.Background(), 1, 2, 3)

	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("Expected a TransportError, got %T: %v", err, err)
	}
	if te.Cause == nil {
		t.Error("Expected an underlying cause for a connection failure")
	}
}

// TestLookupParseError verifies that an undecodable body yields a ParseError
// with a diagnostic sample capped at 200 bytes
func TestLookupParseError(t *testing.T) {
	body := "<html>" + strings.Repeat("x", 400)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, body)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second, nil, nil)
	_, err := client.Lookup(context.Background(), 1, 2, 3)

	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("Expected a ParseError, got %T: %v", err, err)
	}
	if len(pe.Sample) != 200 {
		t.Errorf("Expected a 200 byte sample, got %d bytes", len(pe.Sample))
	}
	if !strings.HasPrefix(body, string(pe.Sample)) {
		t.Errorf("Sample is not a prefix of the raw body: %q", pe.Sample)
	}
}

// TestLookupMissingPlane verifies that a structurally valid body without all
// three planes is treated as a parse failure
func TestLookupMissingPlane(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"coronal":{"top":1,"left":2,"image_url":"http://x/c.png"}}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second, nil, nil)
	_, err := client.Lookup(context.Background(), 1, 2, 3)

	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("Expected a ParseError for missing planes, got %T: %v", err, err)
	}
}

// TestLookupRemoteError verifies that an explicit error field is surfaced
// with its message
func TestLookupRemoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error":"coordinate out of atlas range"}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second, nil, nil)
	_, err := client.Lookup(context.Background(), 1, 2, 3)

	var re *RemoteError
	if !errors.As(err, &re) {
		t.Fatalf("Expected a RemoteError, got %T: %v", err, err)
	}
	if re.Message != "coordinate out of atlas range" {
		t.Errorf("Expected the remote message to pass through, got %q", re.Message)
	}
}

// TestLookupURL checks the query construction for negative and fractional
// coordinates
func TestLookupURL(t *testing.T) {
	client := NewClient("http://atlas.example/api.php", time.Second, nil, nil)
	got := client.LookupURL(2.625, -2, -3.5)
	want := "http://atlas.example/api.php?ml=2.625&ap=-2&dv=-3.5"
	if got != want {
		t.Errorf("Expected URL %q, got %q", want, got)
	}
}

// TestRemoteFailureTruthiness checks the tolerated shapes of the error field
func TestRemoteFailureTruthiness(t *testing.T) {
	cases := []struct {
		raw    string
		failed bool
	}{
		{``, false},
		{`null`, false},
		{`false`, false},
		{`""`, false},
		{`"bad"`, true},
		{`true`, true},
	}
	for _, tc := range cases {
		var raw []byte
		if tc.raw != "" {
			raw = []byte(tc.raw)
		}
		if _, failed := remoteFailure(raw); failed != tc.failed {
			t.Errorf("remoteFailure(%q): expected failed=%v", tc.raw, tc.failed)
		}
	}
}

// Package atlas queries a remote rat brain atlas service for the coronal,
// sagittal and horizontal cross-sections closest to a stereotaxic coordinate.
// One lookup performs a single metadata request plus up to three image
// fetches; a failed image fetch degrades that plane only, never the lookup.
package atlas

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"implantplanner/pkg/geometry"
)

// DefaultBaseURL is the public rat brain atlas lookup endpoint.
const DefaultBaseURL = "http://labs.gaidi.ca/rat-brain-atlas/api.php"

// DefaultTimeout bounds every HTTP round trip issued by the client.
const DefaultTimeout = 30 * time.Second

// autoMarkRadius is the fixed radius of the convenience marker drawn on every
// freshly fetched plane image at its own marker position.
const autoMarkRadius = 10

// parseSampleLen caps the raw-body diagnostic attached to a ParseError.
const parseSampleLen = 200

// Marker draws a single filled circle on a copy of src and returns the copy.
// A nil return means no marking capability is available.
type Marker interface {
	MarkCircle(src image.Image, x, y, radius int) image.Image
}

// Client performs slice lookups against one atlas endpoint. All requests are
// synchronous and share a fixed timeout; there is no retry logic.
type Client struct {
	baseURL    string
	httpClient *http.Client
	marker     Marker
	log        *zap.Logger
}

// NewClient creates a lookup client. marker may be nil, in which case fetched
// images carry no default-marked copies. log may be nil for a silent client.
func NewClient(baseURL string, timeout time.Duration, marker Marker, log *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		marker:     marker,
		log:        log,
	}
}

// LookupURL builds the metadata query URL for one coordinate.
func (c *Client) LookupURL(ml, ap, dv float64) string {
	return fmt.Sprintf("%s?ml=%s&ap=%s&dv=%s",
		c.baseURL,
		strconv.FormatFloat(ml, 'f', -1, 64),
		strconv.FormatFloat(ap, 'f', -1, 64),
		strconv.FormatFloat(dv, 'f', -1, 64))
}

// wirePlane mirrors one plane object of the metadata response.
type wirePlane struct {
	Top      float64 `json:"top"`
	Left     float64 `json:"left"`
	ImageURL string  `json:"image_url"`
}

// wireResponse mirrors the metadata response body. Error is kept raw because
// the service reports failures as either a string or a boolean flag.
type wireResponse struct {
	Error      json.RawMessage `json:"error"`
	Coronal    *wirePlane      `json:"coronal"`
	Sagittal   *wirePlane      `json:"sagittal"`
	Horizontal *wirePlane      `json:"horizontal"`
}

// Lookup resolves one stereotaxic coordinate to its three atlas planes.
//
// Metadata-level failures return a TransportError, ParseError or RemoteError
// and no bundle. Image-level failures leave the affected plane's Image nil.
// Every plane whose image decoded successfully also receives a default-marked
// copy with a fixed-radius circle at its own marker position.
func (c *Client) Lookup(ctx context.Context, ml, ap, dv float64) (*SliceBundle, error) {
	url := c.LookupURL(ml, ap, dv)
	c.log.Debug("atlas lookup", zap.String("url", url))

	body, err := c.fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	resp, err := parseResponse(body)
	if err != nil {
		return nil, err
	}

	bundle := &SliceBundle{
		Point:      geometry.Point3D{AP: ap, ML: ml, DV: dv},
		Coronal:    planeFromWire(resp.Coronal),
		Sagittal:   planeFromWire(resp.Sagittal),
		Horizontal: planeFromWire(resp.Horizontal),
	}

	for _, plane := range bundle.Planes() {
		plane.Image = c.fetchImage(ctx, plane.ImageURL)
		if plane.Image == nil {
			c.log.Warn("plane image unavailable", zap.String("url", plane.ImageURL))
			continue
		}
		if c.marker != nil {
			plane.Marked = c.marker.MarkCircle(plane.Image, plane.Left, plane.Top, autoMarkRadius)
		}
	}

	return bundle, nil
}

// fetch performs the metadata GET and returns the raw body, mapping every
// transport-level failure to a TransportError carrying the request URL.
func (c *Client) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &TransportError{URL: url, Cause: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{URL: url, Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{URL: url, Cause: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &TransportError{URL: url, StatusCode: resp.StatusCode}
	}
	return body, nil
}

// parseResponse decodes the metadata body, retrying once on a copy with
// invalid UTF-8 sequences replaced. The service occasionally serves JSON
// without content-type headers and with stray bytes.
func parseResponse(body []byte) (*wireResponse, error) {
	var resp wireResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		sanitized := bytes.ToValidUTF8(body, []byte("�"))
		if err2 := json.Unmarshal(sanitized, &resp); err2 != nil {
			return nil, &ParseError{Sample: sampleOf(body), Cause: err}
		}
	}

	if msg, failed := remoteFailure(resp.Error); failed {
		return nil, &RemoteError{Message: msg}
	}

	if resp.Coronal == nil || resp.Sagittal == nil || resp.Horizontal == nil {
		return nil, &ParseError{
			Sample: sampleOf(body),
			Cause:  fmt.Errorf("response is missing one or more plane objects"),
		}
	}
	return &resp, nil
}

// remoteFailure interprets the raw error field: absent, null, false and the
// empty string all mean success, anything else is an application failure.
func remoteFailure(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 || string(raw) == "null" || string(raw) == "false" {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return "", false
		}
		return s, true
	}
	return string(raw), true
}

func sampleOf(body []byte) []byte {
	if len(body) > parseSampleLen {
		body = body[:parseSampleLen]
	}
	sample := make([]byte, len(body))
	copy(sample, body)
	return sample
}

func planeFromWire(w *wirePlane) *PlaneSample {
	return &PlaneSample{
		Top:      int(w.Top),
		Left:     int(w.Left),
		ImageURL: w.ImageURL,
	}
}

// fetchImage downloads and decodes one plane image, returning nil on any
// failure. Partial image availability is expected.
func (c *Client) fetchImage(ctx context.Context, url string) image.Image {
	if url == "" {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil
	}
	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil
	}
	return img
}

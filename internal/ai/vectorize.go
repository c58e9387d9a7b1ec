package ai

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/UTSC-CSCC09-Programming-on-the-Web/project-uofteam-board/internal/model"
	"github.com/UTSC-CSCC09-Programming-on-the-Web/project-uofteam-board/internal/render"
)

// VectorizerClient talks to the vectorization sidecar, which turns a raster
// image into an SVG of flat polygonal paths (one fill color each).
type VectorizerClient struct {
	url        string
	httpClient *http.Client
}

// NewVectorizerClient creates a vectorizer client for the given endpoint.
func NewVectorizerClient(url string) *VectorizerClient {
	return &VectorizerClient{
		url:        url,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Vectorize posts the raster and converts the returned SVG into strokes.
// Paths whose color is near-white are background artifacts of the raster
// round-trip and are discarded.
func (c *VectorizerClient) Vectorize(ctx context.Context, img *render.Image) ([]model.Path, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(img.Data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", img.MimeType)
	req.Header.Set("Accept", "image/svg+xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vectorizer: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("vectorizer: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vectorizer returned %d: %s", resp.StatusCode, truncateBody(body))
	}

	return SVGToPaths(string(body)), nil
}

// SVGToPaths extracts the <path> elements of a vectorizer SVG into strokes.
// The vectorizer emits one flat-filled polygon per path with an optional
// translate() transform, which is all this reads.
func SVGToPaths(svg string) []model.Path {
	var paths []model.Path
	for _, line := range strings.Split(svg, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "<path") {
			continue
		}

		d := attr(line, "d")
		if d == "" {
			continue
		}
		fill := strings.ToLower(attr(line, "fill"))
		if isBackgroundColor(fill) {
			continue
		}

		x, y := parseTranslate(attr(line, "transform"))
		paths = append(paths, model.Path{
			ID:          uuid.New().String(),
			D:           d,
			StrokeColor: fill,
			FillColor:   fill,
			StrokeWidth: 1,
			X:           x,
			Y:           y,
			ScaleX:      1,
			ScaleY:      1,
			Rotation:    0,
		})
	}
	return paths
}

func attr(tag, name string) string {
	_, after, found := strings.Cut(tag, name+`="`)
	if !found {
		return ""
	}
	value, _, found := strings.Cut(after, `"`)
	if !found {
		return ""
	}
	return value
}

func parseTranslate(transform string) (float64, float64) {
	_, after, found := strings.Cut(transform, "translate(")
	if !found {
		return 0, 0
	}
	inner, _, found := strings.Cut(after, ")")
	if !found {
		return 0, 0
	}
	parts := strings.Split(inner, ",")
	if len(parts) != 2 {
		return 0, 0
	}
	x, errX := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	y, errY := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if errX != nil || errY != nil {
		return 0, 0
	}
	return x, y
}

// isBackgroundColor reports whether a #RRGGBB color is near-white (every
// channel above 200), the heuristic for raster background remnants.
func isBackgroundColor(color string) bool {
	if len(color) != 7 || color[0] != '#' {
		return false
	}
	for i := 1; i < 7; i += 2 {
		channel, err := strconv.ParseUint(color[i:i+2], 16, 8)
		if err != nil {
			return false
		}
		if channel <= 200 {
			return false
		}
	}
	return true
}

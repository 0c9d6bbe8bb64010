// Package osrm is a client for the route service of an OSRM v1 server.
package osrm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

const DefaultProfile = "driving"

var ErrNoRoute = errors.New("no route found")

type Client struct {
	baseURL    string
	profile    string
	httpClient *http.Client
}

func New(baseURL, profile string) *Client {
	if profile == "" {
		profile = DefaultProfile
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		profile: profile,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Route is the best route through the requested waypoints.
type Route struct {
	Geometry orb.LineString
	Distance float64 // meters
	Duration float64 // seconds
}

type apiResponse struct {
	Code    string     `json:"code"`
	Message string     `json:"message,omitempty"`
	Routes  []apiRoute `json:"routes"`
}

type apiRoute struct {
	Geometry *geojson.Geometry `json:"geometry"`
	Distance float64           `json:"distance"`
	Duration float64           `json:"duration"`
}

// Route asks the server for a path visiting waypoints in order. Points are
// orb points, so X is longitude.
func (c *Client) Route(ctx context.Context, waypoints []orb.Point) (*Route, error) {
	if len(waypoints) < 2 {
		return nil, fmt.Errorf("need at least 2 waypoints, got %d", len(waypoints))
	}

	params := url.Values{}
	params.Set("overview", "full")
	params.Set("geometries", "geojson")
	params.Set("steps", "false")

	reqURL := fmt.Sprintf("%s/route/v1/%s/%s?%s", c.baseURL, c.profile, encodeCoordinates(waypoints), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	var apiResp apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	switch apiResp.Code {
	case "Ok":
	case "NoRoute", "NoSegment":
		return nil, fmt.Errorf("%s: %w", apiResp.Message, ErrNoRoute)
	default:
		return nil, fmt.Errorf("API error %s: %s", apiResp.Code, apiResp.Message)
	}

	if len(apiResp.Routes) == 0 || apiResp.Routes[0].Geometry == nil {
		return nil, ErrNoRoute
	}

	best := apiResp.Routes[0]
	ls, ok := best.Geometry.Geometry().(orb.LineString)
	if !ok {
		return nil, fmt.Errorf("unexpected geometry type %s", best.Geometry.Type)
	}

	return &Route{Geometry: ls, Distance: best.Distance, Duration: best.Duration}, nil
}

func encodeCoordinates(points []orb.Point) string {
	parts := make([]string, len(points))
	for i, p := range points {
		parts[i] = strconv.FormatFloat(p.X(), 'f', -1, 64) + "," + strconv.FormatFloat(p.Y(), 'f', -1, 64)
	}
	return strings.Join(parts, ";")
}

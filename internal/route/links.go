package route

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/fieldops/fieldservice/internal/domain"
)

const (
	embedBaseURL  = "https://www.google.com/maps/embed/v1/"
	dirBaseURL    = "https://www.google.com/maps/dir/"
	searchBaseURL = "https://www.google.com/maps/search/"
	// waypointSeparator is the delimiter the mapping service expects between waypoints.
	waypointSeparator = "|"
)

// Links is the map preview and navigation link for an ordered stop list.
type Links struct {
	Origin        *domain.Coordinate
	Destination   *domain.Coordinate
	Waypoints     []domain.Coordinate
	EmbedURL      string
	NavigationURL string
}

// Builder renders links; EmbedKey authorizes the embeddable preview.
type Builder struct {
	EmbedKey string
}

// Build never reorders stops. One stop yields a place preview, zero stops
// yield empty links.
func (b Builder) Build(stops []domain.Coordinate) Links {
	switch len(stops) {
	case 0:
		return Links{}
	case 1:
		point := stops[0]
		return Links{
			Origin:        &point,
			Destination:   &point,
			EmbedURL:      b.placeURL(point),
			NavigationURL: searchURL(point),
		}
	}

	origin := stops[0]
	destination := stops[len(stops)-1]
	waypoints := append([]domain.Coordinate{}, stops[1:len(stops)-1]...)

	return Links{
		Origin:        &origin,
		Destination:   &destination,
		Waypoints:     waypoints,
		EmbedURL:      b.directionsURL(origin, destination, waypoints),
		NavigationURL: navigationURL(origin, destination, waypoints),
	}
}

func (b Builder) placeURL(point domain.Coordinate) string {
	q := url.Values{}
	q.Set("key", b.EmbedKey)
	q.Set("q", formatCoordinate(point))
	return embedBaseURL + "place?" + q.Encode()
}

func (b Builder) directionsURL(origin, destination domain.Coordinate, waypoints []domain.Coordinate) string {
	q := url.Values{}
	q.Set("key", b.EmbedKey)
	q.Set("origin", formatCoordinate(origin))
	q.Set("destination", formatCoordinate(destination))
	if len(waypoints) > 0 {
		q.Set("waypoints", joinWaypoints(waypoints))
	}
	return embedBaseURL + "directions?" + q.Encode()
}

func navigationURL(origin, destination domain.Coordinate, waypoints []domain.Coordinate) string {
	q := url.Values{}
	q.Set("api", "1")
	q.Set("origin", formatCoordinate(origin))
	q.Set("destination", formatCoordinate(destination))
	if len(waypoints) > 0 {
		q.Set("waypoints", joinWaypoints(waypoints))
	}
	q.Set("travelmode", "driving")
	return dirBaseURL + "?" + q.Encode()
}

func searchURL(point domain.Coordinate) string {
	q := url.Values{}
	q.Set("api", "1")
	q.Set("query", formatCoordinate(point))
	return searchBaseURL + "?" + q.Encode()
}

func joinWaypoints(points []domain.Coordinate) string {
	parts := make([]string, len(points))
	for i, p := range points {
		parts[i] = formatCoordinate(p)
	}
	return strings.Join(parts, waypointSeparator)
}

func formatCoordinate(c domain.Coordinate) string {
	return strconv.FormatFloat(c.Latitude, 'f', -1, 64) + "," + strconv.FormatFloat(c.Longitude, 'f', -1, 64)
}

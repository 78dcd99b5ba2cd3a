package domain

// Coordinate is a decimal-degree position.
type Coordinate struct {
	Latitude  float64
	Longitude float64
}

// RoutePlan is today's ordered visit sequence plus mapping links.
type RoutePlan struct {
	Stops         []Ticket
	Origin        *Coordinate
	Destination   *Coordinate
	Waypoints     []Coordinate
	EmbedURL      string
	NavigationURL string
}

package model

// Feed is the decoded NeoWs feed response. NearEarthObjects groups
// asteroids by calendar date (YYYY-MM-DD keys). A response without the
// near_earth_objects key decodes with a nil map.
type Feed struct {
	ElementCount     int                   `json:"element_count"`
	NearEarthObjects map[string][]Asteroid `json:"near_earth_objects"`
}

// Asteroid is one near-Earth object as delivered by the feed. Every
// field may be absent upstream, so scalars are pointers.
type Asteroid struct {
	ID                     *string             `json:"id"`
	Name                   *string             `json:"name"`
	AbsoluteMagnitudeH     *float64            `json:"absolute_magnitude_h"`
	IsPotentiallyHazardous *bool               `json:"is_potentially_hazardous_asteroid"`
	EstimatedDiameter      *EstimatedDiameter  `json:"estimated_diameter"`
	CloseApproachData      []CloseApproachData `json:"close_approach_data"`
}

type EstimatedDiameter struct {
	Kilometers *DiameterRange `json:"kilometers"`
}

type DiameterRange struct {
	Min *float64 `json:"estimated_diameter_min"`
	Max *float64 `json:"estimated_diameter_max"`
}

// CloseApproachData is one close-approach event. Velocity and distance
// arrive as decimal strings nested one level down.
type CloseApproachData struct {
	CloseApproachDate *string           `json:"close_approach_date"`
	RelativeVelocity  *RelativeVelocity `json:"relative_velocity"`
	MissDistance      *MissDistance     `json:"miss_distance"`
	OrbitingBody      *string           `json:"orbiting_body"`
}

type RelativeVelocity struct {
	KilometersPerSecond *string `json:"kilometers_per_second"`
}

type MissDistance struct {
	Kilometers *string `json:"kilometers"`
}

// UnknownOrbitingBody substitutes for an absent orbiting_body field.
const UnknownOrbitingBody = "Unknown"

// Approach is the canonical flat row: one asteroid close-approach
// event. Asteroid-level fields keep their absent state as nil;
// event-level numerics default to 0.0 and the orbiting body to
// "Unknown" when absent.
type Approach struct {
	ID                     *string
	Name                   *string
	CloseApproachDate      *string
	AbsoluteMagnitudeH     *float64
	DiameterMinKm          *float64
	DiameterMaxKm          *float64
	IsPotentiallyHazardous *bool
	RelativeVelocityKPS    float64
	MissDistanceKm         float64
	OrbitingBody           string
}

// Columns is the fixed column order shared by the CSV output and the
// warehouse table. Every Approach carries exactly these ten fields.
func Columns() []string {
	return []string{
		"id",
		"name",
		"close_approach_date",
		"absolute_magnitude_h",
		"diameter_min_km",
		"diameter_max_km",
		"is_potentially_hazardous",
		"relative_velocity_kps",
		"miss_distance_km",
		"orbiting_body",
	}
}

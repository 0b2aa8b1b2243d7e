package transform

import (
	"fmt"
	"sort"
	"strconv"

	"neowatch/internal/model"
)

// Flatten converts a feed into one Approach row per close-approach
// event. Asteroids without events contribute no rows. Absent
// asteroid-level fields stay nil; absent velocity/distance values
// default to 0.0 and an absent orbiting body becomes "Unknown".
//
// A velocity or distance string that is present but does not parse as
// a number is a data-quality error and aborts the whole transform.
// Empty or nil feeds flatten to an empty slice without error.
func Flatten(feed *model.Feed) ([]model.Approach, error) {
	if feed == nil {
		return nil, nil
	}

	rows := make([]model.Approach, 0)
	for date, asteroids := range feed.NearEarthObjects {
		for _, asteroid := range asteroids {
			for _, event := range asteroid.CloseApproachData {
				row, err := flattenEvent(asteroid, event)
				if err != nil {
					return nil, fmt.Errorf("asteroid %s on %s: %w", describeID(asteroid.ID), date, err)
				}
				rows = append(rows, row)
			}
		}
	}
	return rows, nil
}

func flattenEvent(asteroid model.Asteroid, event model.CloseApproachData) (model.Approach, error) {
	velocity, err := parseQuantity(velocityValue(event.RelativeVelocity), "relative velocity")
	if err != nil {
		return model.Approach{}, err
	}
	distance, err := parseQuantity(distanceValue(event.MissDistance), "miss distance")
	if err != nil {
		return model.Approach{}, err
	}

	orbitingBody := model.UnknownOrbitingBody
	if event.OrbitingBody != nil {
		orbitingBody = *event.OrbitingBody
	}

	diameterMin, diameterMax := diameterRange(asteroid.EstimatedDiameter)

	return model.Approach{
		ID:                     asteroid.ID,
		Name:                   asteroid.Name,
		CloseApproachDate:      event.CloseApproachDate,
		AbsoluteMagnitudeH:     asteroid.AbsoluteMagnitudeH,
		DiameterMinKm:          diameterMin,
		DiameterMaxKm:          diameterMax,
		IsPotentiallyHazardous: asteroid.IsPotentiallyHazardous,
		RelativeVelocityKPS:    velocity,
		MissDistanceKm:         distance,
		OrbitingBody:           orbitingBody,
	}, nil
}

// diameterRange extracts min and max independently: a record may carry
// one bound without the other.
func diameterRange(diameter *model.EstimatedDiameter) (*float64, *float64) {
	if diameter == nil || diameter.Kilometers == nil {
		return nil, nil
	}
	return diameter.Kilometers.Min, diameter.Kilometers.Max
}

func velocityValue(velocity *model.RelativeVelocity) *string {
	if velocity == nil {
		return nil
	}
	return velocity.KilometersPerSecond
}

func distanceValue(distance *model.MissDistance) *string {
	if distance == nil {
		return nil
	}
	return distance.Kilometers
}

// parseQuantity coerces a string-typed wire value to a float. Absent
// values (nil container or nil field) default to 0.0; a present value
// that does not parse is an error rather than a silent default.
func parseQuantity(raw *string, field string) (float64, error) {
	if raw == nil {
		return 0.0, nil
	}
	value, err := strconv.ParseFloat(*raw, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable %s %q", field, *raw)
	}
	return value, nil
}

// SortByDate orders rows by close_approach_date ascending, rows
// without a date last. The flattener itself emits rows in feed
// iteration order, which is not chronological.
func SortByDate(rows []model.Approach) {
	sort.SliceStable(rows, func(i, j int) bool {
		left, right := rows[i].CloseApproachDate, rows[j].CloseApproachDate
		if left == nil {
			return false
		}
		if right == nil {
			return true
		}
		return *left < *right
	})
}

func describeID(id *string) string {
	if id == nil {
		return "<missing id>"
	}
	return *id
}

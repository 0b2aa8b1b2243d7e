package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"neowatch/internal/model"
)

// Write serializes rows to a CSV file with the fixed ten-column
// header, creating parent directories as needed. Absent values are
// written as empty fields.
func Write(path string, rows []model.Approach) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(model.Columns()); err != nil {
		return err
	}
	for i := range rows {
		if err := writer.Write(record(rows[i])); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// Read loads a CSV produced by Write back into rows, treating id as
// text. The header must match the fixed column order.
func Read(path string) ([]model.Approach, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	columns := model.Columns()
	if len(header) != len(columns) {
		return nil, fmt.Errorf("unexpected csv header width %d, want %d", len(header), len(columns))
	}
	for i, column := range columns {
		if header[i] != column {
			return nil, fmt.Errorf("unexpected csv column %q at position %d, want %q", header[i], i, column)
		}
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	rows := make([]model.Approach, 0, len(records))
	for line, fields := range records {
		row, err := parseRecord(fields)
		if err != nil {
			return nil, fmt.Errorf("csv row %d: %w", line+2, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func record(row model.Approach) []string {
	return []string{
		textField(row.ID),
		textField(row.Name),
		textField(row.CloseApproachDate),
		realField(row.AbsoluteMagnitudeH),
		realField(row.DiameterMinKm),
		realField(row.DiameterMaxKm),
		boolField(row.IsPotentiallyHazardous),
		formatReal(row.RelativeVelocityKPS),
		formatReal(row.MissDistanceKm),
		row.OrbitingBody,
	}
}

func parseRecord(fields []string) (model.Approach, error) {
	magnitude, err := parseOptionalReal(fields[3], "absolute_magnitude_h")
	if err != nil {
		return model.Approach{}, err
	}
	diameterMin, err := parseOptionalReal(fields[4], "diameter_min_km")
	if err != nil {
		return model.Approach{}, err
	}
	diameterMax, err := parseOptionalReal(fields[5], "diameter_max_km")
	if err != nil {
		return model.Approach{}, err
	}
	hazardous, err := parseOptionalBool(fields[6])
	if err != nil {
		return model.Approach{}, err
	}
	velocity, err := parseReal(fields[7], "relative_velocity_kps")
	if err != nil {
		return model.Approach{}, err
	}
	distance, err := parseReal(fields[8], "miss_distance_km")
	if err != nil {
		return model.Approach{}, err
	}

	return model.Approach{
		ID:                     optionalText(fields[0]),
		Name:                   optionalText(fields[1]),
		CloseApproachDate:      optionalText(fields[2]),
		AbsoluteMagnitudeH:     magnitude,
		DiameterMinKm:          diameterMin,
		DiameterMaxKm:          diameterMax,
		IsPotentiallyHazardous: hazardous,
		RelativeVelocityKPS:    velocity,
		MissDistanceKm:         distance,
		OrbitingBody:           fields[9],
	}, nil
}

func textField(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func realField(value *float64) string {
	if value == nil {
		return ""
	}
	return formatReal(*value)
}

func formatReal(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

func boolField(value *bool) string {
	if value == nil {
		return ""
	}
	return strconv.FormatBool(*value)
}

func optionalText(field string) *string {
	if field == "" {
		return nil
	}
	return &field
}

func parseOptionalReal(field, column string) (*float64, error) {
	if field == "" {
		return nil, nil
	}
	value, err := parseReal(field, column)
	if err != nil {
		return nil, err
	}
	return &value, nil
}

func parseReal(field, column string) (float64, error) {
	value, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable %s %q", column, field)
	}
	return value, nil
}

func parseOptionalBool(field string) (*bool, error) {
	if field == "" {
		return nil, nil
	}
	value, err := strconv.ParseBool(field)
	if err != nil {
		return nil, fmt.Errorf("unparseable is_potentially_hazardous %q", field)
	}
	return &value, nil
}

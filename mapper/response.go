package mapper

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ResponseMapper coerces the cells a database driver hands back into
// plain Go values.
type ResponseMapper struct{}

// NewResponseMapper creates a new response mapper.
func NewResponseMapper() *ResponseMapper {
	return &ResponseMapper{}
}

// NormalizeCell converts a raw driver cell into the value stored in a
// result table. Byte slices become strings; everything else passes through.
func (m *ResponseMapper) NormalizeCell(value any) any {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		return string(v)
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case float32:
		return float64(v)
	default:
		return v
	}
}

// NormalizeRow applies NormalizeCell to every cell of a row in place.
func (m *ResponseMapper) NormalizeRow(row []any) []any {
	for i, cell := range row {
		row[i] = m.NormalizeCell(cell)
	}
	return row
}

// ToString converts any value to a string.
func (m *ResponseMapper) ToString(value any) string {
	if value == nil {
		return ""
	}

	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case int:
		return strconv.Itoa(v)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return v.Format(time.RFC3339Nano)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ToInt converts a value to an integer.
func (m *ResponseMapper) ToInt(value any) (int64, error) {
	if value == nil {
		return 0, fmt.Errorf("cannot convert nil to int")
	}

	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case float32:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case []byte:
		return m.ToInt(string(v))
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("cannot convert '%s' to int: %w", v, err)
		}
		return i, nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("cannot convert %T to int", value)
	}
}

// ToFloat converts a value to a float.
func (m *ResponseMapper) ToFloat(value any) (float64, error) {
	if value == nil {
		return 0, fmt.Errorf("cannot convert nil to float")
	}

	switch v := value.(type) {
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case []byte:
		return m.ToFloat(string(v))
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("cannot convert '%s' to float: %w", v, err)
		}
		return f, nil
	case bool:
		if v {
			return 1.0, nil
		}
		return 0.0, nil
	default:
		return 0, fmt.Errorf("cannot convert %T to float", value)
	}
}

// ToBool converts a value to a boolean.
// SQLite reports EXISTS as an integer, Postgres as a bool; both are accepted.
func (m *ResponseMapper) ToBool(value any) (bool, error) {
	if value == nil {
		return false, nil
	}

	switch v := value.(type) {
	case bool:
		return v, nil
	case int:
		return v != 0, nil
	case int32:
		return v != 0, nil
	case int64:
		return v != 0, nil
	case float32:
		return v != 0, nil
	case float64:
		return v != 0, nil
	case []byte:
		return m.ToBool(string(v))
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "t", "1", "yes", "y", "on":
			return true, nil
		case "false", "f", "0", "no", "n", "off", "":
			return false, nil
		default:
			return false, fmt.Errorf("cannot convert '%s' to boolean", v)
		}
	default:
		return false, fmt.Errorf("cannot convert %T to boolean", value)
	}
}

// ToDateTime converts a value to a time.Time.
func (m *ResponseMapper) ToDateTime(value any) (time.Time, error) {
	if value == nil {
		return time.Time{}, fmt.Errorf("cannot convert nil to datetime")
	}

	switch v := value.(type) {
	case time.Time:
		return v, nil
	case []byte:
		return m.ToDateTime(string(v))
	case string:
		formats := []string{
			time.RFC3339Nano,
			"2006-01-02 15:04:05.999999999-07:00",
			"2006-01-02 15:04:05.999999999-07",
			"2006-01-02 15:04:05.999999999",
			"2006-01-02T15:04:05",
			"2006-01-02",
		}
		for _, format := range formats {
			if t, err := time.Parse(format, v); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("cannot parse '%s' as datetime", v)
	case int64:
		return time.Unix(v, 0), nil
	case int:
		return time.Unix(int64(v), 0), nil
	default:
		return time.Time{}, fmt.Errorf("cannot convert %T to datetime", value)
	}
}

// MapColumn converts every value of a result column to the target type:
// "string", "int", "float", "boolean" or "datetime". Other targets leave
// values untouched. NULL cells stay nil.
func (m *ResponseMapper) MapColumn(values []any, targetType string) ([]any, error) {
	if values == nil {
		return nil, nil
	}

	out := make([]any, len(values))
	for i, value := range values {
		if value == nil {
			continue
		}
		var (
			mapped any
			err    error
		)
		switch targetType {
		case "string":
			mapped = m.ToString(value)
		case "int":
			mapped, err = m.ToInt(value)
		case "float":
			mapped, err = m.ToFloat(value)
		case "boolean":
			mapped, err = m.ToBool(value)
		case "datetime":
			mapped, err = m.ToDateTime(value)
		default:
			mapped = value
		}
		if err != nil {
			return nil, fmt.Errorf("error mapping element %d: %w", i, err)
		}
		out[i] = mapped
	}
	return out, nil
}

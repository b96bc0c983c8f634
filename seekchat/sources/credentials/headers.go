package credentials

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

var ErrHeadersNotFound = errors.New("headers file not found")

// LoadHeaders reads the static request headers from a YAML map. Values that
// are not strings (numbers, booleans) are coerced to their string form.
func LoadHeaders(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrHeadersNotFound, path)
	}
	if err != nil {
		return nil, err
	}

	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%s: no headers defined", path)
	}

	headers := make(map[string]string, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case string:
			headers[k] = val
		case nil:
			headers[k] = ""
		case float64:
			headers[k] = strconv.FormatFloat(val, 'f', -1, 64)
		default:
			headers[k] = fmt.Sprint(val)
		}
	}
	return headers, nil
}

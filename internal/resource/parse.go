package resource

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Parse reads a resource vector formatted as "cpu:<n>;mem:<bytes>", the format accepted
// by the agent's --resources flag. Unknown component names are rejected; missing
// components default to zero.
func Parse(raw string) (Vector, error) {
	var v Vector
	if strings.TrimSpace(raw) == "" {
		return v, nil
	}

	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, ":", 2)
		if len(kv) != 2 {
			return Vector{}, errors.Errorf("invalid resource component %q", part)
		}
		name, value := strings.TrimSpace(kv[0]), strings.TrimSpace(kv[1])
		switch name {
		case "cpu":
			parsed, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return Vector{}, errors.Wrapf(err, "invalid cpu value %q", value)
			}
			v.CPU = parsed
		case "mem":
			parsed, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return Vector{}, errors.Wrapf(err, "invalid mem value %q", value)
			}
			v.Mem = parsed
		default:
			return Vector{}, errors.Errorf("unknown resource component %q", name)
		}
	}

	return v, nil
}

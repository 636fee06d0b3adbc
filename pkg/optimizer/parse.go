package optimizer

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseParameter reads a command line parameter spec:
//
//	risk.stop_atr_multiple=1.5:3:0.5   numeric range min:max:step
//	risk.time_exit_bars=10:30:5        integer range when every bound is an integer
//	filters.session.enabled=true,false options
func ParseParameter(spec string) (Parameter, error) {
	name, values, ok := strings.Cut(spec, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" || values == "" {
		return Parameter{}, fmt.Errorf("parameter %q: expected name=min:max:step or name=a,b,...", spec)
	}

	if bounds := strings.Split(values, ":"); len(bounds) == 3 {
		return parseRange(name, bounds)
	}

	var options []any
	for _, raw := range strings.Split(values, ",") {
		options = append(options, parseScalar(strings.TrimSpace(raw)))
	}

	return Parameter{Name: name, Options: options, Default: options[0], Type: TypeCategorical}, nil
}

func parseRange(name string, bounds []string) (Parameter, error) {
	ints := make([]int, 0, 3)
	for _, raw := range bounds {
		if v, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
			ints = append(ints, v)
		}
	}
	if len(ints) == 3 {
		return Parameter{Name: name, Min: ints[0], Max: ints[1], Step: ints[2], Default: ints[0], Type: TypeInt}, nil
	}

	floats := make([]float64, 3)
	for i, raw := range bounds {
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return Parameter{}, fmt.Errorf("parameter %s: invalid bound %q", name, raw)
		}
		floats[i] = v
	}

	return Parameter{Name: name, Min: floats[0], Max: floats[1], Step: floats[2], Default: floats[0], Type: TypeFloat}, nil
}

func parseScalar(raw string) any {
	if v, err := strconv.Atoi(raw); err == nil {
		return v
	}
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		return v
	}
	if v, err := strconv.ParseBool(raw); err == nil {
		return v
	}
	return raw
}

package dmx

import (
	"strconv"
	"strings"

	"github.com/quinnarbor/modelwrench/internal/mathutil"
)

func parseIntOr(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return v
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return v
}

func parseVec2(s string) mathutil.Vec2 {
	f := splitFloats(s)
	if len(f) < 2 {
		return mathutil.Vec2{}
	}
	return mathutil.Vec2{X: f[0], Y: f[1]}
}

func parseVec3(s string) mathutil.Vec3 {
	f := splitFloats(s)
	if len(f) < 3 {
		return mathutil.Vec3{}
	}
	return mathutil.Vec3{X: f[0], Y: f[1], Z: f[2]}
}

func parseQuat(s string) mathutil.Quat {
	f := splitFloats(s)
	if len(f) < 4 {
		return mathutil.QuatIdentity
	}
	return mathutil.Quat{X: f[0], Y: f[1], Z: f[2], W: f[3]}
}

func splitFloats(s string) []float64 {
	fields := strings.Fields(s)
	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

func parseIntArray(values []string) []int {
	out := make([]int, len(values))
	for i, v := range values {
		out[i], _ = strconv.Atoi(strings.TrimSpace(v))
	}
	return out
}

func parseFloatArray(values []string) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = parseFloat(v)
	}
	return out
}

func parseVec2Array(values []string) []mathutil.Vec2 {
	out := make([]mathutil.Vec2, len(values))
	for i, v := range values {
		out[i] = parseVec2(v)
	}
	return out
}

func parseVec3Array(values []string) []mathutil.Vec3 {
	out := make([]mathutil.Vec3, len(values))
	for i, v := range values {
		out[i] = parseVec3(v)
	}
	return out
}

// parseTimeOrSeconds decodes a version-dependent time payload: version<2
// stores hundred-microsecond integer ticks, version>=2 stores a
// directly-parseable seconds float.
func parseTimeOrSeconds(s string, version int) float64 {
	if version < 2 {
		return float64(parseIntOr(s, 0)) / 10000.0
	}
	return parseFloat(s)
}

func parseTimeArray(values []string, version int) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = parseTimeOrSeconds(v, version)
	}
	return out
}

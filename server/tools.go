package attento

import (
	"math"
	"os"
)

// FillEnvVar returns the value of a runtime Environment Variable
func FillEnvVar(ev string) string {
	// If the EnvVar doesn't exist return a default string
	value := os.Getenv(ev)
	if value == "" {
		value = "ENOENT"
	}
	return value
}

// FloatPrecise rounds to /p/ decimal places
func FloatPrecise(f float64, p int) float64 {
	shift := math.Pow(10, float64(p))
	return math.Round(f*shift) / shift
}

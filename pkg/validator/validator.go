package validator

import "math"

// Validator collects field-level validation errors.
type Validator struct {
	Errors map[string]string
}

func New() *Validator {
	return &Validator{Errors: make(map[string]string)}
}

// Valid returns true when no errors were recorded.
func (v *Validator) Valid() bool {
	return len(v.Errors) == 0
}

// AddError records an error for a field, keeping the first one.
func (v *Validator) AddError(key, message string) {
	if _, exists := v.Errors[key]; !exists {
		v.Errors[key] = message
	}
}

// Check records an error when ok is false.
func (v *Validator) Check(ok bool, key, message string) {
	if !ok {
		v.AddError(key, message)
	}
}

// PermittedValue returns true when value is one of the permitted values.
func PermittedValue[T comparable](value T, permitted ...T) bool {
	for i := range permitted {
		if value == permitted[i] {
			return true
		}
	}
	return false
}

// FiniteCoordinate returns true for a finite latitude or longitude value.
func FiniteCoordinate(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// LatitudeInRange returns true for latitudes within [-90, 90].
func LatitudeInRange(lat float64) bool {
	return FiniteCoordinate(lat) && lat >= -90 && lat <= 90
}

// LongitudeInRange returns true for longitudes within [-180, 180].
func LongitudeInRange(lng float64) bool {
	return FiniteCoordinate(lng) && lng >= -180 && lng <= 180
}

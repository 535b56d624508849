package common

import "fmt"

// ConfigErrType distinguishes the ways in which effect parameters can be
// rejected.
type ConfigErrType uint32

const (
	// InvalidValue is returned for a size, scale or color that is out of range
	// or cannot be parsed.
	InvalidValue ConfigErrType = iota
	// DegenerateChain is returned when a chain is too short to be traversed.
	DegenerateChain
)

// ConfigErr is the configuration error of the effect. It never reaches the
// running effect: the configuration adapter logs it and falls back to a
// default.
type ConfigErr struct {
	field   string
	errType ConfigErrType
	value   string
}

// NewConfigErr ...
func NewConfigErr(field string, errType ConfigErrType, value string) ConfigErr {
	return ConfigErr{
		field:   field,
		errType: errType,
		value:   value,
	}
}

// Field returns the name of the rejected parameter.
func (e ConfigErr) Field() string {
	return e.field
}

// Error ...
func (e ConfigErr) Error() string {
	m := ""
	switch e.errType {
	case InvalidValue:
		m = "Invalid Value"
	case DegenerateChain:
		m = "Degenerate Chain"
	}

	return fmt.Sprintf("%s, '%s', %s", e.field, e.value, m)
}

// IsConfig checks that an error is a ConfigErr of the given type.
func IsConfig(err error, t ConfigErrType) bool {
	configErr, ok := err.(ConfigErr)
	return ok && configErr.errType == t
}

// IsConfigurationError reports whether err is any kind of ConfigErr.
func IsConfigurationError(err error) bool {
	_, ok := err.(ConfigErr)
	return ok
}

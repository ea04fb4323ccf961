package domain

// LineOfBusiness classifies policies and treaty applicability.
type LineOfBusiness string

const (
	LOBHealth   LineOfBusiness = "HEALTH"
	LOBMotor    LineOfBusiness = "MOTOR"
	LOBLife     LineOfBusiness = "LIFE"
	LOBProperty LineOfBusiness = "PROPERTY"
)

// Valid reports whether the value is a known line of business.
func (lob LineOfBusiness) Valid() bool {
	switch lob {
	case LOBHealth, LOBMotor, LOBLife, LOBProperty:
		return true
	}
	return false
}

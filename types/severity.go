package types

type Severity string

const (
	SeverityMinimal          Severity = "minimal"
	SeverityMild             Severity = "mild"
	SeverityModerate         Severity = "moderate"
	SeverityModeratelySevere Severity = "moderately severe"
	SeveritySevere           Severity = "severe"
)

// SeverityOf maps a PHQ-9 total (0-27) to the standard severity band.
func SeverityOf(total int) Severity {
	switch {
	case total >= 20:
		return SeveritySevere
	case total >= 15:
		return SeverityModeratelySevere
	case total >= 10:
		return SeverityModerate
	case total >= 5:
		return SeverityMild
	default:
		return SeverityMinimal
	}
}

package ports

// InputParser converts a user-supplied decimal string into a mole fraction.
type InputParser interface {
	Parse(field, raw string) (float64, error)
}

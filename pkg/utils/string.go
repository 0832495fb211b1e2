package utils

// OptionalString maps the empty string to nil.
func OptionalString(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}

package validation

// CustomMessage returns per-field overrides keyed by rule tag, or nil.
func CustomMessage(field string) map[string]string {
	var customValidationMessages = map[string]map[string]string{
		"email": {
			"unique": "The email has already been taken.",
		},
		"remember_me": {
			"boolean": "The remember me field must be true or false.",
		},
	}
	return customValidationMessages[field]
}

// Message prefers a field override and falls back to the default wording.
func Message(field, tag, param string) string {
	if fieldMessages := CustomMessage(field); fieldMessages != nil {
		if msg, exists := fieldMessages[tag]; exists {
			return msg
		}
	}
	return DefaultMessage(field, tag, param)
}

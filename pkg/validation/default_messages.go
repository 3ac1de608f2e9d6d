package validation

import (
	"fmt"
	"strings"
)

// DefaultMessage renders the English message for a failed rule.
func DefaultMessage(field, tag, param string) string {
	field = displayName(field)

	switch tag {
	case "required", "filled":
		return fmt.Sprintf("The %s field is required.", field)
	case "email":
		return fmt.Sprintf("The %s field must be a valid email address.", field)
	case "min":
		return fmt.Sprintf("The %s field must be at least %s characters.", field, param)
	case "max", "bytesmax":
		return fmt.Sprintf("The %s field must not be greater than %s characters.", field, param)
	case "len":
		return fmt.Sprintf("The %s field must be %s characters.", field, param)
	case "boolean":
		return fmt.Sprintf("The %s field must be true or false.", field)
	case "numeric":
		return fmt.Sprintf("The %s field must be a number.", field)
	case "string":
		return fmt.Sprintf("The %s field must be a string.", field)
	case "unique":
		return fmt.Sprintf("The %s has already been taken.", field)
	case "oneof":
		return fmt.Sprintf("The selected %s is invalid.", field)
	default:
		return fmt.Sprintf("The %s field is invalid.", field)
	}
}

// displayName turns a json key into the words used inside messages.
func displayName(field string) string {
	return strings.ReplaceAll(strings.ToLower(field), "_", " ")
}

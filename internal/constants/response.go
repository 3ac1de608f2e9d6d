package constants

// Standard Response Field Keys
const (
	ResponseFieldData    = "data"
	ResponseFieldMessage = "message"
	ResponseFieldErrors  = "errors"
)

// BuildDataResponse wraps a resource the way every user endpoint returns it.
func BuildDataResponse(data any) map[string]any {
	return map[string]any{
		ResponseFieldData: data,
	}
}

func BuildErrorResponse(message string) map[string]any {
	return map[string]any{
		ResponseFieldMessage: message,
	}
}

// BuildValidationErrorResponse returns the field keyed error bag of a 422 response.
func BuildValidationErrorResponse(message string, errors map[string][]string) map[string]any {
	return map[string]any{
		ResponseFieldMessage: message,
		ResponseFieldErrors:  errors,
	}
}

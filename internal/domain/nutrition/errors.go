package nutrition

import apperrors "github.com/healapp/mealtrack/pkg/errors"

func errInvalidProfile(message string) error {
	return apperrors.Wrap(apperrors.CodeInvalidInput, message, nil)
}

package utils

import (
	"fmt"
	"strings"

	"github.com/badoux/checkmail"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	// Format validation errors
	var errors []string
	for _, err := range err.(validator.ValidationErrors) {
		field := strings.ToLower(err.Field())
		tag := err.Tag()
		param := err.Param()

		switch tag {
		case "required":
			errors = append(errors, field+" is required")
		case "min":
			errors = append(errors, field+" must be at least "+param)
		case "max":
			errors = append(errors, field+" must be at most "+param)
		case "email":
			errors = append(errors, field+" must be a valid email")
		case "oneof":
			errors = append(errors, field+" must be one of: "+param)
		case "gte":
			errors = append(errors, field+" must be at least "+param)
		case "lte":
			errors = append(errors, field+" must be at most "+param)
		default:
			errors = append(errors, field+" is invalid")
		}
	}

	return fmt.Errorf("%s", strings.Join(errors, ", "))
}

// ValidateContactEmail checks the address format and, outside of tests,
// that the domain can receive mail. Used on owner/contact intake where a
// typo would strand the submission.
func ValidateContactEmail(email string, checkHost bool) error {
	if err := checkmail.ValidateFormat(email); err != nil {
		return fmt.Errorf("invalid email format: %w", err)
	}
	if checkHost {
		if err := checkmail.ValidateHost(email); err != nil {
			return fmt.Errorf("email domain cannot receive mail: %w", err)
		}
	}
	return nil
}

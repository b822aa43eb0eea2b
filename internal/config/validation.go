package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
)

const MaxFiles = 50

var allowedExtensions = []string{".pdf", ".csv", ".xlsx", ".xls"}

// SubmissionForm is the user input of a screening job before it is sent.
type SubmissionForm struct {
	Files     []string `validate:"max=50,dive,required,upload_ext"`
	SheetURL  string   `validate:"omitempty,url,startswith=http"`
	TicketMin *float64 `validate:"omitempty,gte=0"`
	TicketMax *float64 `validate:"omitempty,gte=0"`
}

type ValidationRule struct {
	Rule func(v *validator.Validate)
}

func registerFn(tag string, fn func(fl validator.FieldLevel) bool) func(v *validator.Validate) {
	return func(v *validator.Validate) {
		_ = v.RegisterValidation(tag, fn)
	}
}

func NewSubmissionValidationRules() []ValidationRule {
	return []ValidationRule{
		{
			Rule: registerFn("upload_ext", uploadExtensionValidator),
		},
	}
}

func uploadExtensionValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	ext := strings.ToLower(filepath.Ext(val))
	for _, allowed := range allowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

func submissionFormValidator(sl validator.StructLevel) {
	form := sl.Current().Interface().(SubmissionForm)

	if len(form.Files) == 0 && form.SheetURL == "" {
		sl.ReportError(form.Files, "Files", "Files", "files_or_sheet", "")
	}
	if form.TicketMin != nil && form.TicketMax != nil && *form.TicketMin > *form.TicketMax {
		sl.ReportError(form.TicketMin, "TicketMin", "TicketMin", "ltefield", "TicketMax")
	}
}

// ValidateSubmission checks the submission form and returns every violation found.
func ValidateSubmission(form SubmissionForm) error {
	v := validator.New()
	for _, r := range NewSubmissionValidationRules() {
		r.Rule(v)
	}
	v.RegisterStructValidation(submissionFormValidator, SubmissionForm{})

	err := v.Struct(form)
	if err == nil {
		return nil
	}
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	errs := make([]error, 0, len(validationErrors))
	for _, fe := range validationErrors {
		errs = append(errs, fieldError(fe))
	}
	return fmt.Errorf("invalid submission: %w", utilerrors.NewAggregate(errs))
}

func fieldError(fe validator.FieldError) error {
	switch fe.Tag() {
	case "files_or_sheet":
		return fmt.Errorf("at least one file or a sheet link is required")
	case "ltefield":
		return fmt.Errorf("minimum ticket size is greater than the maximum")
	case "max":
		return fmt.Errorf("at most %d files can be uploaded", MaxFiles)
	case "upload_ext":
		return fmt.Errorf("file %q is not a %s document", fe.Value(), strings.Join(allowedExtensions, ", "))
	case "url", "startswith":
		return fmt.Errorf("sheet link %q is not a valid http(s) url", fe.Value())
	case "gte":
		return fmt.Errorf("%s must not be negative", strings.ToLower(fe.Field()))
	default:
		return fmt.Errorf("%s failed on %s", fe.Field(), fe.Tag())
	}
}

package profile

import (
	"fmt"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/gdugdh24/guildmatch/internal/domain"
	"github.com/go-playground/validator/v10"
)

// Validator checks profile attributes against a guild policy.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	_ = v.RegisterValidation("gender", func(fl validator.FieldLevel) bool {
		g, ok := fl.Field().Interface().(domain.Gender)
		return ok && g.Valid()
	})
	_ = v.RegisterValidation("looking_for", func(fl validator.FieldLevel) bool {
		l, ok := fl.Field().Interface().(domain.LookingFor)
		return ok && l.Valid()
	})
	return &Validator{validate: v}
}

// Normalize trims the bio and fills omitted fields from the policy.
func Normalize(attrs domain.ProfileAttrs, policy domain.Policy) domain.ProfileAttrs {
	attrs.Bio = strings.TrimSpace(attrs.Bio)
	if attrs.LookingFor == "" {
		attrs.LookingFor = domain.LookingForDating
	}
	if attrs.PreferredMinAge == 0 {
		attrs.PreferredMinAge = policy.MinAge
	}
	if attrs.PreferredMaxAge == 0 {
		attrs.PreferredMaxAge = policy.MaxAge
	}
	return attrs
}

// Validate returns a *domain.ValidationError listing every problem, or nil.
func (v *Validator) Validate(attrs domain.ProfileAttrs, policy domain.Policy) error {
	var problems []string

	if err := v.validate.Struct(attrs); err != nil {
		fieldErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return fmt.Errorf("failed to validate profile: %w", err)
		}
		for _, fe := range fieldErrs {
			problems = append(problems, describe(fe))
		}
	}

	inRange := func(n int) bool { return n >= policy.MinAge && n <= policy.MaxAge }
	if attrs.Age != 0 && !inRange(attrs.Age) {
		problems = append(problems, fmt.Sprintf("age must be between %d and %d", policy.MinAge, policy.MaxAge))
	}
	if !inRange(attrs.PreferredMinAge) {
		problems = append(problems, fmt.Sprintf("preferred_min_age must be between %d and %d", policy.MinAge, policy.MaxAge))
	}
	if !inRange(attrs.PreferredMaxAge) {
		problems = append(problems, fmt.Sprintf("preferred_max_age must be between %d and %d", policy.MinAge, policy.MaxAge))
	}
	if attrs.PreferredMinAge > attrs.PreferredMaxAge {
		problems = append(problems, "preferred_min_age must not exceed preferred_max_age")
	}
	if n := utf8.RuneCountInString(attrs.Bio); n > policy.BioMaxLength {
		problems = append(problems, fmt.Sprintf("bio must be at most %d characters", policy.BioMaxLength))
	}

	if len(problems) == 0 {
		return nil
	}
	return domain.NewValidationError("invalid profile", problems...)
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required", "min":
		if fe.Kind() == reflect.Slice {
			return field + " must list at least one gender"
		}
		if field == "bio" {
			return "bio must not be empty"
		}
		return field + " is required"
	case "gender":
		return fmt.Sprintf("%s must be one of %s", field, joinGenders(domain.Genders))
	case "looking_for":
		return fmt.Sprintf("%s must be one of %s", field, joinLookingFor(domain.LookingForOptions))
	case "unique":
		return field + " must not repeat a gender"
	}
	return fmt.Sprintf("%s failed %s", field, fe.Tag())
}

func joinGenders(genders []domain.Gender) string {
	names := make([]string, 0, len(genders))
	for _, g := range genders {
		names = append(names, string(g))
	}
	return strings.Join(names, ", ")
}

func joinLookingFor(options []domain.LookingFor) string {
	names := make([]string, 0, len(options))
	for _, l := range options {
		names = append(names, string(l))
	}
	return strings.Join(names, ", ")
}

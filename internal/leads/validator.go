package leads

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// DefaultUnsafePatterns is the denylist applied to every raw text field.
var DefaultUnsafePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<script`),
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)\bon\w+\s*=`),
	regexp.MustCompile(`(?i)<iframe`),
	regexp.MustCompile(`(?i)<object`),
	regexp.MustCompile(`(?i)<embed`),
	regexp.MustCompile(`(?i)data:text/html`),
	regexp.MustCompile(`(?i)vbscript:`),
	regexp.MustCompile(`(?i)<meta`),
	regexp.MustCompile(`(?i)eval\s*\(`),
	regexp.MustCompile(`(?i)expression\s*\(`),
}

var (
	phonePattern = regexp.MustCompile(`^\+?\d{10,15}$`)
	// The validator's email rule accepts dotless domains; site forms never did.
	emailShape = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// Validator cleans and validates raw payloads.
type Validator struct {
	validate *validator.Validate
	unsafe   []*regexp.Regexp
}

// NewValidator builds a validator with the given denylist; nil uses DefaultUnsafePatterns.
func NewValidator(unsafe []*regexp.Regexp) *Validator {
	if unsafe == nil {
		unsafe = DefaultUnsafePatterns
	}
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("leadphone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	return &Validator{validate: v, unsafe: unsafe}
}

// Validate returns a cleaned Submission, or the field errors that made p unacceptable.
func (v *Validator) Validate(p Payload, meta RequestMeta) (*Submission, ValidationErrors) {
	var errs ValidationErrors
	flagged := map[string]bool{}

	for _, f := range rawFields(p) {
		if f.value != "" && v.isUnsafe(f.value) {
			errs = append(errs, FieldError{Field: f.name, Code: CodeUnsafeContent})
			flagged[f.name] = true
		}
	}

	sub := clean(p, meta)

	if err := v.validate.Struct(sub); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			errs = append(errs, FieldError{Field: "payload", Code: CodeInvalid})
		}
		for _, fe := range verrs {
			if flagged[fe.Field()] {
				continue
			}
			flagged[fe.Field()] = true
			errs = append(errs, FieldError{Field: fe.Field(), Code: codeForTag(fe.Tag())})
		}
	}
	if !flagged["email"] && sub.Email != "" && !emailShape.MatchString(sub.Email) {
		errs = append(errs, FieldError{Field: "email", Code: CodeInvalid})
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return &sub, nil
}

// isUnsafe reports whether s matches the denylist.
func (v *Validator) isUnsafe(s string) bool {
	for _, re := range v.unsafe {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

func codeForTag(tag string) string {
	switch tag {
	case "required":
		return CodeRequired
	case "max":
		return CodeTooLong
	default:
		return CodeInvalid
	}
}

type rawField struct {
	name  string
	value string
}

func rawFields(p Payload) []rawField {
	return []rawField{
		{"email", p.Email},
		{"name", p.Name},
		{"phone", p.Phone},
		{"propertyAddress", p.PropertyAddress},
		{"situation", p.Situation},
		{"notes", p.Notes},
		{"urgencyLevel", p.UrgencyLevel},
		{"formType", p.FormType},
		{"timeline", p.Timeline},
		{"foreclosureStatus", p.ForeclosureStatus},
		{"propertyType", p.PropertyType},
		{"desiredPrice", p.DesiredPrice},
		{"bestTime", p.BestTimeToCall},
		{"source", p.Source},
	}
}

func clean(p Payload, meta RequestMeta) Submission {
	situation := strings.TrimSpace(p.Situation)
	if situation == "" {
		situation = strings.TrimSpace(p.Notes)
	}

	urgency := UrgencyLevel(strings.ToLower(strings.TrimSpace(p.UrgencyLevel)))
	if !urgency.Valid() {
		urgency = ""
	}
	formType := FormType(strings.ToLower(strings.TrimSpace(p.FormType)))
	if !formType.Valid() {
		formType = ""
	}

	return Submission{
		Email:             strings.TrimSpace(p.Email),
		Name:              strings.TrimSpace(p.Name),
		Phone:             NormalizePhone(p.Phone),
		PropertyAddress:   strings.TrimSpace(p.PropertyAddress),
		Situation:         situation,
		UrgencyLevel:      urgency,
		FormType:          formType,
		Timeline:          strings.TrimSpace(p.Timeline),
		ForeclosureStatus: strings.TrimSpace(p.ForeclosureStatus),
		PropertyType:      strings.TrimSpace(p.PropertyType),
		DesiredPrice:      strings.TrimSpace(p.DesiredPrice),
		BestTimeToCall:    strings.TrimSpace(p.BestTimeToCall),
		Source:            strings.TrimSpace(p.Source),
		SourceIP:          meta.SourceIP,
		ReceivedAt:        meta.ReceivedAt.UTC(),
	}
}

// NormalizePhone strips everything but digits, keeping a leading "+".
// Input without any digits is returned trimmed so validation rejects it.
func NormalizePhone(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	var b strings.Builder
	if strings.HasPrefix(raw, "+") {
		b.WriteByte('+')
	}
	digits := 0
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			digits++
		}
	}
	if digits == 0 {
		return raw
	}
	return b.String()
}

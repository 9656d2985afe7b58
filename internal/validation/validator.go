// Package validation checks section trees with go-playground/validator.
// Struct tags on the models cover presence and enumerations; the tree-level
// rules (one of path or dataSource, typed query options) run afterwards.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/voyagen/sectionvault/internal/models"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once

	monthDay = regexp.MustCompile(`^(0[1-9]|1[0-2])-(0[1-9]|[12][0-9]|3[01])$`)
)

// FieldError is one failed rule.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// Error collects every failed rule of one validation run.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return strings.Join(msgs, "; ")
}

// Get returns the shared validator with the custom tags registered.
func Get() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(jsonName)
		_ = v.RegisterValidation("monthday", func(fl validator.FieldLevel) bool {
			return monthDay.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("cardformat", func(fl validator.FieldLevel) bool {
			s := models.CardFormat(fl.Field().String())
			for _, c := range models.CardFormats {
				if s == c {
					return true
				}
			}
			return false
		})
		validate = v
	})
	return validate
}

func jsonName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

// Struct validates any tagged struct.
func Struct(s any) error {
	err := Get().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &Error{Fields: []FieldError{{Field: "unknown", Tag: "unknown", Message: err.Error()}}}
	}
	out := &Error{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{
			Field:   trimRoot(fe.Namespace()),
			Tag:     fe.Tag(),
			Message: translate(fe),
		})
	}
	return out
}

type tree struct {
	Groups []models.Group `json:"groups" validate:"dive"`
}

// Tree validates a group array: struct tags first, then the query rules.
func Tree(groups []models.Group) error {
	if err := Struct(tree{Groups: groups}); err != nil {
		return err
	}
	var out Error
	for gi, g := range groups {
		for si, s := range g.Sections {
			for qi, q := range s.Queries {
				field := fmt.Sprintf("groups[%d].sections[%d].queries[%d]", gi, si, qi)
				if q.Path != nil && q.DataSource != nil {
					out.Fields = append(out.Fields, FieldError{
						Field:   field,
						Tag:     "exclusive",
						Message: field + " sets both path and dataSource",
					})
				}
				if err := q.QueryOptions.Validate(); err != nil {
					out.Fields = append(out.Fields, FieldError{
						Field:   field + ".queryOptions",
						Tag:     "option",
						Message: field + ": " + err.Error(),
					})
				}
			}
		}
	}
	if len(out.Fields) > 0 {
		return &out
	}
	return nil
}

func trimRoot(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func translate(fe validator.FieldError) string {
	field := trimRoot(fe.Namespace())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "monthday":
		return field + " must be a month-day like 12-24"
	case "cardformat":
		return fmt.Sprintf("%s must be one of: %v", field, models.CardFormats)
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

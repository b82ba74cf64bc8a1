package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/eventup/api/internal/model"
)

var registerOnce sync.Once

// RegisterValidators adds the enum validators used in request binding tags.
// It is safe to call more than once.
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = errors.New("gin validator engine is not go-playground/validator")
			return
		}
		// Report JSON names rather than Go field names
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return f.Name
		})
		enums := map[string]func(string) bool{
			"role": func(s string) bool {
				return s == string(model.UserRoleCTV) || s == string(model.UserRoleBTC)
			},
			"gender": func(s string) bool {
				switch model.Gender(s) {
				case model.GenderMale, model.GenderFemale, model.GenderOther:
					return true
				}
				return false
			},
			"eventtype": func(s string) bool {
				switch model.EventType(s) {
				case model.EventTypeConcert, model.EventTypeWorkshop, model.EventTypeFestival,
					model.EventTypeConference, model.EventTypeSports, model.EventTypeExhibition, model.EventTypeOther:
					return true
				}
				return false
			},
			"paymethod": func(s string) bool {
				switch model.PaymentMethod(s) {
				case model.PaymentMoMo, model.PaymentVNPay, model.PaymentPayOS:
					return true
				}
				return false
			},
		}
		for tag, valid := range enums {
			if err = v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
				return valid(fl.Field().String())
			}); err != nil {
				return
			}
		}
	})
	return err
}

// bindJSON decodes and validates the body, writing a 400 on failure
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		WriteError(c, bindingProblem(err))
		return false
	}
	return true
}

// bindQuery decodes and validates query parameters, writing a 400 on failure
func bindQuery(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindQuery(dst); err != nil {
		WriteError(c, bindingProblem(err))
		return false
	}
	return true
}

func bindingProblem(err error) *model.ProblemDetails {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]model.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, model.FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
		}
		return model.NewValidationError(fields)
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return model.NewValidationError([]model.FieldError{{
			Field:   typeErr.Field,
			Message: fmt.Sprintf("must be a %s", typeErr.Type.Kind()),
		}})
	}
	return model.NewBadRequestError("invalid request body")
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return "please provide a valid email"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s cannot exceed %s characters", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "len":
		return fmt.Sprintf("%s must be %s characters", fe.Field(), fe.Param())
	case "numeric":
		return fe.Field() + " must contain only digits"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "role":
		return "role must be CTV or BTC"
	case "gender":
		return "gender must be MALE, FEMALE or OTHER"
	case "eventtype":
		return "invalid event type"
	case "paymethod":
		return "method must be MOMO, VNPAY or PAYOS"
	case "url":
		return fe.Field() + " must be a valid URL"
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}

package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type FieldErrors map[string][]string

func (e FieldErrors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

// validationFail answers 200 so form pages can render the field errors inline.
func validationFail(c *fiber.Ctx, errs FieldErrors) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": false,
		"message": "Validation error",
		"errors":  errs,
	})
}

func fail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": msg,
	})
}

func ok(c *fiber.Ctx, msg string, data any) error {
	return c.JSON(fiber.Map{
		"success": true,
		"message": msg,
		"data":    data,
	})
}

// ErrorHandler renders errors that escape a handler in the usual envelope.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	msg := "Internal server error"
	var ferr *fiber.Error
	if errors.As(err, &ferr) {
		status = ferr.Code
		msg = ferr.Message
	}
	return fail(c, status, msg)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// check runs struct validation and reports failures per json field.
func check(req any) FieldErrors {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	verrs, isValidation := err.(validator.ValidationErrors)
	if !isValidation {
		return FieldErrors{"_": {err.Error()}}
	}

	errs := FieldErrors{}
	for _, fe := range verrs {
		errs.Add(fe.Field(), fieldMessage(fe))
	}
	return errs
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Must be a valid email address"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Must be at least %s characters long", fe.Param())
		}
		return fmt.Sprintf("Must be at least %s", fe.Param())
	case "gte":
		return fmt.Sprintf("Must be %s or more", fe.Param())
	case "eqfield":
		return "Does not match"
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "uuid":
		return "Must be a valid id"
	}
	return fmt.Sprintf("Invalid value (failed on '%s' tag)", fe.Tag())
}

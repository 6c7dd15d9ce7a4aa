// Package apperr defines the error kinds the API surfaces to callers and the
// fiber error handler that renders them.
package apperr

import (
	"errors"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type Kind string

const (
	KindValidation            Kind = "validation_failed"
	KindNotFound              Kind = "not_found"
	KindUnauthenticated       Kind = "unauthenticated"
	KindUnauthorized          Kind = "unauthorized"
	KindConflict              Kind = "conflict"
	KindReferentialConstraint Kind = "referential_constraint"
)

type Error struct {
	Kind    Kind
	Message string
	Fields  map[string][]string
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Message
}

func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation:
		return fiber.StatusUnprocessableEntity
	case KindNotFound:
		return fiber.StatusNotFound
	case KindUnauthenticated:
		return fiber.StatusUnauthorized
	case KindUnauthorized:
		return fiber.StatusForbidden
	case KindConflict, KindReferentialConstraint:
		return fiber.StatusConflict
	}
	return fiber.StatusInternalServerError
}

func Validation(fields map[string][]string) *Error {
	return &Error{Kind: KindValidation, Message: "The given data was invalid.", Fields: fields}
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Unauthenticated(msg string) *Error {
	return &Error{Kind: KindUnauthenticated, Message: msg}
}

func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func ReferentialConstraint(format string, args ...any) *Error {
	return &Error{Kind: KindReferentialConstraint, Message: fmt.Sprintf(format, args...)}
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// FromDB maps gorm errors onto the taxonomy. what names the missing record,
// e.g. "Task". Errors it does not recognise are wrapped unchanged.
func FromDB(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return NotFound("%s not found", what)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return Conflict("%s already exists", what)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return ReferentialConstraint("%s is referenced by other records", what)
	}
	return fmt.Errorf("%s: %w", what, err)
}

// Handler is the fiber ErrorHandler. Known errors keep their status; anything
// else is logged with the request id and hidden behind a 500.
func Handler(c *fiber.Ctx, err error) error {
	var appErr *Error
	if errors.As(err, &appErr) {
		body := fiber.Map{
			"error":   appErr.Kind,
			"message": appErr.Message,
		}
		if len(appErr.Fields) > 0 {
			body["errors"] = appErr.Fields
		}
		return c.Status(appErr.Status()).JSON(body)
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{
			"message": fe.Message,
		})
	}

	log.Printf("rid=%v method=%s path=%s unexpected error: %v", c.Locals("requestid"), c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": "Unexpected server error",
	})
}

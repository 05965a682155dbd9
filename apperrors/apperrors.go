// Package apperrors holds the typed errors returned by the service layer and
// their mapping onto HTTP status codes.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type NotFoundError struct {
	Resource string
	ID       interface{}
}

func (e *NotFoundError) Error() string {
	if e.ID == nil {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %v not found", e.Resource, e.ID)
}

func NewNotFound(resource string, id interface{}) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

type UnauthenticatedError struct {
	Message string
}

func (e *UnauthenticatedError) Error() string {
	if e.Message == "" {
		return "user not authenticated"
	}
	return e.Message
}

func NewUnauthenticated(message string) *UnauthenticatedError {
	return &UnauthenticatedError{Message: message}
}

// InvalidItemsError lists menu item ids that are missing or unavailable.
type InvalidItemsError struct {
	MenuItemIDs []uint
}

func (e *InvalidItemsError) Error() string {
	ids := make([]string, len(e.MenuItemIDs))
	for i, id := range e.MenuItemIDs {
		ids[i] = fmt.Sprint(id)
	}
	return fmt.Sprintf("menu items not found or unavailable: %s", strings.Join(ids, ", "))
}

func NewInvalidItems(ids []uint) *InvalidItemsError {
	return &InvalidItemsError{MenuItemIDs: ids}
}

type InsufficientStockError struct {
	MenuItemID uint
	Name       string
	Requested  int
	Available  int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d", e.Name, e.Requested, e.Available)
}

func NewInsufficientStock(menuItemID uint, name string, requested, available int) *InsufficientStockError {
	return &InsufficientStockError{
		MenuItemID: menuItemID,
		Name:       name,
		Requested:  requested,
		Available:  available,
	}
}

type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func NewConflict(format string, args ...interface{}) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot change order status from %s to %s", e.From, e.To)
}

func NewInvalidTransition(from, to string) *InvalidTransitionError {
	return &InvalidTransitionError{From: from, To: to}
}

type InternalError struct {
	Message string
	Cause   error
}

func (e *InternalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *InternalError) Unwrap() error {
	return e.Cause
}

func NewInternal(message string, cause error) *InternalError {
	return &InternalError{Message: message, Cause: cause}
}

// IsTyped reports whether err already belongs to this package's taxonomy.
func IsTyped(err error) bool {
	var (
		nf  *NotFoundError
		ua  *UnauthenticatedError
		ii  *InvalidItemsError
		is  *InsufficientStockError
		ve  *ValidationError
		ce  *ConflictError
		ite *InvalidTransitionError
		ie  *InternalError
	)
	return errors.As(err, &nf) || errors.As(err, &ua) || errors.As(err, &ii) ||
		errors.As(err, &is) || errors.As(err, &ve) || errors.As(err, &ce) ||
		errors.As(err, &ite) || errors.As(err, &ie)
}

// Wrap returns err unchanged when it is already typed, otherwise an
// InternalError carrying message.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	if IsTyped(err) {
		return err
	}
	return NewInternal(message, err)
}

// HTTPStatus maps an error onto the status code the API answers with.
func HTTPStatus(err error) int {
	var (
		nf  *NotFoundError
		ua  *UnauthenticatedError
		ii  *InvalidItemsError
		is  *InsufficientStockError
		ve  *ValidationError
		ce  *ConflictError
		ite *InvalidTransitionError
	)
	switch {
	case errors.As(err, &nf):
		return http.StatusNotFound
	case errors.As(err, &ua):
		return http.StatusUnauthorized
	case errors.As(err, &ii), errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.As(err, &is), errors.As(err, &ce), errors.As(err, &ite):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Code is the machine-readable error code sent alongside the message.
func Code(err error) string {
	var (
		nf  *NotFoundError
		ua  *UnauthenticatedError
		ii  *InvalidItemsError
		is  *InsufficientStockError
		ve  *ValidationError
		ce  *ConflictError
		ite *InvalidTransitionError
	)
	switch {
	case errors.As(err, &nf):
		return "NOT_FOUND"
	case errors.As(err, &ua):
		return "UNAUTHENTICATED"
	case errors.As(err, &ii):
		return "INVALID_ITEMS"
	case errors.As(err, &is):
		return "INSUFFICIENT_STOCK"
	case errors.As(err, &ve):
		return "VALIDATION"
	case errors.As(err, &ce):
		return "CONFLICT"
	case errors.As(err, &ite):
		return "INVALID_TRANSITION"
	default:
		return "INTERNAL"
	}
}

// Details returns structured context for errors that carry it.
func Details(err error) interface{} {
	var (
		ii  *InvalidItemsError
		is  *InsufficientStockError
		ite *InvalidTransitionError
	)
	switch {
	case errors.As(err, &ii):
		return map[string]interface{}{"menu_item_ids": ii.MenuItemIDs}
	case errors.As(err, &is):
		return map[string]interface{}{
			"menu_item_id": is.MenuItemID,
			"name":         is.Name,
			"requested":    is.Requested,
			"available":    is.Available,
		}
	case errors.As(err, &ite):
		return map[string]interface{}{"from": ite.From, "to": ite.To}
	}
	return nil
}

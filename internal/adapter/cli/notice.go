package cli

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"slices"

	"github.com/niksmo/storefront/internal/core/domain"
)

type noticeKind uint8

const (
	noticeInfo noticeKind = iota
	noticeSuccess
	noticeWarning
	noticeError
)

const (
	loginFirstMsg   = "Log in first: storefront login"
	unreachableMsg  = "Could not reach the store, try again"
	minQuantityMsg  = "Quantity must be at least 1, use `storefront cart rm` to remove the item"
	missingItemMsg  = "That item is not in your cart"
	categoryMissing = "Category not found"
	productMissing  = "Product not found"

	filtersClearedMsg = "Filters cleared"
)

func (v *view) notice(kind noticeKind, msg string) {
	v.println(v.notes[kind].Render(msg))
}

// report turns an error into what the user sees. Nothing is returned to
// cobra, so failures never change the exit code.
func (v *view) report(err error) {
	const op = "cli.report"

	var ve *domain.ValidationError
	switch {
	case errors.Is(err, context.Canceled):
	case errors.As(err, &ve):
		v.fieldErrors(ve)
	case errors.Is(err, domain.ErrUnauthenticated):
		v.notice(noticeWarning, loginFirstMsg)
	case errors.Is(err, domain.ErrCategoryNotFound):
		v.notFound(categoryMissing)
	case errors.Is(err, domain.ErrProductNotFound):
		v.notFound(productMissing)
	case errors.Is(err, domain.ErrQuantityBelowMinimum):
		v.notice(noticeWarning, minQuantityMsg)
	case errors.Is(err, domain.ErrCartItemNotFound):
		v.notice(noticeWarning, missingItemMsg)
	default:
		slog.Error("request failed", "op", op, "err", err)
		v.notice(noticeError, unreachableMsg)
	}
}

func (v *view) notFound(msg string) {
	v.heading("404")
	v.notice(noticeWarning, msg)
}

func (v *view) fieldErrors(ve *domain.ValidationError) {
	for _, field := range slices.Sorted(maps.Keys(ve.Fields)) {
		for _, msg := range ve.Fields[field] {
			if field == domain.FormField {
				v.notice(noticeError, msg)
				continue
			}
			v.notice(noticeError, field+": "+msg)
		}
	}
}

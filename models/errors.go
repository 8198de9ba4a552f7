package models

import (
	"context"
	"errors"
)

var (
	// ErrTemplateAsset is a missing, corrupt or mismatched template layer.
	ErrTemplateAsset = errors.New("template asset error")
	// ErrDesignDecode is an unparseable or empty design image.
	ErrDesignDecode = errors.New("design decode error")
	// ErrInvalidPrintArea is a print area that resolves to no pixels.
	ErrInvalidPrintArea = errors.New("invalid print area")
	// ErrEncode is a failure serializing the output raster.
	ErrEncode = errors.New("encode error")
	// ErrUpload is a failure persisting a render to object storage.
	ErrUpload = errors.New("upload error")
	// ErrTimeout marks templates still pending when a batch budget expired.
	ErrTimeout = errors.New("timeout")
	// ErrTemplateNotFound is an unknown template id.
	ErrTemplateNotFound = errors.New("template not found")
	// ErrInvalidRequest is a malformed caller request, such as an unknown category filter.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrCatalogUnavailable means the template metadata store could not be read.
	ErrCatalogUnavailable = errors.New("template catalog unavailable")
)

// Failure reasons as reported in batch results.
const (
	ReasonTemplateAsset    = "template_asset"
	ReasonDesignDecode     = "design_decode"
	ReasonInvalidPrintArea = "invalid_print_area"
	ReasonEncode           = "encode"
	ReasonUpload           = "upload"
	ReasonTimeout          = "timeout"
	ReasonNotFound         = "not_found"
	ReasonInvalidRequest   = "invalid_request"
	ReasonInternal         = "internal"
)

// ReasonFor maps an error onto its stable failure reason.
func ReasonFor(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTemplateAsset):
		return ReasonTemplateAsset
	case errors.Is(err, ErrDesignDecode):
		return ReasonDesignDecode
	case errors.Is(err, ErrInvalidPrintArea):
		return ReasonInvalidPrintArea
	case errors.Is(err, ErrEncode):
		return ReasonEncode
	case errors.Is(err, ErrUpload):
		return ReasonUpload
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return ReasonTimeout
	case errors.Is(err, ErrTemplateNotFound):
		return ReasonNotFound
	case errors.Is(err, ErrInvalidRequest):
		return ReasonInvalidRequest
	default:
		return ReasonInternal
	}
}

// IsDeterministic reports whether retrying err with the same inputs cannot succeed.
func IsDeterministic(err error) bool {
	return errors.Is(err, ErrInvalidPrintArea) ||
		errors.Is(err, ErrDesignDecode) ||
		errors.Is(err, ErrTemplateNotFound)
}

// NewFailure builds a RenderFailure from an error.
func NewFailure(templateID string, err error) *RenderFailure {
	return &RenderFailure{
		TemplateID: templateID,
		Reason:     ReasonFor(err),
		Message:    err.Error(),
	}
}

package render

import "errors"

// Sentinel errors for render failures.
var (
	ErrBrowserLaunch = errors.New("failed to launch browser")
	ErrPageLoad      = errors.New("failed to load page")
	ErrPDFGeneration = errors.New("PDF generation failed")
	ErrRenderTimeout = errors.New("render deadline exceeded")
	ErrUnknownEngine = errors.New("unknown render engine")
)

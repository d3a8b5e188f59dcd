package engine

import "errors"

// Common backend errors
var (
	ErrBrowserNotFound = errors.New("chrome browser not found")
	ErrNoElement       = errors.New("no element matches selector")
	ErrPageClosed      = errors.New("page is closed")
)

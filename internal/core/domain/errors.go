package domain

import "errors"

var ErrInvalidTransition = errors.New("invalid transition")
var ErrMissingField = errors.New("missing required field")
var ErrNotificationNotFound = errors.New("notification not found")
var ErrNotFound = errors.New("not found")
var ErrCompanyNotVerified = errors.New("company is not fully verified")
var ErrForbidden = errors.New("access forbidden")

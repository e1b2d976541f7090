package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrNoNode             = errors.New("no matching node")
	ErrUnsupportedLocator = errors.New("locator strategy not supported")
	ErrInvalidURL         = errors.New("not a maps place url")
)

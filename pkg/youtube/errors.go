package youtube

import "errors"

var (
	// ErrInvalidInput marks a reference that is not a usable video,
	// playlist, or search input for the requested operation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnavailable marks content the platform refuses to serve.
	ErrUnavailable = errors.New("content unavailable")

	// ErrCaptcha is returned when the platform answers with its
	// unusual-traffic interstitial instead of the page.
	ErrCaptcha = errors.New("captcha page returned")

	// ErrNoDecipherer is returned when formats need deciphering but no
	// hook is configured.
	ErrNoDecipherer = errors.New("no decipher function configured")
)

// UnavailableError carries the upstream reason text.
type UnavailableError struct {
	Reason string
}

func (e *UnavailableError) Error() string {
	if e.Reason == "" {
		return "content unavailable"
	}
	return "content unavailable: " + e.Reason
}

func (e *UnavailableError) Is(target error) bool {
	return target == ErrUnavailable
}

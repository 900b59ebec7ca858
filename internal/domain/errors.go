package domain

import "errors"

var (
	ErrCourseNotFound     = errors.New("course not found")
	ErrEnrollmentNotFound = errors.New("enrollment not found")
	ErrAlreadyEnrolled    = errors.New("already enrolled in this course")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrEmailOtherProvider = errors.New("email registered with another sign-in method")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidInput       = errors.New("invalid input")
)

// userMessages are the localized texts shown for business-rule failures.
var userMessages = map[error]string{
	ErrCourseNotFound:     "Курс не знайдено",
	ErrEnrollmentNotFound: "Запис на курс не знайдено",
	ErrAlreadyEnrolled:    "Ви вже записані на цей курс",
	ErrUserNotFound:       "Користувача з такою електронною поштою не знайдено",
	ErrEmailTaken:         "Користувач з такою електронною поштою вже існує",
	ErrEmailOtherProvider: "Ця електронна пошта вже використовується через інший метод автентифікації",
	ErrUsernameTaken:      "Цей логін вже використовується іншим користувачем",
	ErrInvalidCredentials: "Невірні облікові дані. Перевірте email та пароль",
	ErrForbidden:          "Доступ заборонено",
	ErrInvalidInput:       "Невірні дані запиту",
}

// OpError wraps a failure of a public operation with a localized, user-facing prefix.
type OpError struct {
	Message string
	Err     error
}

func (e *OpError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + UserMessage(e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// Wrap returns nil for a nil err, otherwise an *OpError. An err that is
// already an *OpError is returned unchanged so messages are not stacked.
func Wrap(message string, err error) error {
	if err == nil {
		return nil
	}
	var op *OpError
	if errors.As(err, &op) {
		return err
	}
	return &OpError{Message: message, Err: err}
}

// UserMessage returns the localized text for known sentinels and err.Error() otherwise.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var op *OpError
	if errors.As(err, &op) {
		return op.Error()
	}
	for sentinel, msg := range userMessages {
		if errors.Is(err, sentinel) {
			return msg
		}
	}
	return err.Error()
}

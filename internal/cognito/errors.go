package cognito

import "errors"

var (
	ErrUserAlreadyExists     = errors.New("user already exists")
	ErrUserNotFound          = errors.New("user not found")
	ErrUserNotConfirmed      = errors.New("user not confirmed")
	ErrInvalidPassword       = errors.New("invalid password")
	ErrInvalidCode           = errors.New("invalid code")
	ErrCodeExpired           = errors.New("code expired")
	ErrTooManyRequests       = errors.New("too many requests")
	ErrNotAuthorized         = errors.New("not authorized")
	ErrLimitExceeded         = errors.New("limit exceeded")
	ErrPasswordResetRequired = errors.New("password reset required")
	ErrInvalidParameter      = errors.New("invalid parameter")
)

var awsErrorCodes = map[string]error{
	"UsernameExistsException":        ErrUserAlreadyExists,
	"UserNotFoundException":          ErrUserNotFound,
	"UserNotConfirmedException":      ErrUserNotConfirmed,
	"InvalidPasswordException":       ErrInvalidPassword,
	"CodeMismatchException":          ErrInvalidCode,
	"ExpiredCodeException":           ErrCodeExpired,
	"TooManyRequestsException":       ErrTooManyRequests,
	"NotAuthorizedException":         ErrNotAuthorized,
	"LimitExceededException":         ErrLimitExceeded,
	"PasswordResetRequiredException": ErrPasswordResetRequired,
	"InvalidParameterException":      ErrInvalidParameter,
}

// ErrorInfo is the display form of a Cognito failure.
type ErrorInfo struct {
	Code    string
	Message string
}

var errorInfos = []struct {
	err  error
	info ErrorInfo
}{
	{ErrUserAlreadyExists, ErrorInfo{"USER_ALREADY_EXISTS", "An account with this email already exists."}},
	{ErrUserNotFound, ErrorInfo{"USER_NOT_FOUND", "No account found for this email."}},
	{ErrUserNotConfirmed, ErrorInfo{"USER_NOT_CONFIRMED", "Please confirm your email before logging in."}},
	{ErrInvalidPassword, ErrorInfo{"INVALID_PASSWORD", "Password does not meet the requirements."}},
	{ErrInvalidCode, ErrorInfo{"INVALID_CODE", "The confirmation code is incorrect."}},
	{ErrCodeExpired, ErrorInfo{"CODE_EXPIRED", "The confirmation code has expired."}},
	{ErrTooManyRequests, ErrorInfo{"TOO_MANY_REQUESTS", "Too many attempts. Try again later."}},
	{ErrNotAuthorized, ErrorInfo{"NOT_AUTHORIZED", "Incorrect email or password."}},
	{ErrLimitExceeded, ErrorInfo{"LIMIT_EXCEEDED", "Attempt limit exceeded. Try again later."}},
	{ErrPasswordResetRequired, ErrorInfo{"PASSWORD_RESET_REQUIRED", "A password reset is required."}},
	{ErrInvalidParameter, ErrorInfo{"INVALID_PARAMETER", "The request was rejected as invalid."}},
}

// LookupError returns the display info of the first sentinel err wraps.
func LookupError(err error) (ErrorInfo, bool) {
	for _, e := range errorInfos {
		if errors.Is(err, e.err) {
			return e.info, true
		}
	}
	return ErrorInfo{}, false
}

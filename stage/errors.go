package stage

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	BOX_ERR_INVALID_P2S_ADDRESS ErrorCode = "BOX_ERR_INVALID_P2S_ADDRESS"
	BOX_ERR_INVALID_ERGS_VALUE  ErrorCode = "BOX_ERR_INVALID_ERGS_VALUE"
	BOX_ERR_INVALID_TOKENS      ErrorCode = "BOX_ERR_INVALID_TOKENS"
	BOX_ERR_INVALID_REGISTERS   ErrorCode = "BOX_ERR_INVALID_REGISTERS"
	BOX_ERR_OTHER               ErrorCode = "BOX_ERR_OTHER"
)

// VerificationError is the failure value of box verification. The address
// mismatch variant carries no message; all others carry the reason the
// reporting rule supplied.
type VerificationError struct {
	Code ErrorCode
	Msg  string
}

func (e *VerificationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Msg == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func boxerr(code ErrorCode, msg string) error {
	return &VerificationError{Code: code, Msg: msg}
}

// InvalidP2SAddress reports that a box does not sit at the expected script
// address.
func InvalidP2SAddress() error {
	return boxerr(BOX_ERR_INVALID_P2S_ADDRESS, "")
}

// InvalidErgsValue reports a nanoErg value outside the stage's rules.
func InvalidErgsValue(reason string) error {
	return boxerr(BOX_ERR_INVALID_ERGS_VALUE, reason)
}

// InvalidTokens reports token holdings outside the stage's rules.
func InvalidTokens(reason string) error {
	return boxerr(BOX_ERR_INVALID_TOKENS, reason)
}

// InvalidRegisters reports register contents outside the stage's rules.
func InvalidRegisters(reason string) error {
	return boxerr(BOX_ERR_INVALID_REGISTERS, reason)
}

// OtherError reports a failure outside the dedicated categories.
func OtherError(reason string) error {
	return boxerr(BOX_ERR_OTHER, reason)
}

// CodeOf extracts the verification error code, if err carries one.
func CodeOf(err error) (ErrorCode, bool) {
	var v *VerificationError
	if errors.As(err, &v) && v != nil {
		return v.Code, true
	}
	return "", false
}

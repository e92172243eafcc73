package check

import "github.com/pkg/errors"

// check returns nil if cond holds, otherwise an error built from msgAndArgs (if any
// were given) or from defaultFormat/defaultArgs as a fallback.
func check(cond bool, msgAndArgs []interface{}, defaultFormat string, defaultArgs ...interface{}) error {
	if cond {
		return nil
	}
	if len(msgAndArgs) > 0 {
		return errors.New(messageFromMsgAndArgs(true, msgAndArgs...))
	}
	return errors.Errorf(defaultFormat, defaultArgs...)
}

// True returns an error unless cond is true.
func True(cond bool, msgAndArgs ...interface{}) error {
	return check(cond, msgAndArgs, "check failed")
}

// False returns an error unless cond is false.
func False(cond bool, msgAndArgs ...interface{}) error {
	return check(!cond, msgAndArgs, "check failed")
}

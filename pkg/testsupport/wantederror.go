package testsupport

import (
	"errors"
	"fmt"
)

type WantedError interface {
	CompareErr(error) error
}

type NilError struct{}

func (NilError) CompareErr(other error) error {
	if other == nil {
		return nil
	}
	return fmt.Errorf("wanted `nil`; found `%T`: %v", other, other)
}

type WantedErrFunc func(error) error

func (wef WantedErrFunc) CompareErr(other error) error {
	return wef(other)
}

// ErrorIs wants an error matching `target` per `errors.Is`.
func ErrorIs(target error) WantedError {
	return WantedErrFunc(func(other error) error {
		if errors.Is(other, target) {
			return nil
		}
		return fmt.Errorf("wanted `%v`; found `%v`", target, other)
	})
}

// AnyError wants a non-nil error.
var AnyError WantedError = WantedErrFunc(func(other error) error {
	if other == nil {
		return errors.New("wanted error; found `nil`")
	}
	return nil
})

package verification

import (
	"fmt"

	"github.com/dmitrijs2005/propkeeper/internal/common"
)

// InvalidCodeError reports a wrong code and how many attempts are left.
// It matches common.ErrInvalidCode with errors.Is.
type InvalidCodeError struct {
	Remaining int
}

func (e *InvalidCodeError) Error() string {
	return fmt.Sprintf("%s: %d attempt(s) remaining", common.ErrInvalidCode, e.Remaining)
}

func (e *InvalidCodeError) Unwrap() error {
	return common.ErrInvalidCode
}

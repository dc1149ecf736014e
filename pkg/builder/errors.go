package builder

import (
	"errors"
	"fmt"
)

// ErrFieldNotSet is matched by every FieldNotSetError.
var ErrFieldNotSet = errors.New("field not set")

// FieldNotSetError reports the first slot left unset when a builder was
// finalized. The builder is unchanged and may be completed and finalized
// again.
type FieldNotSetError struct {
	Record string
	Field  string
}

func (e *FieldNotSetError) Error() string {
	return fmt.Sprintf("%s was not set", e.Field)
}

// Is lets errors.Is match against ErrFieldNotSet.
func (e *FieldNotSetError) Is(target error) bool {
	return target == ErrFieldNotSet
}

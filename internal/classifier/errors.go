package classifier

import "fmt"

// MinTrainingExamples is the smallest labeled corpus Train accepts.
const MinTrainingExamples = 50

// InsufficientDataError is returned when a training corpus is too small.
type InsufficientDataError struct {
	Have int
	Need int
}

// Error implements the error interface.
func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient training data: have %d examples, need at least %d", e.Have, e.Need)
}

package lazy

import "fmt"

// LoadError reports a failed underlying load. The loader is left Empty.
type LoadError struct {
	Name  string // Loader name
	Cause error  // Error returned (or panic raised) by the load function
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Name, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *LoadError) Unwrap() error {
	return e.Cause
}

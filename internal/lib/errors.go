package lib

// WrapError wraps child error with parent error, so both can be matched with errors.Is
func WrapError(parent error, child error) error {
	if child == nil {
		return parent
	}
	return &wrappedError{parent: parent, child: child}
}

type wrappedError struct {
	parent error
	child  error
}

func (e *wrappedError) Error() string {
	return e.parent.Error() + ": " + e.child.Error()
}

func (e *wrappedError) Unwrap() []error {
	return []error{e.parent, e.child}
}

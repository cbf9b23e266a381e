package task

import "errors"

var (
	// ErrNoFileStem means the path does not end in a file name.
	ErrNoFileStem = errors.New("artifact path has no file stem")

	// ErrNoParent means the path has no parent directory with a name to inspect.
	ErrNoParent = errors.New("artifact path has no named parent directory")
)

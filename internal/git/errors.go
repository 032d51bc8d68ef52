package git

import "errors"

// ErrNotFound reports that a revision or object named by a request does
// not exist. Every other error returned by this package means the
// repository or its configuration is inconsistent.
var ErrNotFound = errors.New("not found")

package variables

import "fmt"

// IncludeNotFoundError reports an include_vars path that, after template
// substitution, does not point at an existing file.
type IncludeNotFoundError struct {
	Path string
}

func (e *IncludeNotFoundError) Error() string {
	return fmt.Sprintf("include file does not exist: %s", e.Path)
}

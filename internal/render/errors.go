package render

import "fmt"

// UndefinedVariableError reports a template expression that produced no value
// because a referenced variable was absent and not guarded by a default.
type UndefinedVariableError struct {
	Key  string // the missing variable, when it could be named
	Name string // template name or path being rendered
	Line string // the offending output line, for context
}

func (e *UndefinedVariableError) Error() string {
	what := "undefined variable"
	if e.Key != "" {
		what = fmt.Sprintf("undefined variable %q", e.Key)
	}
	if e.Line != "" {
		return fmt.Sprintf("%s in %s near %q", what, e.Name, e.Line)
	}
	return fmt.Sprintf("%s in %s", what, e.Name)
}

// MandatoryValueError is raised by the mandatory filter when its input is
// undefined. The message is supplied by the template author.
type MandatoryValueError struct {
	Message string
}

func (e *MandatoryValueError) Error() string {
	if e.Message == "" {
		return "mandatory variable is undefined"
	}
	return e.Message
}

// TemplateError wraps a template parse or execution failure.
type TemplateError struct {
	Name string
	Err  error
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("template error in %s: %v", e.Name, e.Err)
}

func (e *TemplateError) Unwrap() error { return e.Err }

// DestinationExistsError reports a destination file that already exists and
// would not be overwritten without the force flag.
type DestinationExistsError struct {
	Path string
}

func (e *DestinationExistsError) Error() string {
	return fmt.Sprintf("destination already exists, use '-f' to overwrite: %s", e.Path)
}

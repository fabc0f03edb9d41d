package config

import (
	_ "embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaSource string

func loadSchema() (*cue.Context, cue.Value, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := v.Err(); err != nil {
		return nil, cue.Value{}, err
	}
	def := v.LookupPath(cue.ParsePath("#Config"))
	return ctx, def, def.Err()
}

// Validate checks cfg against the embedded schema.
func Validate(cfg Config) error {
	ctx, def, err := loadSchema()
	if err != nil {
		return &Error{Message: "load schema", Err: err}
	}

	v := def.Unify(ctx.Encode(cfg))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return formatCUEError(err)
	}
	return nil
}

// formatCUEError turns the first CUE error into an *Error naming the field.
// The CUE message already describes the violation, so it is not kept as Err.
func formatCUEError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &Error{Message: "schema validation", Err: err}
	}

	first := errs[0]
	path := strings.Join(first.Path(), ".")
	format, args := first.Msg()
	return &Error{
		Field:   strings.TrimPrefix(path, "#Config."),
		Message: strings.TrimSpace(fmt.Sprintf(format, args...)),
	}
}

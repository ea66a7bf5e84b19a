package cli

import (
	"reflect"

	"github.com/alecthomas/kong"

	"github.com/frobware/go-tracectl"
)

// contextMapper creates a Kong mapper for tracectl.Context.
func contextMapper() kong.MapperFunc {
	return func(ctx *kong.DecodeContext, target reflect.Value) error {
		var s string
		if err := ctx.Scan.PopValueInto("type", &s); err != nil {
			return err
		}
		c, err := tracectl.ParseContext(s)
		if err != nil {
			return err
		}
		target.Set(reflect.ValueOf(c))
		return nil
	}
}

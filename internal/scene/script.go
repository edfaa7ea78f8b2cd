package scene

import (
	"context"
	"fmt"
	"os"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	"github.com/san-kum/xpbd/internal/vec"
	"github.com/san-kum/xpbd/internal/xpbd"
)

// RunScriptFile runs a tengo scene script from disk against s.
func RunScriptFile(ctx context.Context, s *xpbd.Scene, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := RunScript(ctx, s, src); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// RunScript runs a tengo scene script against s. Scripts see these globals:
//
//	particle(x, y [, mass [, radius]])          -> id
//	pinned(x, y [, radius])                     -> id
//	link(a, b [, stiffness])
//	box(x, y [, size [, stiffness]])            -> [ids]
//	rope(x, y, count [, spacing [, stiffness]]) -> [ids]
//	wheel(x, y [, radius [, segments [, stiffness]]]) -> [ids], hub last
//	balloon(x, y [, radius [, segments [, pressure]]]) -> [ids]
//	polygon(x, y, rotation, [[x, y], ...])
//	volume([ids] [, stiffness [, pressure]])
//	width, height
func RunScript(ctx context.Context, s *xpbd.Scene, src []byte) error {
	script := tengo.NewScript(src)
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	for name, fn := range bindings(s) {
		if err := script.Add(name, fn); err != nil {
			return err
		}
	}
	var w, h float64
	if s.Bounds != nil {
		w, h = s.Bounds.Width, s.Bounds.Height
	}
	if err := script.Add("width", w); err != nil {
		return err
	}
	if err := script.Add("height", h); err != nil {
		return err
	}

	_, err := script.RunContext(ctx)
	return err
}

func bindings(s *xpbd.Scene) map[string]*tengo.UserFunction {
	fns := map[string]tengo.CallableFunc{
		"particle": func(args ...tengo.Object) (tengo.Object, error) {
			a := argReader{name: "particle", args: args}
			x, y := a.float(0), a.float(1)
			mass := a.optFloat(2, s.Params().Mass)
			radius := a.optFloat(3, 0)
			if err := a.check(2, 4); err != nil {
				return nil, err
			}
			return idObject(s.AddParticle(vec.New(x, y), mass, radius)), nil
		},
		"pinned": func(args ...tengo.Object) (tengo.Object, error) {
			a := argReader{name: "pinned", args: args}
			x, y := a.float(0), a.float(1)
			radius := a.optFloat(2, 0)
			if err := a.check(2, 3); err != nil {
				return nil, err
			}
			id := s.AddParticle(vec.New(x, y), 0, radius)
			s.Particles[id].Color = PinnedColor
			return idObject(id), nil
		},
		"link": func(args ...tengo.Object) (tengo.Object, error) {
			a := argReader{name: "link", args: args}
			pa, pb := a.id(0), a.id(1)
			stiffness := a.optFloat(2, 0)
			if err := a.check(2, 3); err != nil {
				return nil, err
			}
			return tengo.UndefinedValue, s.AddDistance(pa, pb, stiffness)
		},
		"box": func(args ...tengo.Object) (tengo.Object, error) {
			a := argReader{name: "box", args: args}
			x, y := a.float(0), a.float(1)
			size, stiffness := a.optFloat(2, 50), a.optFloat(3, 0)
			if err := a.check(2, 4); err != nil {
				return nil, err
			}
			return idsObject(Box2x2(s, x, y, size, stiffness))
		},
		"rope": func(args ...tengo.Object) (tengo.Object, error) {
			a := argReader{name: "rope", args: args}
			x, y, count := a.float(0), a.float(1), a.integer(2)
			spacing, stiffness := a.optFloat(3, 30), a.optFloat(4, 0)
			if err := a.check(3, 5); err != nil {
				return nil, err
			}
			return idsObject(Rope(s, x, y, count, spacing, stiffness))
		},
		"wheel": func(args ...tengo.Object) (tengo.Object, error) {
			a := argReader{name: "wheel", args: args}
			x, y := a.float(0), a.float(1)
			radius, segments := a.optFloat(2, 50), a.optInteger(3, 8)
			stiffness := a.optFloat(4, WheelStiffness)
			if err := a.check(2, 5); err != nil {
				return nil, err
			}
			return idsObject(Wheel(s, x, y, radius, segments, stiffness))
		},
		"balloon": func(args ...tengo.Object) (tengo.Object, error) {
			a := argReader{name: "balloon", args: args}
			x, y := a.float(0), a.float(1)
			radius, segments := a.optFloat(2, 50), a.optInteger(3, 12)
			pressure := a.optFloat(4, 1)
			if err := a.check(2, 5); err != nil {
				return nil, err
			}
			return idsObject(Balloon(s, x, y, radius, segments, 0, pressure))
		},
		"polygon": func(args ...tengo.Object) (tengo.Object, error) {
			a := argReader{name: "polygon", args: args}
			x, y, rot := a.float(0), a.float(1), a.float(2)
			pts := a.points(3)
			if err := a.check(4, 4); err != nil {
				return nil, err
			}
			_, err := s.AddPolygon(vec.New(x, y), rot, pts)
			return tengo.UndefinedValue, err
		},
		"volume": func(args ...tengo.Object) (tengo.Object, error) {
			a := argReader{name: "volume", args: args}
			ring := a.ids(0)
			stiffness, pressure := a.optFloat(1, 0), a.optFloat(2, 1)
			if err := a.check(1, 3); err != nil {
				return nil, err
			}
			return tengo.UndefinedValue, s.AddVolume(ring, stiffness, pressure)
		},
	}

	out := make(map[string]*tengo.UserFunction, len(fns))
	for name, fn := range fns {
		out[name] = &tengo.UserFunction{Name: name, Value: fn}
	}
	return out
}

func idObject(id xpbd.ParticleID) tengo.Object {
	return &tengo.Int{Value: int64(id)}
}

func idsObject(ids []xpbd.ParticleID, err error) (tengo.Object, error) {
	if err != nil {
		return nil, err
	}
	objs := make([]tengo.Object, len(ids))
	for i, id := range ids {
		objs[i] = idObject(id)
	}
	return &tengo.Array{Value: objs}, nil
}

// argReader decodes positional script arguments and keeps the first error.
type argReader struct {
	name string
	args []tengo.Object
	err  error
}

func (a *argReader) fail(i int, expected string) {
	if a.err == nil {
		a.err = tengo.ErrInvalidArgumentType{
			Name:     fmt.Sprintf("%s arg %d", a.name, i+1),
			Expected: expected,
			Found:    a.args[i].TypeName(),
		}
	}
}

func (a *argReader) float(i int) float64 {
	if i >= len(a.args) {
		return 0
	}
	v, ok := tengo.ToFloat64(a.args[i])
	if !ok {
		a.fail(i, "float")
	}
	return v
}

func (a *argReader) optFloat(i int, def float64) float64 {
	if i >= len(a.args) {
		return def
	}
	return a.float(i)
}

func (a *argReader) integer(i int) int {
	if i >= len(a.args) {
		return 0
	}
	v, ok := tengo.ToInt(a.args[i])
	if !ok {
		a.fail(i, "int")
	}
	return v
}

func (a *argReader) optInteger(i int, def int) int {
	if i >= len(a.args) {
		return def
	}
	return a.integer(i)
}

func (a *argReader) id(i int) xpbd.ParticleID {
	return xpbd.ParticleID(a.integer(i))
}

func arrayValues(o tengo.Object) ([]tengo.Object, bool) {
	switch v := o.(type) {
	case *tengo.Array:
		return v.Value, true
	case *tengo.ImmutableArray:
		return v.Value, true
	}
	return nil, false
}

func (a *argReader) ids(i int) []xpbd.ParticleID {
	if i >= len(a.args) {
		return nil
	}
	vals, ok := arrayValues(a.args[i])
	if !ok {
		a.fail(i, "array")
		return nil
	}
	out := make([]xpbd.ParticleID, len(vals))
	for j, v := range vals {
		n, ok := tengo.ToInt(v)
		if !ok {
			a.fail(i, "array of ints")
			return nil
		}
		out[j] = xpbd.ParticleID(n)
	}
	return out
}

func (a *argReader) points(i int) []vec.Vec2 {
	if i >= len(a.args) {
		return nil
	}
	vals, ok := arrayValues(a.args[i])
	if !ok {
		a.fail(i, "array")
		return nil
	}
	out := make([]vec.Vec2, 0, len(vals))
	for _, v := range vals {
		xy, ok := arrayValues(v)
		if !ok || len(xy) != 2 {
			a.fail(i, "array of [x, y]")
			return nil
		}
		x, okx := tengo.ToFloat64(xy[0])
		y, oky := tengo.ToFloat64(xy[1])
		if !okx || !oky {
			a.fail(i, "array of [x, y]")
			return nil
		}
		out = append(out, vec.New(x, y))
	}
	return out
}

// check validates the argument count and reports any decode error.
func (a *argReader) check(lo, hi int) error {
	if len(a.args) < lo || len(a.args) > hi {
		return tengo.ErrWrongNumArguments
	}
	return a.err
}

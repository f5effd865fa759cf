package formula

import (
	"fmt"
	"math"
)

type node interface {
	eval(vals map[string]float64) (float64, error)
}

type num float64

func (n num) eval(map[string]float64) (float64, error) { return float64(n), nil }

type variable string

func (v variable) eval(vals map[string]float64) (float64, error) { return vals[string(v)], nil }

type neg struct{ x node }

func (n neg) eval(vals map[string]float64) (float64, error) {
	v, err := n.x.eval(vals)
	return -v, err
}

type binary struct {
	op   byte
	l, r node
}

func (b binary) eval(vals map[string]float64) (float64, error) {
	l, err := b.l.eval(vals)
	if err != nil {
		return 0, err
	}
	r, err := b.r.eval(vals)
	if err != nil {
		return 0, err
	}

	switch b.op {
	case '+':
		return l + r, nil
	case '-':
		return l - r, nil
	case '*':
		return l * r, nil
	case '/':
		if r == 0 {
			return 0, fmt.Errorf("%w: division by zero", ErrEvaluation)
		}
		return l / r, nil
	case '%':
		if r == 0 {
			return 0, fmt.Errorf("%w: modulo by zero", ErrEvaluation)
		}
		return math.Mod(l, r), nil
	case '^':
		return math.Pow(l, r), nil
	}
	return 0, fmt.Errorf("%w: unknown operator %q", ErrEvaluation, b.op)
}

type call struct {
	name string
	fn   func(args []float64) (float64, error)
	args []node
}

func (c call) eval(vals map[string]float64) (float64, error) {
	args := make([]float64, len(c.args))
	for i, a := range c.args {
		v, err := a.eval(vals)
		if err != nil {
			return 0, err
		}
		args[i] = v
	}
	v, err := c.fn(args)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", c.name, err)
	}
	return v, nil
}

type function struct {
	arity int
	impl  func(args []float64) (float64, error)
}

func unary(f func(float64) float64) function {
	return function{arity: 1, impl: func(a []float64) (float64, error) { return f(a[0]), nil }}
}

func logarithm(f func(float64) float64) function {
	return function{arity: 1, impl: func(a []float64) (float64, error) {
		if a[0] <= 0 {
			return 0, fmt.Errorf("%w: logarithm of %v", ErrEvaluation, a[0])
		}
		return f(a[0]), nil
	}}
}

var functions = map[string]function{
	"pow":   {arity: 2, impl: func(a []float64) (float64, error) { return math.Pow(a[0], a[1]), nil }},
	"min":   {arity: 2, impl: func(a []float64) (float64, error) { return math.Min(a[0], a[1]), nil }},
	"max":   {arity: 2, impl: func(a []float64) (float64, error) { return math.Max(a[0], a[1]), nil }},
	"abs":   unary(math.Abs),
	"floor": unary(math.Floor),
	"ceil":  unary(math.Ceil),
	"round": unary(math.Round),
	"exp":   unary(math.Exp),
	"sqrt": {arity: 1, impl: func(a []float64) (float64, error) {
		if a[0] < 0 {
			return 0, fmt.Errorf("%w: square root of %v", ErrEvaluation, a[0])
		}
		return math.Sqrt(a[0]), nil
	}},
	"log":   logarithm(math.Log),
	"log10": logarithm(math.Log10),
}

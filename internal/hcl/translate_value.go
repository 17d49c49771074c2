// This file resolves the attributes that accept more than one shape
// (selectors and scattering types) from their cty values.

package hcl

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/dmsweep/internal/config"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// exprValue evaluates an expression against the environment context. An absent optional attribute
// arrives as a static null expression.
func exprValue(expr hcl.Expression) (cty.Value, error) {
	if expr == nil {
		return cty.NullVal(cty.DynamicPseudoType), nil
	}
	val, diags := expr.Value(evalContext())
	if diags.HasErrors() {
		return cty.NilVal, fmt.Errorf("%w: %w", config.ErrConfig, diags)
	}
	return val, nil
}

// selectorFromExpr accepts null or "all" (everything), a number (one index),
// a list of numbers (indices) or a "start:stop[:step]" string.
func selectorFromExpr(expr hcl.Expression) (config.Selector, error) {
	val, err := exprValue(expr)
	if err != nil {
		return config.Selector{}, err
	}
	if val.IsNull() {
		return config.All(), nil
	}
	if !val.IsWhollyKnown() {
		return config.Selector{}, fmt.Errorf("%w: selector must be a literal", config.ErrConfig)
	}

	ty := val.Type()
	switch {
	case ty == cty.String:
		s := strings.TrimSpace(val.AsString())
		if s == "all" || s == ":" {
			return config.All(), nil
		}
		return config.ParseSlice(s)

	case ty == cty.Number:
		var i int
		if err := gocty.FromCtyValue(val, &i); err != nil {
			return config.Selector{}, fmt.Errorf("%w: index must be an integer: %w", config.ErrConfig, err)
		}
		return config.Indices(i), nil

	case ty.IsTupleType() || ty.IsListType():
		listVal, err := convert.Convert(val, cty.List(cty.Number))
		if err != nil {
			return config.Selector{}, fmt.Errorf("%w: indices must be numbers: %w", config.ErrConfig, err)
		}
		var idx []int
		if err := gocty.FromCtyValue(listVal, &idx); err != nil {
			return config.Selector{}, fmt.Errorf("%w: indices must be integers: %w", config.ErrConfig, err)
		}
		return config.Indices(idx...), nil
	}
	return config.Selector{}, fmt.Errorf("%w: unrecognized selector of type %s", config.ErrConfig, ty.FriendlyName())
}

// scatteringFromExpr accepts a string or a list of strings; null keeps def.
func scatteringFromExpr(expr hcl.Expression, def config.ScatteringSelector) (config.ScatteringSelector, error) {
	val, err := exprValue(expr)
	if err != nil {
		return def, err
	}
	if val.IsNull() {
		return def, nil
	}

	ty := val.Type()
	if ty == cty.String {
		return config.OneScatteringType(val.AsString()), nil
	}
	if ty.IsTupleType() || ty.IsListType() {
		listVal, err := convert.Convert(val, cty.List(cty.String))
		if err != nil {
			return def, fmt.Errorf("%w: scattering types must be strings: %w", config.ErrConfig, err)
		}
		var types []string
		if err := gocty.FromCtyValue(listVal, &types); err != nil {
			return def, fmt.Errorf("%w: %w", config.ErrConfig, err)
		}
		return config.ScatteringTypes(types...), nil
	}
	return def, fmt.Errorf("%w: expected a string or a list of strings, got %s", config.ErrConfig, ty.FriendlyName())
}

package project

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

//go:embed default_recipe.hcl
var defaultRecipe []byte

// DefaultRecipeName is the file name reported in diagnostics of the
// built-in recipe.
const DefaultRecipeName = "default_recipe.hcl"

// Vars are the values a recipe can reference.
type Vars struct {
	Project string
	Root    string
	Output  string
	Make    bool
	GIF     bool
	Open    bool
}

func (v Vars) evalContext() *hcl.EvalContext {
	return &hcl.EvalContext{Variables: map[string]cty.Value{
		"project": cty.StringVal(v.Project),
		"root":    cty.StringVal(v.Root),
		"output":  cty.StringVal(v.Output),
		"make":    cty.BoolVal(v.Make),
		"gif":     cty.BoolVal(v.GIF),
		"open":    cty.BoolVal(v.Open),
	}}
}

// Step is one resolved recipe entry.
type Step struct {
	Name        string
	Description string
	Command     string
	Enabled     bool
	// RequireGlob, when set, is matched relative to the project root.
	RequireGlob string
}

type recipeFile struct {
	Steps []*stepBlock `hcl:"step,block"`
}

type stepBlock struct {
	Name        string         `hcl:"name,label"`
	Description string         `hcl:"description,optional"`
	Command     hcl.Expression `hcl:"command"`
	Enabled     hcl.Expression `hcl:"enabled,optional"`
	RequireGlob hcl.Expression `hcl:"require_glob,optional"`
}

// LoadRecipe reads the recipe at path, or the built-in one when path is
// empty, and resolves it against vars.
func LoadRecipe(path string, vars Vars) ([]Step, error) {
	if path == "" {
		return ParseRecipe(defaultRecipe, DefaultRecipeName, vars)
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read recipe: %w", err)
	}
	return ParseRecipe(src, filepath.Base(path), vars)
}

// ParseRecipe decodes HCL source and evaluates every step attribute.
func ParseRecipe(src []byte, filename string, vars Vars) ([]Step, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse recipe %s: %w", filename, diags)
	}

	var parsed recipeFile
	if diags := gohcl.DecodeBody(file.Body, nil, &parsed); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode recipe %s: %w", filename, diags)
	}

	ctx := vars.evalContext()
	steps := make([]Step, 0, len(parsed.Steps))
	seen := make(map[string]bool, len(parsed.Steps))
	for _, b := range parsed.Steps {
		if seen[b.Name] {
			return nil, fmt.Errorf("recipe %s: duplicate step '%s'", filename, b.Name)
		}
		seen[b.Name] = true

		step := Step{Name: b.Name, Description: b.Description, Enabled: true}
		var err error
		if step.Command, err = evalString(b.Command, ctx); err != nil {
			return nil, fmt.Errorf("recipe %s: step '%s' command: %w", filename, b.Name, err)
		}
		if step.Command == "" {
			return nil, fmt.Errorf("recipe %s: step '%s' has an empty command", filename, b.Name)
		}
		if step.RequireGlob, err = evalString(b.RequireGlob, ctx); err != nil {
			return nil, fmt.Errorf("recipe %s: step '%s' require_glob: %w", filename, b.Name, err)
		}
		if step.Enabled, err = evalBool(b.Enabled, ctx, true); err != nil {
			return nil, fmt.Errorf("recipe %s: step '%s' enabled: %w", filename, b.Name, err)
		}
		steps = append(steps, step)
	}
	return steps, nil
}

// evalString returns "" for an absent optional attribute.
func evalString(expr hcl.Expression, ctx *hcl.EvalContext) (string, error) {
	val, err := evalAs(expr, ctx, cty.String)
	if err != nil || val.IsNull() {
		return "", err
	}
	var s string
	if err := gocty.FromCtyValue(val, &s); err != nil {
		return "", err
	}
	return s, nil
}

func evalBool(expr hcl.Expression, ctx *hcl.EvalContext, def bool) (bool, error) {
	val, err := evalAs(expr, ctx, cty.Bool)
	if err != nil {
		return false, err
	}
	if val.IsNull() {
		return def, nil
	}
	var b bool
	if err := gocty.FromCtyValue(val, &b); err != nil {
		return false, err
	}
	return b, nil
}

func evalAs(expr hcl.Expression, ctx *hcl.EvalContext, ty cty.Type) (cty.Value, error) {
	if expr == nil {
		return cty.NullVal(ty), nil
	}
	val, diags := expr.Value(ctx)
	if diags.HasErrors() {
		return cty.NilVal, diags
	}
	if val.IsNull() {
		return cty.NullVal(ty), nil
	}
	if !val.IsWhollyKnown() {
		return cty.NilVal, fmt.Errorf("value is not known")
	}
	val, err := convert.Convert(val, ty)
	if err != nil {
		return cty.NilVal, err
	}
	return val, nil
}

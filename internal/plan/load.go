package plan

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// stepHCL mirrors one `step` block in a plan file.
type stepHCL struct {
	ID               string    `hcl:"id,label"`
	Capability       string    `hcl:"capability"`
	Group            string    `hcl:"group,optional"`
	DependsOn        []string  `hcl:"depends_on,optional"`
	SetsCriticalFlag string    `hcl:"sets_critical_flag,optional"`
	Fragment         string    `hcl:"fragment,optional"`
	Title            string    `hcl:"title,optional"`
	Arguments        *argsHCL  `hcl:"arguments,block"`
}

// argsHCL captures the raw body of an `arguments` block; expressions inside
// stay unevaluated until execution.
type argsHCL struct {
	Body hcl.Body `hcl:",remain"`
}

type planHCL struct {
	Steps []*stepHCL `hcl:"step,block"`
	Body  hcl.Body   `hcl:",remain"`
}

// LoadFile reads and parses a plan from an HCL file.
func LoadFile(path string) (*Plan, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file %q: %w", path, err)
	}
	return Parse(src, path)
}

// Parse parses plan HCL source. The filename is used in diagnostics only.
// Parsing does not validate the plan; call Validate before executing.
func Parse(src []byte, filename string) (*Plan, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse plan: %w", diags)
	}

	var root planHCL
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode plan: %w", diags)
	}

	p := &Plan{}
	for _, raw := range root.Steps {
		step := &Step{
			ID:               raw.ID,
			Capability:       raw.Capability,
			Group:            raw.Group,
			DependsOn:        raw.DependsOn,
			SetsCriticalFlag: raw.SetsCriticalFlag,
			Fragment:         raw.Fragment,
			Title:            raw.Title,
		}
		if raw.Arguments != nil {
			step.Args = raw.Arguments.Body
			bindings, err := extractBindings(raw.Arguments.Body)
			if err != nil {
				return nil, fmt.Errorf("step %q: %w", step.ID, err)
			}
			step.Bindings = bindings
		}
		linkImplicitDeps(step)
		p.Steps = append(p.Steps, step)
	}
	return p, nil
}

// extractBindings inspects each argument attribute's expression for variable
// traversals and records where the value will come from.
func extractBindings(body hcl.Body) (map[string][]Ref, error) {
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("arguments block must contain only attribute assignments: %w", diags)
	}

	bindings := make(map[string][]Ref, len(attrs))
	for name, attr := range attrs {
		var refs []Ref
		for _, traversal := range attr.Expr.Variables() {
			refs = append(refs, parseRef(traversal))
		}
		bindings[name] = refs
	}
	return bindings, nil
}

// parseRef classifies a single traversal. Recognized scopes are
// step.<id>[.<attr>...], input.<key>, and fragment.all.
func parseRef(traversal hcl.Traversal) Ref {
	root := traversal.RootName()
	switch root {
	case "step":
		if len(traversal) < 2 {
			return Ref{Kind: RefUnknown, Root: root}
		}
		idAttr, ok := traversal[1].(hcl.TraverseAttr)
		if !ok {
			return Ref{Kind: RefUnknown, Root: root}
		}
		ref := Ref{Kind: RefStep, StepID: idAttr.Name}
		if len(traversal) > 2 {
			if outAttr, ok := traversal[2].(hcl.TraverseAttr); ok {
				ref.Attr = outAttr.Name
			}
		}
		return ref
	case "input":
		if len(traversal) < 2 {
			return Ref{Kind: RefUnknown, Root: root}
		}
		keyAttr, ok := traversal[1].(hcl.TraverseAttr)
		if !ok {
			return Ref{Kind: RefUnknown, Root: root}
		}
		return Ref{Kind: RefInput, InputKey: keyAttr.Name}
	case "fragment":
		if len(traversal) >= 2 {
			if attr, ok := traversal[1].(hcl.TraverseAttr); ok && attr.Name == "all" {
				return Ref{Kind: RefFragments}
			}
		}
		return Ref{Kind: RefUnknown, Root: root}
	default:
		return Ref{Kind: RefUnknown, Root: root}
	}
}

// linkImplicitDeps folds step references found in argument expressions into
// DependsOn, so a binding on step.doc.summary orders the step after "doc"
// without a depends_on declaration.
func linkImplicitDeps(step *Step) {
	declared := make(map[string]bool, len(step.DependsOn))
	for _, id := range step.DependsOn {
		declared[id] = true
	}
	for _, id := range step.StepRefs() {
		if !declared[id] {
			declared[id] = true
			step.DependsOn = append(step.DependsOn, id)
		}
	}
}

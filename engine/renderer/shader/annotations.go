// annotations.go defines the annotation types, arguments and parser for the WGSL
// pre-processor. Annotations are single-line WGSL comments prefixed with @oxy: that
// inject shared struct sources, generate uniform declarations and tag the texture and
// sampler bindings a device must fill from materials or render attachments.
package shader

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// annotationPrefix is the marker that identifies an annotation within a WGSL comment line.
const annotationPrefix = "@oxy:"

// AnnotationType identifies the kind of annotation parsed from a WGSL comment line.
type AnnotationType string

const (
	// annotationTypeInclude injects the WGSL source of a registered struct or helper.
	// It is consumed during pre-processing and produces no declaration.
	//
	// Syntax: //@oxy:include <struct_type>
	annotationTypeInclude AnnotationType = "include"

	// AnnotationTypeBindingGroup generates a @group/@binding uniform declaration and is
	// recorded so the device can map the group to a uniform slot.
	//
	// Syntax: //@oxy:group <group> <binding> <address_space> <var_name> <struct_type>
	//
	// Example: //@oxy:group 0 0 uniform frame frame
	AnnotationTypeBindingGroup AnnotationType = "group"

	// AnnotationTypeProvider tags the hand-written binding below it with the resource
	// provider that fills it.
	//
	// Syntax:
	//   //@oxy:provider <group> <binding> <provider_identity>
	//   //@oxy:provider <group> <binding> <provider_identity> <binding_role>
	//
	// Examples:
	//   //@oxy:provider 3 1 material diffuse
	//   //@oxy:provider 3 8 attachment shadow_sampler
	AnnotationTypeProvider AnnotationType = "provider"
)

// Annotation represents a single parsed annotation from a WGSL source line.
type Annotation struct {
	// Type identifies which annotation was parsed.
	Type AnnotationType

	// Args holds the annotation's arguments. The contents depend on Type:
	//   - include:  [0] = struct type key
	//   - group:    [0] = address space, [1] = var name, [2] = struct type key
	//   - provider: [0] = provider identity, [1] = binding role (optional)
	Args []AnnotationArg

	// Line is the 1-based source line, used for error reporting.
	Line int

	// Group is the @group index for group and provider annotations. Nil for include annotations.
	Group *int

	// Binding is the @binding index for group and provider annotations. Nil for include annotations.
	Binding *int
}

// Role returns the binding role of a provider annotation, or an empty argument when none was given.
func (a Annotation) Role() AnnotationArg {
	if a.Type != AnnotationTypeProvider || len(a.Args) < 2 {
		return ""
	}
	return a.Args[1]
}

// AnnotationArg is a typed string used as an annotation argument.
type AnnotationArg string

// Struct type arguments, usable in include and group annotations.
const (
	// AnnotationArgFrame identifies the per-frame camera block, FrameUniforms.
	AnnotationArgFrame AnnotationArg = "frame"

	// AnnotationArgObject identifies the per-draw ObjectUniforms block.
	AnnotationArgObject AnnotationArg = "object"

	// AnnotationArgShadow identifies the per-cascade ShadowUniforms block.
	AnnotationArgShadow AnnotationArg = "shadow"

	// AnnotationArgDirectionalLight identifies the DirectionalLight block.
	AnnotationArgDirectionalLight AnnotationArg = "directional_light"

	// AnnotationArgPointLight identifies the PointLight block.
	AnnotationArgPointLight AnnotationArg = "point_light"

	// annotationArgVertex identifies the VertexInput struct of a static mesh.
	annotationArgVertex AnnotationArg = "vertex"

	// annotationArgMorphVertex identifies the CurrentVertex/NextVertex pair of a morph mesh.
	annotationArgMorphVertex AnnotationArg = "morph_vertex"

	// annotationArgClip identifies the clip-space depth conversion helper.
	annotationArgClip AnnotationArg = "clip"
)

// Address space arguments.
const (
	annotationArgUniform AnnotationArg = "uniform"
)

// Provider identity arguments.
const (
	// AnnotationArgMaterial marks a binding filled from the bound material.
	AnnotationArgMaterial AnnotationArg = "material"

	// AnnotationArgAttachment marks a binding filled from the pass's input attachments, in binding order.
	AnnotationArgAttachment AnnotationArg = "attachment"
)

// Binding role arguments.
const (
	AnnotationArgAmbient       AnnotationArg = "ambient"
	AnnotationArgDiffuse       AnnotationArg = "diffuse"
	AnnotationArgSpecular      AnnotationArg = "specular"
	AnnotationArgAlpha         AnnotationArg = "alpha"
	AnnotationArgNormal        AnnotationArg = "normal"
	AnnotationArgSampler       AnnotationArg = "sampler"
	AnnotationArgShadowSampler AnnotationArg = "shadow_sampler"
)

var validStructTypes = []AnnotationArg{
	AnnotationArgFrame,
	AnnotationArgObject,
	AnnotationArgShadow,
	AnnotationArgDirectionalLight,
	AnnotationArgPointLight,
	annotationArgVertex,
	annotationArgMorphVertex,
	annotationArgClip,
}

var validAddressSpaces = []AnnotationArg{
	annotationArgUniform,
}

var validProviderIdentities = []AnnotationArg{
	AnnotationArgMaterial,
	AnnotationArgAttachment,
}

var validBindingRoles = []AnnotationArg{
	AnnotationArgAmbient,
	AnnotationArgDiffuse,
	AnnotationArgSpecular,
	AnnotationArgAlpha,
	AnnotationArgNormal,
	AnnotationArgSampler,
	AnnotationArgShadowSampler,
}

// parseAnnotation attempts to parse a single line of WGSL source as an annotation.
// Returns nil with no error for lines that do not contain the annotation prefix.
//
// Parameters:
//   - line: the raw WGSL source line to parse
//   - lineNum: the 1-based line number for error reporting
//
// Returns:
//   - *Annotation: the parsed annotation, or nil if the line is not an annotation
//   - error: a descriptive error if the annotation is malformed
func parseAnnotation(line string, lineNum int) (*Annotation, error) {
	trimmed := strings.TrimSpace(line)
	_, after, ok := strings.Cut(trimmed, annotationPrefix)
	if !ok {
		return nil, nil
	}

	args := strings.Fields(after)
	if len(args) == 0 {
		return nil, fmt.Errorf("line %d: empty @oxy annotation", lineNum)
	}

	switch args[0] {
	case string(annotationTypeInclude):
		if len(args) != 2 {
			return nil, fmt.Errorf("line %d: @oxy include annotation requires exactly one argument", lineNum)
		}
		if !slices.Contains(validStructTypes, AnnotationArg(args[1])) {
			return nil, fmt.Errorf("line %d: unknown struct type %q in @oxy include annotation", lineNum, args[1])
		}
		return &Annotation{
			Type: annotationTypeInclude,
			Args: []AnnotationArg{AnnotationArg(args[1])},
			Line: lineNum,
		}, nil
	case string(AnnotationTypeBindingGroup):
		if len(args) != 6 {
			return nil, fmt.Errorf("line %d: @oxy group annotation requires group, binding, address space, var name and struct type", lineNum)
		}
		group, binding, err := parseGroupBinding(args[1], args[2], lineNum)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(validAddressSpaces, AnnotationArg(args[3])) {
			return nil, fmt.Errorf("line %d: unknown address space %q in @oxy group annotation", lineNum, args[3])
		}
		if !slices.Contains(validStructTypes, AnnotationArg(args[5])) {
			return nil, fmt.Errorf("line %d: unknown struct type %q in @oxy group annotation", lineNum, args[5])
		}
		return &Annotation{
			Type:    AnnotationTypeBindingGroup,
			Args:    []AnnotationArg{AnnotationArg(args[3]), AnnotationArg(args[4]), AnnotationArg(args[5])},
			Line:    lineNum,
			Group:   &group,
			Binding: &binding,
		}, nil
	case string(AnnotationTypeProvider):
		if len(args) < 4 || len(args) > 5 {
			return nil, fmt.Errorf("line %d: @oxy provider annotation requires group, binding, provider identity and an optional role", lineNum)
		}
		group, binding, err := parseGroupBinding(args[1], args[2], lineNum)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(validProviderIdentities, AnnotationArg(args[3])) {
			return nil, fmt.Errorf("line %d: unknown provider identity %q in @oxy provider annotation", lineNum, args[3])
		}
		providerArgs := []AnnotationArg{AnnotationArg(args[3])}
		if len(args) == 5 {
			if !slices.Contains(validBindingRoles, AnnotationArg(args[4])) {
				return nil, fmt.Errorf("line %d: unknown binding role %q in @oxy provider annotation", lineNum, args[4])
			}
			providerArgs = append(providerArgs, AnnotationArg(args[4]))
		}
		return &Annotation{
			Type:    AnnotationTypeProvider,
			Args:    providerArgs,
			Line:    lineNum,
			Group:   &group,
			Binding: &binding,
		}, nil
	default:
		return nil, fmt.Errorf("line %d: unknown @oxy annotation type %q", lineNum, args[0])
	}
}

func parseGroupBinding(groupArg, bindingArg string, lineNum int) (int, int, error) {
	group, err := strconv.Atoi(groupArg)
	if err != nil {
		return 0, 0, fmt.Errorf("line %d: invalid group number %q: %v", lineNum, groupArg, err)
	}
	binding, err := strconv.Atoi(bindingArg)
	if err != nil {
		return 0, 0, fmt.Errorf("line %d: invalid binding number %q: %v", lineNum, bindingArg, err)
	}
	return group, binding, nil
}

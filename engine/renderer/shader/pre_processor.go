package shader

import (
	"embed"
	"fmt"
	"strings"
)

//go:embed assets
var assets embed.FS

// registryEntry pairs a shared WGSL source with the type name emitted by group annotations.
type registryEntry struct {
	Source string
	Type   string
}

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	structRegistry       map[AnnotationArg]registryEntry
	addressSpaceRegistry map[AnnotationArg]string
	declarations         []Annotation
}

// PreProcessor expands @oxy: annotations in WGSL source and records the binding
// declarations a device needs to wire resources.
type PreProcessor interface {
	// Process replaces include annotations with the registered source, replaces group
	// annotations with generated declarations, and records group and provider annotations.
	//
	// Parameters:
	//   - source: the raw WGSL source
	//
	// Returns:
	//   - string: the expanded WGSL source
	//   - error: an error if any annotation is malformed or references an unknown type
	Process(source string) (string, error)

	// Declarations returns the group and provider annotations from the most recent
	// Process call, in source order.
	//
	// Returns:
	//   - []Annotation: the collected declarations
	Declarations() []Annotation
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a PreProcessor with the shared struct sources registered.
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor instance
func NewPreProcessor() PreProcessor {
	return &preProcessor{
		structRegistry: map[AnnotationArg]registryEntry{
			AnnotationArgFrame:            {Source: mustStructSource("frame"), Type: "FrameUniforms"},
			AnnotationArgObject:           {Source: mustStructSource("object"), Type: "ObjectUniforms"},
			AnnotationArgShadow:           {Source: mustStructSource("shadow"), Type: "ShadowUniforms"},
			AnnotationArgDirectionalLight: {Source: mustStructSource("directional_light"), Type: "DirectionalLight"},
			AnnotationArgPointLight:       {Source: mustStructSource("point_light"), Type: "PointLight"},
			annotationArgVertex:           {Source: mustStructSource("vertex"), Type: "VertexInput"},
			annotationArgMorphVertex:      {Source: mustStructSource("morph_vertex")},
			annotationArgClip:             {Source: mustStructSource("clip")},
		},
		addressSpaceRegistry: map[AnnotationArg]string{
			annotationArgUniform: "var<uniform>",
		},
	}
}

func mustStructSource(name string) string {
	data, err := assets.ReadFile("assets/structs/" + name + ".wgsl")
	if err != nil {
		panic(fmt.Sprintf("shader: missing embedded struct %q: %v", name, err))
	}
	return string(data)
}

func (p *preProcessor) Process(source string) (string, error) {
	p.declarations = p.declarations[:0]

	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))

	for i, line := range lines {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return "", err
		}
		if a == nil {
			out = append(out, line)
			continue
		}

		switch a.Type {
		case annotationTypeInclude:
			entry, ok := p.structRegistry[a.Args[0]]
			if !ok {
				return "", fmt.Errorf("line %d: unknown @oxy:include argument %q", i+1, a.Args[0])
			}
			out = append(out, entry.Source)
		case AnnotationTypeBindingGroup:
			entry := p.structRegistry[a.Args[2]]
			if entry.Type == "" {
				return "", fmt.Errorf("line %d: %q cannot be bound as a uniform", i+1, a.Args[2])
			}
			out = append(out, fmt.Sprintf("@group(%d) @binding(%d) %s %s: %s;", *a.Group, *a.Binding, p.addressSpaceRegistry[a.Args[0]], a.Args[1], entry.Type))
			p.declarations = append(p.declarations, *a)
		case AnnotationTypeProvider:
			p.declarations = append(p.declarations, *a)
		default:
			return "", fmt.Errorf("line %d: unknown annotation type %q", i+1, a.Type)
		}
	}
	return strings.Join(out, "\n"), nil
}

func (p *preProcessor) Declarations() []Annotation {
	return p.declarations
}

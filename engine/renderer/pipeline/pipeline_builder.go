package pipeline

// DescriptorOption is a functional option used to configure a Descriptor during construction.
type DescriptorOption func(*Descriptor)

// WithLabel sets the debug label of the pipeline.
//
// Parameters:
//   - label: the label reported by the backend in validation messages
//
// Returns:
//   - DescriptorOption: a function that sets the label
func WithLabel(label string) DescriptorOption {
	return func(d *Descriptor) {
		d.Label = label
	}
}

// WithColorTargets sets the formats of the color attachments the pipeline writes, in order.
//
// Parameters:
//   - formats: one format per color output location
//
// Returns:
//   - DescriptorOption: a function that sets the color formats
func WithColorTargets(formats ...TextureFormat) DescriptorOption {
	return func(d *Descriptor) {
		d.ColorFormats = append([]TextureFormat(nil), formats...)
	}
}

// WithDepth enables a depth attachment with the given comparison and write state.
//
// Parameters:
//   - format: the depth attachment format
//   - compare: the depth comparison function
//   - write: whether passing fragments write their depth
//
// Returns:
//   - DescriptorOption: a function that sets the depth state
func WithDepth(format TextureFormat, compare CompareFunc, write bool) DescriptorOption {
	return func(d *Descriptor) {
		d.DepthFormat = format
		d.DepthCompare = compare
		d.DepthWrite = write
	}
}

// WithDepthBias sets the constant and slope-scaled depth bias.
//
// Parameters:
//   - bias: constant bias in depth units
//   - slopeScale: bias scale applied to the polygon depth slope
//
// Returns:
//   - DescriptorOption: a function that sets the depth bias
func WithDepthBias(bias int32, slopeScale float32) DescriptorOption {
	return func(d *Descriptor) {
		d.DepthBias = bias
		d.DepthBiasSlopeScale = slopeScale
	}
}

// WithDepthClamp sets whether fragment depth is clamped instead of clipped.
//
// Parameters:
//   - enabled: true to clamp
//
// Returns:
//   - DescriptorOption: a function that sets depth clamping
func WithDepthClamp(enabled bool) DescriptorOption {
	return func(d *Descriptor) {
		d.DepthClamp = enabled
	}
}

// WithBlend sets the color blend mode applied to every color target.
//
// Parameters:
//   - mode: the blend mode
//
// Returns:
//   - DescriptorOption: a function that sets the blend mode
func WithBlend(mode BlendMode) DescriptorOption {
	return func(d *Descriptor) {
		d.Blend = mode
	}
}

// WithCullMode sets which triangle facing is discarded.
//
// Parameters:
//   - mode: the cull mode
//
// Returns:
//   - DescriptorOption: a function that sets the cull mode
func WithCullMode(mode CullMode) DescriptorOption {
	return func(d *Descriptor) {
		d.Cull = mode
	}
}

// WithLineWidth sets the wireframe edge width in pixels.
//
// Parameters:
//   - width: edge width, 1 unless wide lines are supported
//
// Returns:
//   - DescriptorOption: a function that sets the line width
func WithLineWidth(width float32) DescriptorOption {
	return func(d *Descriptor) {
		d.LineWidth = width
	}
}

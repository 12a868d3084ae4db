package deferred

// FrameStats counts the work recorded by one Render call.
type FrameStats struct {
	GeometryDraws     int
	ShadowDraws       int
	WireframeDraws    int
	DirectionalLights int
	PointLights       int
	// LightsSkipped counts lights dropped because their pipeline was not usable.
	LightsSkipped int
	// LightsCulled counts point lights outside the view frustum or with no reach.
	LightsCulled  int
	ObjectsCulled int
	// Aborted is set when the frame was dropped because a resource was not uploaded yet.
	Aborted bool
}

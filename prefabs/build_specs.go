package prefabs

import "gopkg.in/yaml.v3"

type EntityBuildSpec struct {
	Name       string         `yaml:"name"`
	Components map[string]any `yaml:"components"`
}

func LoadEntityBuildSpec(filename string) (EntityBuildSpec, error) {
	return LoadSpec[EntityBuildSpec](filename)
}

func DecodeComponentSpec[T any](raw any) (T, error) {
	var zero T
	if raw == nil {
		return zero, nil
	}
	b, err := yaml.Marshal(raw)
	if err != nil {
		return zero, err
	}
	var out T
	if err := yaml.Unmarshal(b, &out); err != nil {
		return zero, err
	}
	return out, nil
}

type TransformComponentSpec struct {
	X        float64 `yaml:"x"`
	Y        float64 `yaml:"y"`
	Rotation float64 `yaml:"rotation"`
}

type PhysicsBodyComponentSpec struct {
	Width      float64 `yaml:"width"`
	Height     float64 `yaml:"height"`
	Radius     float64 `yaml:"radius"`
	Length     float64 `yaml:"length"`
	Mass       float64 `yaml:"mass"`
	Friction   float64 `yaml:"friction"`
	Elasticity float64 `yaml:"elasticity"`
	Kinematic  bool    `yaml:"kinematic"`
	Static     bool    `yaml:"static"`
}

type RopeSegmentComponentSpec struct {
	JointOffsetX float64 `yaml:"joint_offset_x"`
	JointOffsetY float64 `yaml:"joint_offset_y"`
}

type RopeAnchorComponentSpec struct {
	Role string `yaml:"role"`
}

type AnchorDriverComponentSpec struct {
	Script string `yaml:"script"`
}

// RopeComponentSpec is the rope configuration surface. Pointer fields keep
// "unset" distinct from zero so defaults only fill what a prefab omits.
type RopeComponentSpec struct {
	StaticRopeEnd       bool     `yaml:"static_rope_end"`
	IntervalScaleFactor *float64 `yaml:"interval_scale_factor"`
	BaseInterval        *float64 `yaml:"base_interval"`
	EndTolerance        *float64 `yaml:"end_tolerance"`
	Bias                *float64 `yaml:"bias"`
	Softness            *float64 `yaml:"softness"`
	SegmentPrefab       string   `yaml:"segment_prefab"`
}

type RopeCurveComponentSpec struct {
	Width     float32    `yaml:"width"`
	Color     *YAMLColor `yaml:"color"`
	AntiAlias bool       `yaml:"anti_alias"`
}

type CameraComponentSpec struct {
	Zoom       float64 `yaml:"zoom"`
	Smoothness float64 `yaml:"smoothness"`
}

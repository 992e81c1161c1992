package component

type AnchorRole string

const (
	AnchorRoleStart AnchorRole = "start"
	AnchorRoleEnd   AnchorRole = "end"
)

// RopeAnchor marks a pre-existing endpoint body a rope is strung between.
type RopeAnchor struct {
	Role AnchorRole
}

var RopeAnchorComponent = NewComponent[RopeAnchor]()

// AnchorDriver moves a kinematic anchor along a path computed by a script.
type AnchorDriver struct {
	Script      string
	OriginX     float64
	OriginY     float64
	Elapsed     float64
	Initialized bool
}

var AnchorDriverComponent = NewComponent[AnchorDriver]()

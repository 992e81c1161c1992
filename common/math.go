package common

const (
	// Gravity is the downward acceleration in pixels per second squared.
	Gravity = 600.0
	// TPS is the fixed simulation rate; ebiten calls Update this often.
	TPS      = 60
	TimeStep = 1.0 / TPS
)

func Lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

package physics

import "math"

const (
	DefaultBikeType = "default"

	// CollisionThreshold is the planar distance under which two bikes touch.
	CollisionThreshold = 2.0

	dragCoefficient = 0.01
	brakeMultiplier = 1.5
	kmhPerMs        = 3.6
)

// BikeSpec is the immutable performance profile of a bike type.
type BikeSpec struct {
	MaxSpeed     float64 `json:"max_speed"`    // km/h
	Acceleration float64 `json:"acceleration"` // km/h per second
	Handling     float64 `json:"handling"`     // 0..1
	Mass         float64 `json:"mass"`         // kg
	Durability   float64 `json:"durability"`   // health points
}

var bikeSpecs = map[string]BikeSpec{
	"default": {MaxSpeed: 120, Acceleration: 8, Handling: 0.8, Mass: 180, Durability: 100},
	"sport":   {MaxSpeed: 150, Acceleration: 12, Handling: 0.7, Mass: 160, Durability: 80},
	"cruiser": {MaxSpeed: 100, Acceleration: 6, Handling: 0.6, Mass: 220, Durability: 120},
}

// LookupBike resolves a bike type to its spec. Unknown types resolve to the
// default bike, and the returned name says which one was used.
func LookupBike(bikeType string) (string, BikeSpec) {
	if spec, ok := bikeSpecs[bikeType]; ok {
		return bikeType, spec
	}
	return DefaultBikeType, bikeSpecs[DefaultBikeType]
}

// Controls is one frame of rider input. Values outside their ranges are clamped.
type Controls struct {
	Throttle float64 `json:"throttle"` // 0..1
	Brake    float64 `json:"brake"`    // 0..1
	Steering float64 `json:"steering"` // -1..1
}

// Snapshot is the kinematic state returned from a step.
type Snapshot struct {
	Position Vec3    `json:"position"`
	Rotation Vec3    `json:"rotation"`
	Speed    float64 `json:"speed"`
	Health   float64 `json:"health"`
}

// CombatResult describes what a combat action did to the bike it hit.
type CombatResult struct {
	Damage       float64 `json:"damage"`
	SpeedPenalty float64 `json:"speed_penalty"`
	Health       float64 `json:"health"`
	Speed        float64 `json:"speed"`
}

type combatEffect struct {
	damage       float64
	speedPenalty float64
}

var combatEffects = map[string]combatEffect{
	"punch": {damage: 10, speedPenalty: 5},
	"kick":  {damage: 15, speedPenalty: 10},
}

// Bike is the physics state of one rider. Rotation.Y is the heading.
type Bike struct {
	Type     string
	Spec     BikeSpec
	Position Vec3
	Rotation Vec3
	Velocity Vec3
	Speed    float64
	Health   float64
}

// NewBike returns a bike at rest at the origin with full health.
func NewBike(bikeType string) *Bike {
	name, spec := LookupBike(bikeType)
	return &Bike{
		Type:   name,
		Spec:   spec,
		Health: spec.Durability,
	}
}

// Step integrates the bike forward by dt seconds under the given controls.
func (b *Bike) Step(c Controls, dt float64) Snapshot {
	throttle := clamp(c.Throttle, 0, 1)
	brake := clamp(c.Brake, 0, 1)
	steering := clamp(c.Steering, -1, 1)

	accel := throttle * b.Spec.Acceleration
	decel := brake * b.Spec.Acceleration * brakeMultiplier
	drag := dragCoefficient * b.Speed

	b.Speed = clamp(b.Speed+(accel-decel-drag)*dt, 0, b.Spec.MaxSpeed)
	ms := b.Speed / kmhPerMs

	heading := b.Rotation.Y
	b.Position.X += math.Sin(heading) * ms * dt
	b.Position.Z += math.Cos(heading) * ms * dt

	speedFactor := 0.5
	if b.Spec.MaxSpeed > 0 {
		speedFactor += 0.5 * b.Speed / b.Spec.MaxSpeed
	}
	b.Rotation.Y = wrapAngle(heading + steering*b.Spec.Handling*speedFactor*dt*2)

	b.Velocity.X = math.Sin(b.Rotation.Y) * ms
	b.Velocity.Z = math.Cos(b.Rotation.Y) * ms

	return b.Snapshot()
}

// Snapshot returns the current kinematic state without advancing it.
func (b *Bike) Snapshot() Snapshot {
	return Snapshot{
		Position: b.Position,
		Rotation: b.Rotation,
		Speed:    b.Speed,
		Health:   b.Health,
	}
}

// ApplyDamage lowers health by amount, keeping it within [0, durability].
func (b *Bike) ApplyDamage(amount float64) float64 {
	b.Health = clamp(b.Health-amount, 0, b.Spec.Durability)
	return b.Health
}

// CheckCollision reports whether another bike at pos is touching this one.
func (b *Bike) CheckCollision(pos Vec3) bool {
	return Collides(b.Position, pos)
}

// Collides is the symmetric bike-on-bike proximity test.
func Collides(a, b Vec3) bool {
	return PlanarDistance(a, b) < CollisionThreshold
}

// HandleCombatAction applies the effect of being hit by kind. Unknown kinds do
// nothing but still report the current health and speed.
func (b *Bike) HandleCombatAction(kind string) CombatResult {
	effect := combatEffects[kind]
	b.ApplyDamage(effect.damage)
	b.Speed = math.Max(0, b.Speed-effect.speedPenalty)
	return CombatResult{
		Damage:       effect.damage,
		SpeedPenalty: effect.speedPenalty,
		Health:       b.Health,
		Speed:        b.Speed,
	}
}

func wrapAngle(a float64) float64 {
	const full = 2 * math.Pi
	a = math.Mod(a, full)
	if a < 0 {
		a += full
	}
	if a >= full {
		a = 0
	}
	return a
}

package physics

import "slices"

const (
	DefaultTrackID = "track1"

	CheckpointThreshold = 10.0
	ObstacleThreshold   = 3.0
)

type Checkpoint struct {
	Position Vec3 `json:"position"`
}

type Obstacle struct {
	Position Vec3   `json:"position"`
	Kind     string `json:"type"`
}

// Track is static course geometry. The start line is checkpoint 0 and the
// course is a closed loop, so finishing means returning to it.
type Track struct {
	ID          string       `json:"id"`
	Length      float64      `json:"length"`
	Width       float64      `json:"width"`
	Checkpoints []Checkpoint `json:"checkpoints"`
	Obstacles   []Obstacle   `json:"obstacles"`
}

var tracks = map[string]Track{
	"track1": {
		ID:     "track1",
		Length: 5000,
		Width:  10,
		Checkpoints: []Checkpoint{
			{Position: Vec3{X: 0, Z: 0}},
			{Position: Vec3{X: 1000, Z: 0}},
			{Position: Vec3{X: 1000, Z: 1000}},
			{Position: Vec3{X: 0, Z: 1000}},
		},
		Obstacles: []Obstacle{
			{Position: Vec3{X: 500, Z: 0}, Kind: "rock"},
			{Position: Vec3{X: 800, Z: 200}, Kind: "car"},
			{Position: Vec3{X: 300, Z: 800}, Kind: "oil"},
		},
	},
	"track2": {
		ID:     "track2",
		Length: 8000,
		Width:  12,
		Checkpoints: []Checkpoint{
			{Position: Vec3{X: 0, Z: 0}},
			{Position: Vec3{X: 2000, Z: 0}},
			{Position: Vec3{X: 2000, Z: 2000}},
			{Position: Vec3{X: 0, Z: 2000}},
		},
		Obstacles: []Obstacle{
			{Position: Vec3{X: 1000, Z: 0}, Kind: "rock"},
			{Position: Vec3{X: 1500, Z: 500}, Kind: "car"},
			{Position: Vec3{X: 500, Z: 1500}, Kind: "oil"},
		},
	},
}

// LookupTrack returns a copy of the track for id, falling back to the
// default track.
func LookupTrack(id string) Track {
	t, ok := tracks[id]
	if !ok {
		t = tracks[DefaultTrackID]
	}
	t.Checkpoints = slices.Clone(t.Checkpoints)
	t.Obstacles = slices.Clone(t.Obstacles)
	return t
}

// KnownTrack reports whether id names a built-in track.
func KnownTrack(id string) bool {
	_, ok := tracks[id]
	return ok
}

func (t Track) CheckCheckpoint(pos Vec3, index int) bool {
	if index < 0 || index >= len(t.Checkpoints) {
		return false
	}
	return PlanarDistance(pos, t.Checkpoints[index].Position) < CheckpointThreshold
}

// CheckFinish reports a completed lap: the last checkpoint has been passed and
// the bike is back at the start line.
func (t Track) CheckFinish(pos Vec3, lastCheckpoint int) bool {
	if len(t.Checkpoints) == 0 {
		return false
	}
	return lastCheckpoint >= len(t.Checkpoints)-1 && t.CheckCheckpoint(pos, 0)
}

// CheckObstacleCollision returns the index of the first obstacle, in
// declaration order, that pos is touching.
func (t Track) CheckObstacleCollision(pos Vec3) (int, bool) {
	for i, o := range t.Obstacles {
		if PlanarDistance(pos, o.Position) < ObstacleThreshold {
			return i, true
		}
	}
	return -1, false
}

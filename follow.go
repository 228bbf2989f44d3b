package rigid

// FollowRelation steers a follower toward a leader while the two are between
// StopDistance and MaxDistance apart. Only the follower's velocity changes.
type FollowRelation struct {
	FollowerID   int
	LeaderID     int
	MaxDistance  float32
	StopDistance float32
}

func (r FollowRelation) validate() error {
	if r.FollowerID == r.LeaderID {
		return invalidParam("body %d cannot follow itself", r.FollowerID)
	}
	if !(r.StopDistance >= 0) || !(r.StopDistance < r.MaxDistance) {
		return invalidParam("follow distances stop=%g max=%g must satisfy 0 <= stop < max",
			r.StopDistance, r.MaxDistance)
	}
	return nil
}

// Steer applies the relation to follower given the leader's position.
//
// Inside the band (stop, max] the follower keeps its current speed but turns
// toward the leader. Beyond max it stops. At or inside stop the velocity is
// left alone.
func (r FollowRelation) Steer(follower, leader *Body) {
	d := Distance(follower.Position, leader.Position)
	switch {
	case d > r.MaxDistance:
		follower.Velocity = Vec2{}
	case d > r.StopDistance:
		speed := follower.Speed()
		dir := leader.Position.Minus(follower.Position).Normalized()
		follower.Velocity = dir.Scale(speed)
	}
}

package comp

import "skyvox.io/internal/sim/ecs"

// Storage groups every component store of one world.
type Storage struct {
	Reg *ecs.Registry

	Uid   *ecs.Store[Uid]
	Pos   *ecs.Store[Pos]
	Vel   *ecs.Store[Vel]
	Ori   *ecs.Store[Ori]
	Stats *ecs.Store[Stats]

	MoveIntent *ecs.Store[MoveIntent]
	OnGround   *ecs.Store[OnGround]
	Jumping    *ecs.Store[Jumping]
	Rolling    *ecs.Store[Rolling]
	Gliding    *ecs.Store[Gliding]
	Attacking  *ecs.Store[Attacking]

	ForceUpdate *ecs.Store[ForceUpdate]
	Dying       *ecs.Store[Dying]
	Respawning  *ecs.Store[Respawning]

	Player    *ecs.Store[Player]
	Actor     *ecs.Store[Actor]
	Animation *ecs.Store[AnimationInfo]
}

func NewStorage() *Storage {
	r := ecs.NewRegistry()
	return &Storage{
		Reg:         r,
		Uid:         ecs.NewStore[Uid](r),
		Pos:         ecs.NewStore[Pos](r),
		Vel:         ecs.NewStore[Vel](r),
		Ori:         ecs.NewStore[Ori](r),
		Stats:       ecs.NewStore[Stats](r),
		MoveIntent:  ecs.NewStore[MoveIntent](r),
		OnGround:    ecs.NewStore[OnGround](r),
		Jumping:     ecs.NewStore[Jumping](r),
		Rolling:     ecs.NewStore[Rolling](r),
		Gliding:     ecs.NewStore[Gliding](r),
		Attacking:   ecs.NewStore[Attacking](r),
		ForceUpdate: ecs.NewStore[ForceUpdate](r),
		Dying:       ecs.NewStore[Dying](r),
		Respawning:  ecs.NewStore[Respawning](r),
		Player:      ecs.NewStore[Player](r),
		Actor:       ecs.NewStore[Actor](r),
		Animation:   ecs.NewStore[AnimationInfo](r),
	}
}

// Profiling:
// go build ./profile/dispatch
// go tool pprof -http=":8000" -nodefraction=0.001 ./dispatch mem.pprof

package main

import (
	"github.com/pkg/profile"
	"github.com/tansu-ecs/tansu"
)

type comp1 struct {
	V int64
	W int64
}

type comp2 struct {
	V int64
	W int64
}

func main() {
	rounds := 50
	iters := 1000
	entities := 1000
	p := profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook)
	run(rounds, iters, entities)
	p.Stop()
}

func run(rounds, iters, numEntities int) {
	for r := 0; r < rounds; r++ {
		s := tansu.NewStorage(tansu.WithInitialCapacity(numEntities))

		sum := tansu.NewSystem(tansu.HandlerFunc(func(a *tansu.SystemAccess) {
			c1 := tansu.ComponentsMut[comp1](a)
			c2 := tansu.Components[comp2](a)
			for i := 0; i < c1.Len(); i++ {
				v := c2.At(i)
				p := c1.At(i)
				p.V += v.V
				p.W += v.W
			}
		}), tansu.Writes[comp1](), tansu.Reads[comp2]())

		for it := 0; it < iters; it++ {
			entities := s.AddEntities(numEntities, tansu.C(comp1{}), tansu.C(comp2{V: 1, W: 2}))
			s.Dispatch(sum)
			for _, e := range entities {
				if err := s.RemoveEntity(e); err != nil {
					panic(err)
				}
			}
		}
	}
}

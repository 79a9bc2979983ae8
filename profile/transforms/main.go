// Profiling:
// go build ./profile/transforms
// go tool pprof -http=":8000" -nodefraction=0.001 ./transforms mem.pprof

package main

import (
	"bytes"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/profile"

	"github.com/ncarnahan/cantus"
)

func main() {
	rounds := 20
	frames := 200
	entities := 5000
	p := profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook)
	run(rounds, frames, entities)
	p.Stop()
}

func run(rounds, frames, numEntities int) {
	up := mgl32.Vec3{0, 1, 0}
	for range rounds {
		scene := cantus.NewScene()
		ts := scene.Transforms
		ents := make([]cantus.Entity, 0, numEntities)
		for k := range numEntities {
			e := scene.CreateEntity()
			ents = append(ents, e)
			i := ts.CreateOrGetInstance(e)
			ts.SetLocalPosition(i, mgl32.Vec3{float32(k % 7), 0, 1})
			if k%8 != 0 {
				_ = ts.SetParent(i, ts.GetInstance(ents[k-1]))
			}
		}

		for f := range frames {
			turn := mgl32.QuatRotate(float32(f)*0.01, up)
			for k := 0; k < len(ents); k += 8 {
				if i := ts.GetInstance(ents[k]); i.IsValid() {
					ts.SetLocalRotation(i, turn)
				}
			}
			// Churn one chain per frame and replace it.
			victim := ents[(f*8)%len(ents)]
			if scene.Entities.Alive(victim) {
				_ = scene.DestroyEntity(victim)
			}
			scene.EndFrame()
		}

		var buf bytes.Buffer
		if err := scene.Save(&buf); err != nil {
			panic(err)
		}
		if err := cantus.NewScene().Load(&buf); err != nil {
			panic(err)
		}
	}
}

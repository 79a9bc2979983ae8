package main

import (
	"os"

	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/profile"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/ncarnahan/cantus"
	"github.com/ncarnahan/cantus/internal/config"
	"github.com/ncarnahan/cantus/internal/logging"
	"github.com/ncarnahan/cantus/internal/viewer"
)

func newRunCmd(a *app) *cobra.Command {
	var spin float32
	cmd := &cobra.Command{
		Use:   "run [scene.cscene]",
		Short: "Load a compiled scene and run the frame loop",
		Long: "Load a compiled scene (or CANTUS_SCENE) and draw it in the terminal " +
			"until Esc, q or Ctrl-C. Without a scene the loop runs empty.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfg.Scene
			if len(args) == 1 {
				path = args[0]
			}
			scene, err := loadScene(a, path)
			if err != nil {
				return err
			}

			if p := startProfile(a.cfg.Profile); p != nil {
				defer p.Stop()
			}

			screen, err := tcell.NewScreen()
			if err != nil {
				return eris.Wrap(err, "open terminal")
			}
			if err := screen.Init(); err != nil {
				return eris.Wrap(err, "init terminal")
			}
			defer screen.Fini()

			v := viewer.New(screen, scene, viewer.Options{
				Interval: a.cfg.Interval(),
				Update:   spinRoots(spin),
				Logger:   logging.Component(a.log, "viewer"),
			})
			return v.Run(cmd.Context())
		},
	}
	cmd.Flags().String("profile", "", "profile the frame loop: cpu or mem; overrides CANTUS_PROFILE")
	cmd.Flags().String("interval", "", "frame interval such as 16ms; overrides CANTUS_FRAME_INTERVAL")
	cmd.Flags().Float32Var(&spin, "spin", 0, "rotate every root about +Y by this many radians per frame")
	return cmd
}

// loadScene returns an empty scene for an empty path, otherwise the scene
// stored at path.
func loadScene(a *app, path string) (*cantus.Scene, error) {
	scene := cantus.NewScene(cantus.WithLogger(logging.Component(a.log, "scene")))
	if path == "" {
		return scene, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "open scene")
	}
	defer f.Close()
	if err := scene.Load(f); err != nil {
		return nil, eris.Wrap(err, path)
	}
	return scene, nil
}

func startProfile(mode string) interface{ Stop() } {
	switch mode {
	case config.ProfileCPU:
		return profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook)
	case config.ProfileMem:
		return profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook)
	}
	return nil
}

// spinRoots returns an update hook turning every root transform about +Y,
// or nil when rate is zero.
func spinRoots(rate float32) viewer.UpdateFunc {
	if rate == 0 {
		return nil
	}
	turn := mgl32.QuatRotate(rate, mgl32.Vec3{0, 1, 0})
	return func(scene *cantus.Scene, _ uint64) {
		ts := scene.Transforms
		for k := range ts.Count() {
			i := cantus.EntityInstance(k)
			if !ts.GetParent(i).IsValid() {
				ts.SetLocalRotation(i, turn.Mul(ts.GetLocalRotation(i)).Normalize())
			}
		}
	}
}

package particles_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/ambient/internal/particles"
)

var _ = Describe("Field", func() {
	Describe("construction", func() {
		It("scatters particles inside the bounds", func() {
			f, err := particles.New(200, particles.Bounds{Width: 320, Height: 180}, particles.WithSeed(1))
			Expect(err).NotTo(HaveOccurred())
			Expect(f.Len()).To(Equal(200))

			for i, p := range f.Particles() {
				Expect(p.ID).To(Equal(i))
				Expect(p.X).To(BeNumerically(">=", 0))
				Expect(p.X).To(BeNumerically("<=", 320))
				Expect(p.Y).To(BeNumerically(">=", 0))
				Expect(p.Y).To(BeNumerically("<=", 180))
				Expect(p.Radius).To(BeNumerically(">", 0))
				Expect(p.Life).To(BeNumerically(">=", 0))
				Expect(p.Life).To(BeNumerically("<=", 1))
				Expect(particles.DefaultPalette()).To(ContainElement(p.Color))
			}
		})

		It("is reproducible for a fixed seed", func() {
			a, _ := particles.New(10, particles.Bounds{Width: 100, Height: 100}, particles.WithSeed(42))
			b, _ := particles.New(10, particles.Bounds{Width: 100, Height: 100}, particles.WithSeed(42))
			Expect(a.Particles()).To(Equal(b.Particles()))
		})

		DescribeTable("rejects invalid arguments",
			func(count int, b particles.Bounds, opts []particles.Option, arg string) {
				_, err := particles.New(count, b, opts...)
				Expect(errors.Is(err, particles.ErrInvalidArgs)).To(BeTrue())
				var aerr *particles.ArgError
				Expect(errors.As(err, &aerr)).To(BeTrue())
				Expect(aerr.Arg).To(Equal(arg))
			},
			Entry("negative count", -1, particles.Bounds{Width: 10, Height: 10}, []particles.Option(nil), "count"),
			Entry("negative width", 5, particles.Bounds{Width: -1, Height: 10}, []particles.Option(nil), "width"),
			Entry("negative height", 5, particles.Bounds{Width: 10, Height: -3}, []particles.Option(nil), "height"),
			Entry("NaN width", 5, particles.Bounds{Width: math.NaN(), Height: 10}, []particles.Option(nil), "width"),
			Entry("friction above one", 5, particles.Bounds{Width: 10, Height: 10},
				[]particles.Option{particles.WithFriction(1.5)}, "friction"),
			Entry("negative radius", 5, particles.Bounds{Width: 10, Height: 10},
				[]particles.Option{particles.WithRadius(-1)}, "interaction radius"),
		)

		It("treats zero count and zero area as inert", func() {
			empty, err := particles.New(0, particles.Bounds{Width: 100, Height: 100})
			Expect(err).NotTo(HaveOccurred())
			Expect(func() { empty.Step(1) }).NotTo(Panic())
			Expect(empty.Particles()).To(BeEmpty())

			flat, err := particles.New(3, particles.Bounds{Width: 0, Height: 100}, particles.WithSeed(3))
			Expect(err).NotTo(HaveOccurred())
			before := flat.Particles()
			flat.SetPointer(0, 0, true)
			flat.Step(1)
			Expect(flat.Particles()).To(Equal(before))
		})
	})

	Describe("Step", func() {
		It("reflects, clamps and then applies friction at a wall", func() {
			f, err := particles.New(1, particles.Bounds{Width: 100, Height: 100}, particles.WithFlicker(0))
			Expect(err).NotTo(HaveOccurred())
			Expect(f.Place(0, particles.Particle{X: 99, Y: 50, VX: 10, Life: 1})).To(Succeed())

			f.Step(1)

			p := f.Particles()[0]
			Expect(p.X).To(Equal(100.0))
			Expect(p.VX).To(BeNumerically("~", -7.92, 1e-9))
			Expect(p.Y).To(Equal(50.0))
			Expect(p.VY).To(Equal(0.0))
		})

		It("moves with the velocity it had before friction", func() {
			f := still(500, 500)
			Expect(f.Place(0, particles.Particle{X: 500, Y: 500, VX: 10, Life: 1})).To(Succeed())

			f.Step(1)

			p := f.Particles()[0]
			Expect(p.X).To(Equal(510.0))
			Expect(p.VX).To(BeNumerically("~", 9.9, 1e-9))
		})

		It("moves with the velocity the pointer just added", func() {
			f := still(500, 500)
			f.SetPointer(600, 500, true)

			f.Step(1)

			kick := (150.0 - 100.0) / 150.0 * 0.5
			p := f.Particles()[0]
			Expect(p.X).To(BeNumerically("~", 500+kick, 1e-9))
			Expect(p.VX).To(BeNumerically("~", kick*0.99, 1e-9))
		})

		It("bounces off the near walls too", func() {
			f, _ := particles.New(1, particles.Bounds{Width: 100, Height: 100}, particles.WithFlicker(0))
			Expect(f.Place(0, particles.Particle{X: 50, Y: 1, VY: -5, Life: 1})).To(Succeed())

			f.Step(1)

			p := f.Particles()[0]
			Expect(p.Y).To(Equal(0.0))
			Expect(p.VY).To(BeNumerically("~", 5*0.8*0.99, 1e-9))
		})

		It("keeps every particle inside the bounds", func() {
			b := particles.Bounds{Width: 200, Height: 120}
			f, err := particles.New(300, b, particles.WithSeed(9), particles.WithMaxSpeed(25))
			Expect(err).NotTo(HaveOccurred())

			for step := 0; step < 500; step++ {
				switch step % 3 {
				case 0:
					f.SetPointer(float64(step%200), 60, true)
				case 1:
					f.SetPointer(-500, 9000, true)
				default:
					f.SetPointer(0, 0, false)
				}
				f.Step(1)
				for _, p := range f.Particles() {
					Expect(p.X).To(BeNumerically(">=", 0))
					Expect(p.X).To(BeNumerically("<=", b.Width))
					Expect(p.Y).To(BeNumerically(">=", 0))
					Expect(p.Y).To(BeNumerically("<=", b.Height))
				}
			}
		})

		It("clamps particles placed outside on the first step", func() {
			f, _ := particles.New(1, particles.Bounds{Width: 50, Height: 50}, particles.WithFlicker(0))
			Expect(f.Place(0, particles.Particle{X: -20, Y: 80, VX: 3, VY: 1, Life: 1})).To(Succeed())

			f.Step(1)

			p := f.Particles()[0]
			Expect(p.X).To(Equal(0.0))
			Expect(p.Y).To(Equal(50.0))
			Expect(p.VX).To(BeNumerically(">", 0))
			Expect(p.VY).To(BeNumerically("<", 0))
		})

		It("pulls a particle inside the radius toward the pointer", func() {
			f := still(500, 500)
			f.SetPointer(560, 420, true)

			f.Step(1)

			p := f.Particles()[0]
			dirX, dirY := 60.0, -80.0
			Expect(p.VX*dirX + p.VY*dirY).To(BeNumerically(">", 0))

			// (R-d)/R * coeff * friction along the unit direction
			expected := (150.0 - 100.0) / 150.0 * 0.5 * 0.99
			Expect(p.Speed()).To(BeNumerically("~", expected, 1e-9))
		})

		It("ignores a pointer beyond the radius", func() {
			f := still(500, 500)
			f.SetPointer(500, 651, true)
			f.Step(1)
			p := f.Particles()[0]
			Expect(p.VX).To(Equal(0.0))
			Expect(p.VY).To(Equal(0.0))
		})

		It("ignores an inactive pointer", func() {
			f := still(500, 500)
			f.SetPointer(510, 500, false)
			f.Step(1)
			Expect(f.Particles()[0].Speed()).To(Equal(0.0))
		})

		It("ignores a pointer exactly on the particle", func() {
			f := still(500, 500)
			f.SetPointer(500, 500, true)
			f.Step(1)
			Expect(f.Particles()[0].Speed()).To(Equal(0.0))
		})

		It("honours tuned constants", func() {
			f := still(500, 500, particles.WithRadius(20), particles.WithAttraction(2))
			f.SetPointer(510, 500, true)
			f.Step(1)
			Expect(f.Particles()[0].VX).To(BeNumerically("~", (20.0-10.0)/20.0*2*0.99, 1e-9))
		})

		It("decays speed through friction alone", func() {
			f := still(500, 500)
			Expect(f.Place(0, particles.Particle{X: 500, Y: 500, VX: 1, VY: -1, Life: 1})).To(Succeed())

			prev := f.Particles()[0].Speed()
			for i := 0; i < 1000; i++ {
				f.Step(1)
				speed := f.Particles()[0].Speed()
				Expect(speed).To(BeNumerically("<", prev))
				prev = speed
			}
			Expect(prev).To(BeNumerically("<", 1e-4))
		})

		It("keeps a resting particle at rest", func() {
			f := still(10, 10)
			for i := 0; i < 10; i++ {
				f.Step(1)
			}
			Expect(f.Particles()[0].Speed()).To(Equal(0.0))
			Expect(f.Steps()).To(Equal(10))
		})

		It("treats a non-positive dt as one frame", func() {
			a := still(500, 500)
			b := still(500, 500)
			Expect(a.Place(0, particles.Particle{X: 500, Y: 500, VX: 3, Life: 1})).To(Succeed())
			Expect(b.Place(0, particles.Particle{X: 500, Y: 500, VX: 3, Life: 1})).To(Succeed())
			a.Step(1)
			b.Step(0)
			Expect(b.Particles()).To(Equal(a.Particles()))
		})

		It("flickers life without leaving [0, 1]", func() {
			f, _ := particles.New(50, particles.Bounds{Width: 100, Height: 100},
				particles.WithSeed(5), particles.WithFlicker(0.2))
			for i := 0; i < 200; i++ {
				f.Step(1)
				for _, p := range f.Particles() {
					Expect(p.Life).To(BeNumerically(">=", 0))
					Expect(p.Life).To(BeNumerically("<=", 1))
				}
			}
		})
	})

	Describe("snapshots", func() {
		It("cannot be used to mutate the field", func() {
			f := still(1, 1)
			snap := f.Particles()
			snap[0].X = 999
			Expect(f.Particles()[0].X).To(Equal(1.0))
		})

		It("rejects placing outside the index range", func() {
			f := still(1, 1)
			Expect(f.Place(3, particles.Particle{})).To(MatchError(particles.ErrIndex))
		})
	})

	Describe("Repaint", func() {
		It("cycles the palette by particle ID", func() {
			f, _ := particles.New(5, particles.Bounds{Width: 10, Height: 10}, particles.WithSeed(4))
			f.Repaint("#000000", "#ffffff")
			for _, p := range f.Particles() {
				Expect(p.Color).To(Equal([]string{"#000000", "#ffffff"}[p.ID%2]))
			}
			Expect(f.Options().Palette).To(Equal([]string{"#000000", "#ffffff"}))

			f.Repaint()
			Expect(f.Particles()[0].Color).To(Equal(particles.DefaultPalette()[0]))
		})
	})

	Describe("Resize", func() {
		It("clamps particles into smaller bounds", func() {
			f, _ := particles.New(100, particles.Bounds{Width: 400, Height: 400}, particles.WithSeed(11))
			Expect(f.Resize(particles.Bounds{Width: 40, Height: 30})).To(Succeed())
			for _, p := range f.Particles() {
				Expect(p.X).To(BeNumerically("<=", 40))
				Expect(p.Y).To(BeNumerically("<=", 30))
			}
		})
	})

	Describe("Render", func() {
		It("clears and draws one circle per particle scaled to the surface", func() {
			f := still(500, 250)
			s := &recordingSurface{w: 100, h: 50}

			f.Render(s)

			Expect(s.clears).To(Equal(1))
			Expect(s.circles).To(HaveLen(1))
			c := s.circles[0]
			Expect(c.X).To(BeNumerically("~", 50, 1e-9))
			Expect(c.Y).To(BeNumerically("~", 12.5, 1e-9))
			Expect(c.Alpha).To(Equal(1.0))
		})

		It("only clears an empty surface", func() {
			f := still(1, 1)
			s := &recordingSurface{}
			f.Render(s)
			Expect(s.clears).To(Equal(1))
			Expect(s.circles).To(BeEmpty())
		})

		It("draws stored snapshots without a field", func() {
			s := &recordingSurface{w: 200, h: 100}
			ps := []particles.Particle{
				{X: 10, Y: 10, Radius: 2, Color: "#fff", Life: 0.5},
				{X: 90, Y: 40, Radius: 1, Color: "#000", Life: 1},
			}

			particles.Draw(s, ps, particles.Bounds{Width: 100, Height: 50})

			Expect(s.circles).To(HaveLen(2))
			Expect(s.circles[0].X).To(BeNumerically("~", 20, 1e-9))
			Expect(s.circles[1].Y).To(BeNumerically("~", 80, 1e-9))
			Expect(s.circles[0].R).To(BeNumerically("~", 4, 1e-9))
			Expect(s.circles[0].Alpha).To(Equal(0.5))
		})
	})

	Describe("Attach and Dispose", func() {
		It("steps and renders on every frame until disposed", func() {
			frames := newManualFrames()
			s := &recordingSurface{w: 10, h: 10}
			f := still(5, 5)

			Expect(f.Attach(frames, s)).To(Succeed())
			frames.Frame()
			frames.Frame()
			Expect(f.Steps()).To(Equal(2))
			Expect(s.clears).To(Equal(2))

			f.Dispose()
			f.Dispose()
			Expect(frames.Subscribers()).To(Equal(0))
			Expect(frames.cancels).To(Equal(1))

			frames.Frame()
			Expect(f.Steps()).To(Equal(2))
			Expect(f.Disposed()).To(BeTrue())
		})

		It("replaces an earlier subscription", func() {
			frames := newManualFrames()
			f := still(5, 5)
			Expect(f.Attach(frames, nil)).To(Succeed())
			Expect(f.Attach(frames, nil)).To(Succeed())
			Expect(frames.Subscribers()).To(Equal(1))
			frames.Frame()
			Expect(f.Steps()).To(Equal(1))
		})

		It("refuses to attach after disposal", func() {
			f := still(5, 5)
			f.Dispose()
			Expect(f.Attach(newManualFrames(), nil)).To(MatchError(particles.ErrDisposed))
		})
	})
})

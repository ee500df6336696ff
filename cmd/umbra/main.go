// umbra - software rasterizer with shadow mapping
// Renders OBJ and GLB files to PNG through a two-pass pipeline: a depth
// pass from the light builds the shadow map, then a Blinn-Phong pass
// from the eye shades with textures, normal maps and PCF shadows.
//
// With -preview the render runs in the terminal instead:
//
//	Mouse drag  - Rotate model (yaw/pitch)
//	Mouse wheel - Zoom
//	W/S/A/D     - Pitch and yaw
//	Space       - Apply random impulse
//	R           - Reset rotation
//	Esc         - Quit
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/harmonica"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/umbra3d/umbra/pkg/math3d"
	"github.com/umbra3d/umbra/pkg/models"
	"github.com/umbra3d/umbra/pkg/render"
)

var (
	width      = flag.Int("width", 800, "Output image width")
	height     = flag.Int("height", 800, "Output image height")
	shadowSize = flag.Int("shadow-size", 800, "Shadow map resolution")
	msaa       = flag.Bool("msaa", true, "Enable 4x multisampling")
	frameOut   = flag.String("out", "frame.png", "Output image path")
	depthOut   = flag.String("depth-out", "", "Also save the shadow map visualization (PNG path)")
	eyeFlag    = flag.String("eye", "1,1,3", "Camera position (X,Y,Z)")
	lightFlag  = flag.String("light", "1,1,1", "Light position (X,Y,Z)")
	floor      = flag.Bool("floor", true, "Add a checkered ground plane")
	floorY     = flag.Float64("floor-y", -1.0, "Ground plane height")
	preview    = flag.Bool("preview", false, "Render interactively in the terminal")
	targetFPS  = flag.Int("fps", 30, "Target FPS for -preview")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "umbra - software rasterizer with shadow mapping\n\n")
		fmt.Fprintf(os.Stderr, "Usage: umbra [options] <model.obj|model.glb> [more models...]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	if err := run(flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// parseVec3 parses an "X,Y,Z" flag value, keeping the fallback on error.
func parseVec3(s string, fallback math3d.Vec3) math3d.Vec3 {
	var x, y, z float64
	if n, err := fmt.Sscanf(s, "%f,%f,%f", &x, &y, &z); err != nil || n != 3 {
		return fallback
	}
	return math3d.V3(x, y, z)
}

// loadObject loads one model file and its textures into a scene object.
func loadObject(path string) (*render.Object, error) {
	mat := &render.TextureSet{}
	var mesh *models.Mesh
	var err error

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".glb", ".gltf":
		m, img, gerr := models.LoadGLBWithTexture(path)
		if gerr != nil {
			return nil, fmt.Errorf("load model: %w", gerr)
		}
		mesh = m
		if img != nil {
			mat.DiffuseMap = render.TextureFromImage(img)
		}
	case ".obj":
		mesh, err = models.LoadOBJ(path)
		if err != nil {
			return nil, fmt.Errorf("load model: %w", err)
		}
		diffuse, normal, specular := models.DiscoverMaps(path)
		if diffuse != nil {
			mat.DiffuseMap = render.TextureFromImage(diffuse)
		}
		if normal != nil {
			mat.NormalMap = render.TextureFromImage(normal)
		}
		if specular != nil {
			mat.SpecularMap = render.TextureFromImage(specular)
		}
	default:
		return nil, fmt.Errorf("unsupported format: %s (use .obj or .glb)", ext)
	}

	if mat.DiffuseMap == nil {
		mat.DiffuseMap = render.NewCheckerTexture(64, 64, 8, render.RGB(200, 200, 200), render.RGB(100, 100, 100))
	}
	if mat.NormalMap == nil {
		mat.NormalMap = flatNormalMap()
	}

	fmt.Fprintf(os.Stderr, "Loaded: %s (%d vertices, %d triangles)\n",
		filepath.Base(path), mesh.VertexCount(), mesh.TriangleCount())

	return &render.Object{
		Mesh:      mesh,
		Transform: fitTransform(mesh),
		Material:  mat,
	}, nil
}

// fitTransform centers a mesh at the origin and scales it to fit the
// default camera framing.
func fitTransform(mesh *models.Mesh) math3d.Mat4 {
	size := mesh.Size()
	maxDim := max(size.X, size.Y, size.Z)
	if maxDim <= 0 {
		return math3d.Identity()
	}
	scale := 2.0 / maxDim
	return math3d.ScaleUniform(scale).Mul(math3d.Translate(mesh.Center().Negate()))
}

// flatNormalMap is the identity tangent-space normal (straight up).
func flatNormalMap() *render.Texture {
	tex := render.NewTexture(1, 1)
	tex.SetPixel(0, 0, render.RGB(127, 127, 255))
	return tex
}

// floorObject builds a checkered ground quad facing +Y.
func floorObject(y float64) *render.Object {
	const s = 2.0
	mesh := models.NewMesh("floor")
	corners := [4]math3d.Vec3{
		math3d.V3(-s, y, s),
		math3d.V3(s, y, s),
		math3d.V3(s, y, -s),
		math3d.V3(-s, y, -s),
	}
	uvs := [4]math3d.Vec2{
		math3d.V2(0, 0), math3d.V2(4, 0), math3d.V2(4, 4), math3d.V2(0, 4),
	}
	for i := range 4 {
		mesh.Vertices = append(mesh.Vertices, models.MeshVertex{
			Position: corners[i],
			Normal:   math3d.Up(),
			UV:       uvs[i],
		})
	}
	mesh.Faces = []models.Face{
		{V: [3]int{0, 1, 2}, Material: -1},
		{V: [3]int{0, 2, 3}, Material: -1},
	}
	mesh.CalculateBounds()

	return &render.Object{
		Mesh:      mesh,
		Transform: math3d.Identity(),
		Material: &render.TextureSet{
			DiffuseMap: render.NewCheckerTexture(128, 128, 16, render.RGB(180, 180, 180), render.RGB(90, 90, 90)),
			NormalMap:  flatNormalMap(),
		},
	}
}

func buildScene(paths []string) (*render.Scene, error) {
	scene := render.NewScene()
	scene.Eye = parseVec3(*eyeFlag, scene.Eye)
	scene.LightPos = parseVec3(*lightFlag, scene.LightPos)

	for _, path := range paths {
		obj, err := loadObject(path)
		if err != nil {
			return nil, err
		}
		scene.Objects = append(scene.Objects, obj)
	}
	if *floor {
		scene.Objects = append(scene.Objects, floorObject(*floorY))
	}
	return scene, nil
}

func run(paths []string) error {
	scene, err := buildScene(paths)
	if err != nil {
		return err
	}

	if *preview {
		return runPreview(scene)
	}
	return renderToFiles(scene)
}

func renderToFiles(scene *render.Scene) error {
	offsets := render.CenterSample
	if *msaa {
		offsets = render.MSAA4
	}

	start := time.Now()
	shadow := render.NewSampleBuffer(*shadowSize, *shadowSize, 1)
	lightVPV := scene.ShadowPass(shadow)
	fmt.Fprintf(os.Stderr, "Shadow pass: %dx%d in %v\n", shadow.Width, shadow.Height, time.Since(start).Round(time.Millisecond))

	if *depthOut != "" {
		fb := render.NewFramebuffer(shadow.Width, shadow.Height)
		shadow.Resolve(fb)
		if err := fb.SavePNG(*depthOut); err != nil {
			return fmt.Errorf("save depth image: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Wrote %s\n", *depthOut)
	}

	start = time.Now()
	frame := render.NewSampleBuffer(*width, *height, len(offsets))
	scene.LitPass(frame, shadow, lightVPV, offsets)
	fmt.Fprintf(os.Stderr, "Lit pass: %dx%d, %d samples/pixel in %v\n",
		frame.Width, frame.Height, frame.Samples, time.Since(start).Round(time.Millisecond))

	fb := render.NewFramebuffer(frame.Width, frame.Height)
	frame.Resolve(fb)
	if err := fb.SavePNG(*frameOut); err != nil {
		return fmt.Errorf("save frame: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Wrote %s\n", *frameOut)
	return nil
}

// RotationAxis tracks position and velocity for one rotation axis with
// spring decay.
type RotationAxis struct {
	Position  float64
	Velocity  float64
	velSpring harmonica.Spring
	velAccel  float64 // internal spring velocity (for animating Velocity toward 0)
}

// NewRotationAxis creates an axis with harmonica spring for smooth
// velocity decay.
func NewRotationAxis(fps int) RotationAxis {
	return RotationAxis{
		// Frequency 4.0 = moderate speed, damping 1.0 = critically damped (no overshoot)
		velSpring: harmonica.NewSpring(harmonica.FPS(fps), 4.0, 1.0),
	}
}

// Update applies velocity to position and decays velocity toward 0.
func (a *RotationAxis) Update() {
	a.Position += a.Velocity
	a.Velocity, a.velAccel = a.velSpring.Update(a.Velocity, a.velAccel, 0)
}

// RotationState holds model rotation with harmonica spring physics.
type RotationState struct {
	Pitch, Yaw RotationAxis
	fps        int
}

func NewRotationState(fps int) *RotationState {
	return &RotationState{
		Pitch: NewRotationAxis(fps),
		Yaw:   NewRotationAxis(fps),
		fps:   fps,
	}
}

func (r *RotationState) Update() {
	r.Pitch.Update()
	r.Yaw.Update()
}

func (r *RotationState) ApplyImpulse(pitch, yaw float64) {
	r.Pitch.Velocity += pitch
	r.Yaw.Velocity += yaw
}

func (r *RotationState) Reset() {
	r.Pitch = NewRotationAxis(r.fps)
	r.Yaw = NewRotationAxis(r.fps)
}

// Transform returns the combined model rotation.
func (r *RotationState) Transform() math3d.Mat4 {
	return math3d.RotateX(r.Pitch.Position).Mul(math3d.RotateY(r.Yaw.Position))
}

func runPreview(scene *render.Scene) error {
	term := uv.DefaultTerminal()

	termWidth, termHeight, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}

	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}

	term.EnterAltScreen()
	term.HideCursor()
	term.Resize(termWidth, termHeight)

	// Enable mouse mode
	fmt.Fprint(os.Stdout, "\x1b[?1003h") // Enable any-event mouse tracking
	fmt.Fprint(os.Stdout, "\x1b[?1006h") // Enable SGR extended mouse mode

	termRenderer := render.NewTerminalRenderer(term, termWidth, termHeight)
	fbWidth, fbHeight := termRenderer.FramebufferSize()
	fb := render.NewFramebuffer(fbWidth, fbHeight)

	// Preview trades quality for speed: single sample, small shadow map.
	const previewShadowSize = 256
	shadow := render.NewSampleBuffer(previewShadowSize, previewShadowSize, 1)
	frame := render.NewSampleBuffer(fbWidth, fbHeight, 1)

	// Base transforms are restored each frame before applying rotation.
	baseTransforms := make([]math3d.Mat4, len(scene.Objects))
	for i, obj := range scene.Objects {
		baseTransforms[i] = obj.Transform
	}

	rotation := NewRotationState(*targetFPS)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	inputTorque := struct{ pitch, yaw float64 }{}
	const torqueStrength = 3.0

	var mouseDown bool
	var lastMouseX, lastMouseY int

	go func() {
		for ev := range term.Events() {
			switch ev := ev.(type) {
			case uv.WindowSizeEvent:
				termWidth, termHeight = ev.Width, ev.Height
				term.Erase()
				term.Resize(termWidth, termHeight)
				termRenderer = render.NewTerminalRenderer(term, termWidth, termHeight)
				fbWidth, fbHeight = termRenderer.FramebufferSize()
				fb = render.NewFramebuffer(fbWidth, fbHeight)
				frame = render.NewSampleBuffer(fbWidth, fbHeight, 1)

			case uv.KeyPressEvent:
				switch {
				case ev.MatchString("escape"), ev.MatchString("ctrl+c"):
					cancel()
					return
				case ev.MatchString("r"):
					rotation.Reset()
				case ev.MatchString("w", "up"):
					inputTorque.pitch = -torqueStrength
				case ev.MatchString("s", "down"):
					inputTorque.pitch = torqueStrength
				case ev.MatchString("a", "left"):
					inputTorque.yaw = -torqueStrength
				case ev.MatchString("d", "right"):
					inputTorque.yaw = torqueStrength
				case ev.MatchString("space"):
					rotation.ApplyImpulse(
						(rand.Float64()-0.5)*1.5,
						(rand.Float64()-0.5)*1.5,
					)
				}

			case uv.KeyReleaseEvent:
				switch {
				case ev.MatchString("w"), ev.MatchString("up"), ev.MatchString("s"), ev.MatchString("down"):
					inputTorque.pitch = 0
				case ev.MatchString("a"), ev.MatchString("left"), ev.MatchString("d"), ev.MatchString("right"):
					inputTorque.yaw = 0
				}

			case uv.MouseClickEvent:
				mouseDown = true
				lastMouseX, lastMouseY = ev.X, ev.Y

			case uv.MouseReleaseEvent:
				mouseDown = false

			case uv.MouseMotionEvent:
				if mouseDown {
					dx := ev.X - lastMouseX
					dy := ev.Y - lastMouseY
					rotation.ApplyImpulse(float64(dy)*0.03, float64(dx)*0.03)
					lastMouseX, lastMouseY = ev.X, ev.Y
				}

			case uv.MouseWheelEvent:
				dist := scene.Eye.Len()
				switch ev.Button {
				case uv.MouseWheelUp:
					if dist > 1 {
						scene.Eye = scene.Eye.Scale((dist - 0.5) / dist)
					}
				case uv.MouseWheelDown:
					if dist < 20 {
						scene.Eye = scene.Eye.Scale((dist + 0.5) / dist)
					}
				}
			}
		}
	}()

	targetDuration := time.Second / time.Duration(*targetFPS)
	lastFrame := time.Now()

	cleanup := func() {
		fmt.Fprint(os.Stdout, "\x1b[?1003l")
		fmt.Fprint(os.Stdout, "\x1b[?1006l")
		term.ExitAltScreen()
		term.ShowCursor()
		term.Shutdown(context.Background())
	}

	for {
		select {
		case <-ctx.Done():
			cleanup()
			return nil
		default:
		}

		now := time.Now()
		dt := now.Sub(lastFrame).Seconds()
		lastFrame = now

		if dt > 0.1 {
			dt = 0.1
		}

		// Apply input torque and decay it (key release events unreliable)
		rotation.ApplyImpulse(inputTorque.pitch*dt, inputTorque.yaw*dt)
		inputTorque.pitch *= 0.9
		inputTorque.yaw *= 0.9

		rotation.Update()

		model := rotation.Transform()
		for i, obj := range scene.Objects {
			obj.Transform = model.Mul(baseTransforms[i])
		}

		shadow.Clear()
		frame.Clear()
		lightVPV := scene.ShadowPass(shadow)
		scene.LitPass(frame, shadow, lightVPV, render.CenterSample)
		frame.Resolve(fb)

		termRenderer.Render(fb)
		if err := termRenderer.Flush(); err != nil {
			cleanup()
			return fmt.Errorf("flush: %w", err)
		}

		elapsed := time.Since(now)
		if elapsed < targetDuration {
			time.Sleep(targetDuration - elapsed)
		}
	}
}

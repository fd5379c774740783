// Package renderer draws lobby meshes and debug overlays with OpenGL.
// Every method must be called on the thread that owns the GL context.
package renderer

import (
	"fmt"
	"image"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-lobby/internal/engine/debug"
	"github.com/Faultbox/midgard-lobby/internal/engine/mesh"
	"github.com/Faultbox/midgard-lobby/internal/engine/shader"
	"github.com/Faultbox/midgard-lobby/internal/logger"
	"github.com/Faultbox/midgard-lobby/pkg/math"
)

var log = logger.Named("renderer")

// Material base colors, RGBA.
var materialColors = map[mesh.Material][4]float32{
	mesh.MaterialFloor:   {0.55, 0.52, 0.48, 1},
	mesh.MaterialCeiling: {0.85, 0.85, 0.88, 1},
	mesh.MaterialWall:    {0.78, 0.76, 0.72, 1},
	mesh.MaterialGlass:   {0.6, 0.8, 0.9, 0.35},
	mesh.MaterialFrame:   {0.25, 0.22, 0.2, 1},
	mesh.MaterialCard:    {0.95, 0.95, 0.95, 1},
}

var defaultLightDir = math.Vec3{X: -0.3, Y: -1, Z: -0.4}.Normalize()

// TextureSource is a card texture that can be uploaded once and carries
// its GPU handle afterwards.
type TextureSource interface {
	mesh.Disposable
	RGBA() *image.RGBA
	Attach(gpu mesh.Disposable)
	GPU() mesh.Disposable
}

// gpuMesh holds the buffers of one uploaded mesh.
type gpuMesh struct {
	vao, vbo, ebo uint32
	count         int32
}

func (g *gpuMesh) Dispose() {
	if g.vao == 0 {
		return
	}
	gl.DeleteVertexArrays(1, &g.vao)
	gl.DeleteBuffers(1, &g.vbo)
	gl.DeleteBuffers(1, &g.ebo)
	g.vao, g.vbo, g.ebo = 0, 0, 0
}

type gpuTexture struct {
	id uint32
}

func (g *gpuTexture) Dispose() {
	if g.id != 0 {
		gl.DeleteTextures(1, &g.id)
		g.id = 0
	}
}

// Renderer owns the GL programs and the dynamic line buffer.
type Renderer struct {
	width, height int

	meshProg *shader.Program
	lineProg *shader.Program
	lineVAO  uint32
	lineVBO  uint32
	lineCap  int
	lightDir math.Vec3

	// HideCeilings skips ceiling meshes, for views from above.
	HideCeilings bool

	uploaded int
}

// New initializes OpenGL and compiles the programs. It must be called after
// the GL context is current.
func New(width, height int) (*Renderer, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.ClearColor(0.1, 0.1, 0.15, 1.0)

	r := &Renderer{lightDir: defaultLightDir}
	var err error
	if r.meshProg, err = shader.Compile("mesh", meshVertex, meshFragment); err != nil {
		return nil, err
	}
	if r.lineProg, err = shader.Compile("line", lineVertex, lineFragment); err != nil {
		r.meshProg.Delete()
		return nil, err
	}

	gl.GenVertexArrays(1, &r.lineVAO)
	gl.GenBuffers(1, &r.lineVBO)
	gl.BindVertexArray(r.lineVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.lineVBO)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, 3*4, nil)
	gl.EnableVertexAttribArray(0)
	gl.BindVertexArray(0)

	r.Resize(width, height)
	return r, nil
}

// Close releases the programs and line buffers. Mesh buffers are released
// by disposing the meshes.
func (r *Renderer) Close() {
	gl.DeleteVertexArrays(1, &r.lineVAO)
	gl.DeleteBuffers(1, &r.lineVBO)
	r.lineProg.Delete()
	r.meshProg.Delete()
}

// SetLightDir sets the direction the scene light travels.
func (r *Renderer) SetLightDir(d math.Vec3) {
	if d.Length() == 0 {
		return
	}
	r.lightDir = d.Normalize()
}

// Resize updates the viewport.
func (r *Renderer) Resize(width, height int) {
	r.width, r.height = width, height
	gl.Viewport(0, 0, int32(width), int32(height))
}

// Aspect returns the viewport aspect ratio.
func (r *Renderer) Aspect() float32 {
	if r.height == 0 {
		return 1
	}
	return float32(r.width) / float32(r.height)
}

// Begin clears the frame.
func (r *Renderer) Begin() {
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// Upload creates GPU buffers for m and its texture. It matches the
// mesh.Scene OnAdd hook signature.
func (r *Renderer) Upload(tag string, m *mesh.Mesh) {
	if m.Disposed() || m.GPU() != nil || len(m.Indices) == 0 {
		return
	}

	g := &gpuMesh{count: int32(len(m.Indices))}
	gl.GenVertexArrays(1, &g.vao)
	gl.BindVertexArray(g.vao)

	stride := int32(unsafe.Sizeof(mesh.Vertex{}))
	gl.GenBuffers(1, &g.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, g.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(m.Vertices)*int(stride), unsafe.Pointer(&m.Vertices[0]), gl.STATIC_DRAW)

	gl.GenBuffers(1, &g.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, g.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(m.Indices)*4, unsafe.Pointer(&m.Indices[0]), gl.STATIC_DRAW)

	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, stride, nil)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, stride, 3*4)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointerWithOffset(2, 2, gl.FLOAT, false, stride, 6*4)
	gl.EnableVertexAttribArray(2)
	gl.BindVertexArray(0)

	m.Attach(g)
	r.uploaded++

	if src, ok := m.Texture.(TextureSource); ok && src.GPU() == nil {
		if tex := uploadTexture(src.RGBA()); tex != nil {
			src.Attach(tex)
		}
	}
	log.Debug("mesh uploaded", zap.String("tag", tag), zap.String("mesh", m.Name), zap.Int32("indices", g.count))
}

func uploadTexture(img *image.RGBA) *gpuTexture {
	if img == nil || img.Rect.Empty() {
		return nil
	}
	t := &gpuTexture{}
	gl.GenTextures(1, &t.id)
	gl.BindTexture(gl.TEXTURE_2D, t.id)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, int32(img.Stride/4))
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA,
		int32(img.Rect.Dx()), int32(img.Rect.Dy()), 0,
		gl.RGBA, gl.UNSIGNED_BYTE, unsafe.Pointer(&img.Pix[0]))
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, 0)
	gl.GenerateMipmap(gl.TEXTURE_2D)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return t
}

// DrawMeshes draws every mesh visited by each. Meshes not yet uploaded are
// uploaded first. Glass is drawn after opaque surfaces.
func (r *Renderer) DrawMeshes(viewProj math.Mat4, each func(fn func(tag string, m *mesh.Mesh))) {
	r.meshProg.Use()
	r.meshProg.SetMat4("uViewProj", viewProj)
	r.meshProg.SetVec3("uLightDir", r.lightDir)
	r.meshProg.SetInt("uTexture", 0)

	var glass []*mesh.Mesh
	each(func(tag string, m *mesh.Mesh) {
		r.Upload(tag, m)
		if r.HideCeilings && m.Material == mesh.MaterialCeiling {
			return
		}
		if m.Material == mesh.MaterialGlass {
			glass = append(glass, m)
			return
		}
		r.drawMesh(m)
	})

	gl.DepthMask(false)
	for _, m := range glass {
		r.drawMesh(m)
	}
	gl.DepthMask(true)
}

func (r *Renderer) drawMesh(m *mesh.Mesh) {
	g, ok := m.GPU().(*gpuMesh)
	if !ok || g.vao == 0 {
		return
	}
	c := materialColors[m.Material]
	r.meshProg.SetVec4("uColor", c[0], c[1], c[2], c[3])

	textured := int32(0)
	if src, ok := m.Texture.(TextureSource); ok {
		if t, ok := src.GPU().(*gpuTexture); ok && t.id != 0 {
			gl.ActiveTexture(gl.TEXTURE0)
			gl.BindTexture(gl.TEXTURE_2D, t.id)
			textured = 1
		}
	}
	r.meshProg.SetInt("uTextured", textured)

	gl.BindVertexArray(g.vao)
	gl.DrawElements(gl.TRIANGLES, g.count, gl.UNSIGNED_INT, nil)
	gl.BindVertexArray(0)
}

// DrawLines draws overlay batches on top of the scene.
func (r *Renderer) DrawLines(viewProj math.Mat4, batches []debug.Batch) {
	total := 0
	for _, b := range batches {
		total += len(b.Vertices)
	}
	if total == 0 {
		return
	}

	gl.BindVertexArray(r.lineVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.lineVBO)
	if total > r.lineCap {
		r.lineCap = total
		gl.BufferData(gl.ARRAY_BUFFER, r.lineCap*4, nil, gl.DYNAMIC_DRAW)
	}

	r.lineProg.Use()
	r.lineProg.SetMat4("uViewProj", viewProj)
	gl.Disable(gl.DEPTH_TEST)

	offset := 0
	for _, b := range batches {
		if len(b.Vertices) == 0 {
			continue
		}
		gl.BufferSubData(gl.ARRAY_BUFFER, offset*4, len(b.Vertices)*4, unsafe.Pointer(&b.Vertices[0]))
		r.lineProg.SetVec4("uColor", b.Color[0], b.Color[1], b.Color[2], 1)
		gl.DrawArrays(gl.LINES, int32(offset/3), int32(len(b.Vertices)/3))
		offset += len(b.Vertices)
	}

	gl.Enable(gl.DEPTH_TEST)
	gl.BindVertexArray(0)
}

// ReadPixels returns the current framebuffer as bottom-up RGBA rows.
func (r *Renderer) ReadPixels() ([]byte, int, int) {
	pixels := make([]byte, r.width*r.height*4)
	if len(pixels) == 0 {
		return nil, 0, 0
	}
	gl.ReadPixels(0, 0, int32(r.width), int32(r.height), gl.RGBA, gl.UNSIGNED_BYTE, unsafe.Pointer(&pixels[0]))
	return pixels, r.width, r.height
}

// Uploaded returns how many meshes have been uploaded.
func (r *Renderer) Uploaded() int {
	return r.uploaded
}

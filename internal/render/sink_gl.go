package render

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v3.2-compatibility/gl"
	"github.com/go-gl/glfw/v3.2/glfw"
)

const glVertexShader = `
#version 150
in vec3 vert;
in vec2 vertTexCoord;
out vec2 fragTexCoord;
void main() {
	fragTexCoord = vertTexCoord;
	gl_Position = vec4(vert, 1.0);
}
` + "\x00"

const glFragmentShader = `
#version 150
uniform sampler2D tex;
in vec2 fragTexCoord;
out vec4 outColor;
void main() {
	outColor = texture(tex, fragTexCoord);
}
` + "\x00"

// GLSink is the optional, swappable display Sink backed by go-gl/glfw: it
// uploads each finished frame as an RGBA texture and draws it across a
// screen-sized quad, generalizing the teacher's OpenGLRenderer from a
// 1-bit-per-pixel 64x32 screen to our already-expanded 960x600 ARGB frame.
type GLSink struct {
	window   *glfw.Window
	program  uint32
	texture  uint32
	vao      uint32
	rgba     []byte
}

// NewGLSink initializes GL state against an already-current-context window
// (the caller owns glfw.Init/window creation, exactly as the teacher's
// main.go does before constructing its OpenGLRenderer).
func NewGLSink(window *glfw.Window) (*GLSink, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("render: gl init: %w", err)
	}

	s := &GLSink{window: window}

	vs, err := compileShader(glVertexShader, gl.VERTEX_SHADER)
	if err != nil {
		return nil, err
	}
	fs, err := compileShader(glFragmentShader, gl.FRAGMENT_SHADER)
	if err != nil {
		return nil, err
	}
	s.program = gl.CreateProgram()
	gl.AttachShader(s.program, vs)
	gl.AttachShader(s.program, fs)
	gl.LinkProgram(s.program)
	gl.DeleteShader(vs)
	gl.DeleteShader(fs)

	vertices := []float32{
		// x, y, z,     s, t
		-1, 1, 0, 0, 1,
		-1, -1, 0, 0, 0,
		1, 1, 0, 1, 1,
		1, -1, 0, 1, 0,
	}
	indices := []uint32{0, 1, 3, 0, 3, 2}

	gl.GenVertexArrays(1, &s.vao)
	gl.BindVertexArray(s.vao)

	var vbo, ebo uint32
	gl.GenBuffers(1, &vbo)
	gl.GenBuffers(1, &ebo)

	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	gl.BufferData(gl.ARRAY_BUFFER, 4*len(vertices), gl.Ptr(vertices), gl.STATIC_DRAW)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, 4*len(indices), gl.Ptr(indices), gl.STATIC_DRAW)

	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, 5*4, nil)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(1, 2, gl.FLOAT, false, 5*4, gl.PtrOffset(3*4))
	gl.EnableVertexAttribArray(1)

	gl.GenTextures(1, &s.texture)
	gl.BindTexture(gl.TEXTURE_2D, s.texture)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)

	if err := gl.GetError(); err != gl.NO_ERROR {
		return nil, fmt.Errorf("render: gl setup error %#x", err)
	}
	return s, nil
}

// UpdateFrame implements Sink: it uploads pixels (already ARGB32, already
// scaled) as an RGBA texture and draws it, then swaps buffers and polls
// window events exactly as the teacher's main loop does.
func (s *GLSink) UpdateFrame(pixels []uint32, width, height int) error {
	if cap(s.rgba) < width*height*4 {
		s.rgba = make([]byte, width*height*4)
	}
	s.rgba = s.rgba[:width*height*4]
	for i, px := range pixels {
		s.rgba[i*4+0] = byte(px >> 16)
		s.rgba[i*4+1] = byte(px >> 8)
		s.rgba[i*4+2] = byte(px)
		s.rgba[i*4+3] = 0xFF
	}

	gl.ClearColor(0, 0, 0, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, s.texture)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, int32(width), int32(height), 0,
		gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(s.rgba))

	gl.UseProgram(s.program)
	gl.BindVertexArray(s.vao)
	gl.DrawElements(gl.TRIANGLES, 6, gl.UNSIGNED_INT, gl.PtrOffset(0))

	s.window.SwapBuffers()
	glfw.PollEvents()

	if err := gl.GetError(); err != gl.NO_ERROR {
		return fmt.Errorf("render: gl draw error %#x", err)
	}
	if s.window.ShouldClose() {
		return errWindowClosed
	}
	return nil
}

var errWindowClosed = fmt.Errorf("render: window close requested")

// ErrWindowClosed reports whether err signals a clean host shutdown request
// (the window's close button), per spec.md §6's "exit 0 on
// clean termination" contract.
func ErrWindowClosed(err error) bool {
	return err == errWindowClosed
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csources, free := gl.Strs(source)
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		return 0, fmt.Errorf("render: compile shader: %s", log)
	}
	return shader, nil
}

package glfwbackend

import (
	"github.com/go-gl/gl/v2.1/gl"

	"region-capture/src/overlay"
	"region-capture/src/screenshot"
)

type renderer struct{}

func (*renderer) Viewport(width, height int) {
	gl.Viewport(0, 0, int32(width), int32(height))
}

func (*renderer) Ortho(width, height int) {
	gl.MatrixMode(gl.PROJECTION)
	gl.LoadIdentity()
	gl.Ortho(0, float64(width), float64(height), 0, -1, 1)
	gl.MatrixMode(gl.MODELVIEW)
	gl.LoadIdentity()
}

func (*renderer) SetTexturing(enabled bool) {
	if enabled {
		gl.Enable(gl.TEXTURE_2D)
		gl.Enable(gl.BLEND)
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
		return
	}
	gl.Disable(gl.BLEND)
	gl.Disable(gl.TEXTURE_2D)
}

func (*renderer) UploadTexture(shot *screenshot.Screenshot) overlay.Texture {
	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(
		gl.TEXTURE_2D, 0, gl.RGBA,
		int32(shot.Width), int32(shot.Height), 0,
		gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(shot.Pix),
	)
	return overlay.Texture(tex)
}

func (*renderer) DrawQuad(tex overlay.Texture, width, height int) {
	w, h := float32(width), float32(height)
	gl.BindTexture(gl.TEXTURE_2D, uint32(tex))
	gl.Color4f(1, 1, 1, 1)
	gl.Begin(gl.QUADS)
	gl.TexCoord2f(0, 0)
	gl.Vertex2f(0, 0)
	gl.TexCoord2f(1, 0)
	gl.Vertex2f(w, 0)
	gl.TexCoord2f(1, 1)
	gl.Vertex2f(w, h)
	gl.TexCoord2f(0, 1)
	gl.Vertex2f(0, h)
	gl.End()
}

func (*renderer) DeleteTexture(tex overlay.Texture) {
	t := uint32(tex)
	gl.DeleteTextures(1, &t)
}

func (*renderer) Flush() {
	gl.Flush()
}

func (*renderer) ReadPixels(x, y, width, height int) []byte {
	pix := make([]byte, width*height*screenshot.BytesPerPixel)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(int32(x), int32(y), int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pix))
	return pix
}

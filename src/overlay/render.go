package overlay

// renderFrame draws every window and presents it.
func (sess *session) renderFrame() {
	for i, w := range sess.windows {
		sess.drawWindow(i, true)
		w.SwapBuffers()
	}
}

// drawWindow paints the screenshot of display i into its window without
// presenting. Texturing and blending are on only while the quad is drawn.
func (sess *session) drawWindow(i int, decorated bool) {
	w := sess.windows[i]
	r := sess.renderer()

	w.MakeContextCurrent()
	fbWidth, fbHeight := w.FramebufferSize()
	r.Viewport(fbWidth, fbHeight)
	r.Ortho(fbWidth, fbHeight)

	r.SetTexturing(true)
	tex := r.UploadTexture(sess.displays[i].Screenshot)
	r.DrawQuad(tex, fbWidth, fbHeight)
	r.DeleteTexture(tex)
	if decorated && sess.showEditors && sess.selector.decorator != nil {
		sess.selector.decorator(i, r, fbWidth, fbHeight)
	}
	r.SetTexturing(false)

	r.Flush()
}

package renderer

import "log/slog"

// FrameStats counts the work a RenderSystem submitted since the last ResetStats.
type FrameStats struct {
	Frames             uint64
	DrawCalls          uint64
	Primitives         uint64
	NativeStateChanges uint64
	ElidedStateChanges uint64
	BufferUploads      uint64
	UploadedBytes      uint64
	TextureUploads     uint64
}

// LogValue implements slog.LogValuer.
func (s FrameStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("frames", s.Frames),
		slog.Uint64("draw_calls", s.DrawCalls),
		slog.Uint64("primitives", s.Primitives),
		slog.Uint64("state_changes", s.NativeStateChanges),
		slog.Uint64("state_changes_elided", s.ElidedStateChanges),
		slog.Uint64("buffer_uploads", s.BufferUploads),
		slog.Uint64("uploaded_bytes", s.UploadedBytes),
		slog.Uint64("texture_uploads", s.TextureUploads),
	)
}

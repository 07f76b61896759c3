package window

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/static-triangle/internal/logging"
)

func TestCloseRequested(t *testing.T) {
	tests := []struct {
		name  string
		event sdl.Event
		want  bool
	}{
		{"quit", &sdl.QuitEvent{Type: sdl.QUIT}, true},
		{"window close", &sdl.WindowEvent{Type: sdl.WINDOWEVENT, Event: sdl.WINDOWEVENT_CLOSE}, true},
		{"window resized", &sdl.WindowEvent{Type: sdl.WINDOWEVENT, Event: sdl.WINDOWEVENT_RESIZED}, false},
		{"key press", &sdl.KeyboardEvent{Type: sdl.KEYDOWN}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, closeRequested(tt.event))
		})
	}
}

func TestHandleKeepsCloseRequest(t *testing.T) {
	w := &Window{logger: logging.Nop()}

	w.handle(&sdl.WindowEvent{Type: sdl.WINDOWEVENT, Event: sdl.WINDOWEVENT_MINIMIZED})
	require.False(t, w.closed)

	w.handle(&sdl.QuitEvent{Type: sdl.QUIT})
	w.handle(&sdl.WindowEvent{Type: sdl.WINDOWEVENT, Event: sdl.WINDOWEVENT_RESTORED})
	require.True(t, w.closed)
}

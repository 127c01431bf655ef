package upload

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestValidate(t *testing.T) {
	l := DefaultLimits()

	tests := []struct {
		name    string
		file    File
		wantErr error
	}{
		{"jpeg ok", File{Type: "image/jpeg", Size: 1024}, nil},
		{"png ok", File{Type: "image/png", Size: MaxSize}, nil},
		{"heic ok", File{Type: "image/heic", Size: 1}, nil},
		{"heif upper-case ok", File{Type: "IMAGE/HEIF", Size: 1}, nil},
		{"gif rejected", File{Type: "image/gif", Size: 1}, ErrUnsupportedType},
		{"empty type rejected", File{Size: 1}, ErrUnsupportedType},
		{"one byte over", File{Type: "image/jpeg", Size: MaxSize + 1}, ErrTooLarge},
		{"type checked first", File{Type: "application/pdf", Size: MaxSize + 1}, ErrUnsupportedType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := l.Validate(tt.file)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestMessage(t *testing.T) {
	l := DefaultLimits()
	assert.Equal(t, MsgUnsupportedType, Message(l.Validate(File{Type: "text/plain"})))
	assert.Equal(t, MsgTooLarge, Message(l.Validate(File{Type: "image/png", Size: MaxSize * 2})))
	assert.Empty(t, Message(nil))
}

func TestTypeByName(t *testing.T) {
	assert.Equal(t, "image/jpeg", TypeByName("crash.JPG"))
	assert.Equal(t, "image/jpeg", TypeByName("/tmp/crash.jpeg"))
	assert.Equal(t, "image/png", TypeByName("hood.png"))
	assert.Equal(t, "image/heic", TypeByName("IMG_0001.HEIC"))
	assert.Equal(t, "image/heif", TypeByName("x.heif"))
	assert.Empty(t, TypeByName("noext"))
}

func TestFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bumper.jpg")
	data := encodeJPEG(t, 8, 4)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	f, err := FromPath(path, MaxSize)
	require.NoError(t, err)
	assert.Equal(t, "bumper.jpg", f.Name)
	assert.Equal(t, "image/jpeg", f.Type)
	assert.Equal(t, int64(len(data)), f.Size)
	assert.Equal(t, data, f.Data)
}

func TestFromPathSkipsOversizedRead(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.png")
	require.NoError(t, os.WriteFile(path, make([]byte, 64), 0o644))

	f, err := FromPath(path, 10)
	require.NoError(t, err)
	assert.Nil(t, f.Data)
	assert.ErrorIs(t, Limits{MaxBytes: 10, AllowedTypes: DefaultAllowedTypes}.Validate(f), ErrTooLarge)
}

func TestFromPathErrors(t *testing.T) {
	_, err := FromPath(filepath.Join(t.TempDir(), "missing.jpg"), MaxSize)
	assert.Error(t, err)

	_, err = FromPath(t.TempDir(), MaxSize)
	assert.Error(t, err)
}

func TestStoreLifecycle(t *testing.T) {
	s := NewStore()
	data := []byte("abc")
	ref := s.Put(data)
	data[0] = 'z'

	got, ok := s.Get(ref)
	require.True(t, ok)
	assert.Equal(t, []byte("abc"), got)
	assert.Equal(t, 1, s.Len())

	other := s.Put(nil)
	assert.NotEqual(t, ref, other)

	s.Release(ref)
	_, ok = s.Get(ref)
	assert.False(t, ok)
	assert.Equal(t, 1, s.Len())
}

func TestStoreMeasure(t *testing.T) {
	s := NewStore()

	jpg := s.Put(encodeJPEG(t, 640, 480))
	d, ok := s.Measure(jpg)
	require.True(t, ok)
	assert.Equal(t, Dimensions{Width: 640, Height: 480}, d)

	pngRef := s.Put(encodePNG(t, 300, 200))
	d, ok = s.Measure(pngRef)
	require.True(t, ok)
	assert.Equal(t, Dimensions{Width: 300, Height: 200}, d)

	heic := s.Put([]byte("\x00\x00\x00\x18ftypheic"))
	_, ok = s.Measure(heic)
	assert.False(t, ok)

	_, ok = s.Measure("blob:missing")
	assert.False(t, ok)
}

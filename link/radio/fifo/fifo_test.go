package fifo

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/softkb/link"
	"github.com/ardnew/softkb/pkg"
)

var (
	left  = link.MustParseAddr("48:27:e2:0d:73:70")
	right = link.MustParseAddr("48:27:e2:0d:6e:98")
	third = link.MustParseAddr("02:00:00:00:00:03")
)

func openRadio(t *testing.T, dir string, addr link.Addr) *Radio {
	t.Helper()
	r, err := Open(dir, addr)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestRadio_Delivery(t *testing.T) {
	dir, err := NewBusDir(t.TempDir())
	require.NoError(t, err)

	rl := openRadio(t, dir, left)
	rr := openRadio(t, dir, right)

	buf := make([]byte, link.MaxPayload)
	_, _, err = rl.Receive(buf)
	assert.ErrorIs(t, err, pkg.ErrNoFrame)

	require.NoError(t, rr.Send(left, []byte{0x00, 0x80, 0x00}))
	require.NoError(t, rr.Send(left, []byte{0x01, 0x00, 0x00}))

	src, n, err := rl.Receive(buf)
	require.NoError(t, err)
	assert.Equal(t, right, src)
	assert.Equal(t, []byte{0x00, 0x80, 0x00}, buf[:n])

	src, n, err = rl.Receive(buf)
	require.NoError(t, err)
	assert.Equal(t, right, src)
	assert.Equal(t, []byte{0x01, 0x00, 0x00}, buf[:n])

	_, _, err = rl.Receive(buf)
	assert.ErrorIs(t, err, pkg.ErrNoFrame)
}

func TestRadio_Broadcast(t *testing.T) {
	dir := t.TempDir()
	rl := openRadio(t, dir, left)
	rr := openRadio(t, dir, right)
	rt := openRadio(t, dir, third)

	require.NoError(t, rl.Send(link.Broadcast, []byte{0xAB}))

	buf := make([]byte, 4)
	for _, r := range []*Radio{rr, rt} {
		src, n, err := r.Receive(buf)
		require.NoError(t, err)
		assert.Equal(t, left, src)
		assert.Equal(t, []byte{0xAB}, buf[:n])
	}
	_, _, err := rl.Receive(buf)
	assert.ErrorIs(t, err, pkg.ErrNoFrame)
}

func TestRadio_AbsentPeer(t *testing.T) {
	dir := t.TempDir()
	rl := openRadio(t, dir, left)
	assert.NoError(t, rl.Send(right, []byte{1}), "send to nobody is dropped silently")
}

func TestRadio_Close(t *testing.T) {
	dir := t.TempDir()
	r, err := Open(dir, left)
	require.NoError(t, err)

	_, err = os.Stat(nodePath(dir, left))
	require.NoError(t, err)

	require.NoError(t, r.Close())
	_, err = os.Stat(nodePath(dir, left))
	assert.True(t, os.IsNotExist(err))

	assert.ErrorIs(t, r.Send(right, nil), pkg.ErrClosed)
	_, _, err = r.Receive(make([]byte, 1))
	assert.ErrorIs(t, err, pkg.ErrClosed)
	assert.NoError(t, r.Close())
}

func TestRadio_PayloadLimit(t *testing.T) {
	dir := t.TempDir()
	rl := openRadio(t, dir, left)
	assert.ErrorIs(t, rl.Send(right, make([]byte, link.MaxPayload+1)), pkg.ErrFrameLength)

	_, err := Open(dir, link.Broadcast)
	assert.ErrorIs(t, err, pkg.ErrInvalidParameter)
}

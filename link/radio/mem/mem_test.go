package mem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/softkb/link"
	"github.com/ardnew/softkb/pkg"
)

var (
	a = link.MustParseAddr("02:00:00:00:00:0a")
	b = link.MustParseAddr("02:00:00:00:00:0b")
	c = link.MustParseAddr("02:00:00:00:00:0c")
)

func TestAir_Unicast(t *testing.T) {
	air := NewAir()
	ra, err := air.Join(a)
	require.NoError(t, err)
	rb, err := air.Join(b)
	require.NoError(t, err)

	require.NoError(t, ra.Send(b, []byte{1, 2, 3}))

	buf := make([]byte, link.MaxPayload)
	src, n, err := rb.Receive(buf)
	require.NoError(t, err)
	assert.Equal(t, a, src)
	assert.Equal(t, []byte{1, 2, 3}, buf[:n])

	_, _, err = rb.Receive(buf)
	assert.ErrorIs(t, err, pkg.ErrNoFrame)
	_, _, err = ra.Receive(buf)
	assert.ErrorIs(t, err, pkg.ErrNoFrame)
}

func TestAir_Broadcast(t *testing.T) {
	air := NewAir()
	ra, _ := air.Join(a)
	rb, _ := air.Join(b)
	rc, _ := air.Join(c)

	require.NoError(t, ra.Send(link.Broadcast, []byte{7}))

	buf := make([]byte, 8)
	for _, r := range []*Radio{rb, rc} {
		src, n, err := r.Receive(buf)
		require.NoError(t, err)
		assert.Equal(t, a, src)
		assert.Equal(t, 1, n)
	}
	_, _, err := ra.Receive(buf)
	assert.ErrorIs(t, err, pkg.ErrNoFrame, "sender does not hear itself")
}

func TestAir_QueueOverflow(t *testing.T) {
	air := NewAir(WithQueueLen(2))
	ra, _ := air.Join(a)
	rb, _ := air.Join(b)

	for n := byte(0); n < 4; n++ {
		require.NoError(t, ra.Send(b, []byte{n}))
	}
	assert.Equal(t, uint64(2), air.Dropped())

	buf := make([]byte, 1)
	for want := byte(0); want < 2; want++ {
		_, _, err := rb.Receive(buf)
		require.NoError(t, err)
		assert.Equal(t, want, buf[0], "oldest frames are kept")
	}
}

func TestAir_JoinAndClose(t *testing.T) {
	air := NewAir()
	ra, err := air.Join(a)
	require.NoError(t, err)
	_, err = air.Join(a)
	assert.ErrorIs(t, err, pkg.ErrInvalidParameter)
	_, err = air.Join(link.Broadcast)
	assert.ErrorIs(t, err, pkg.ErrInvalidParameter)

	require.NoError(t, ra.Close())
	assert.ErrorIs(t, ra.Send(b, nil), pkg.ErrClosed)
	_, _, err = ra.Receive(make([]byte, 1))
	assert.ErrorIs(t, err, pkg.ErrClosed)

	_, err = air.Join(a)
	assert.NoError(t, err, "address is free after close")
}

func TestRadio_Limits(t *testing.T) {
	air := NewAir()
	ra, _ := air.Join(a)
	rb, _ := air.Join(b)

	assert.ErrorIs(t, ra.Send(b, make([]byte, link.MaxPayload+1)), pkg.ErrFrameLength)

	require.NoError(t, ra.Send(b, []byte{1, 2, 3}))
	_, _, err := rb.Receive(make([]byte, 2))
	assert.ErrorIs(t, err, pkg.ErrFrameLength)
}

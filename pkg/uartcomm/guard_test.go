package uartcomm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/uartcomm/pkg/packet"
	"github.com/robotalks/uartcomm/pkg/uart"
	"github.com/robotalks/uartcomm/pkg/uart/uarttest"
)

func TestTransmitGuardWaitsForCompletion(t *testing.T) {
	drv := uarttest.New()
	require.NoError(t, drv.Start(uart.Config{}))
	g := newTransmitGuard(drv, time.Millisecond)

	first := []byte{1, 2, 3}
	require.NoError(t, g.send(first))
	// The slot is owned by the guard.
	first[0] = 9
	require.True(t, drv.TxActive())

	done := make(chan error, 1)
	go func() { done <- g.send([]byte{4, 5}) }()
	require.Never(t, func() bool {
		return len(drv.Sent()) > 1
	}, 50*time.Millisecond, time.Millisecond)

	drv.CompleteSend()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("send did not resume")
	}
	require.Equal(t, [][]byte{{1, 2, 3}, {4, 5}}, drv.Sent())
	require.Zero(t, drv.Overlaps())
}

func TestTransmitGuardFrameTooLarge(t *testing.T) {
	drv := uarttest.New()
	g := newTransmitGuard(drv, time.Millisecond)
	require.Equal(t, ErrFrameTooLarge, g.send(make([]byte, packet.MaxFrameLen+1)))
	require.Empty(t, drv.Sent())
}

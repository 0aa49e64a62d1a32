package uartcomm

// rxEnd runs in the driver's completion context when the target half is
// full. It must not block or allocate.
func (b *Bridge) rxEnd() {
	next := b.rx.Complete()
	b.driver.StartReceive(next)
	select {
	case b.signal <- struct{}{}:
	default:
	}
}

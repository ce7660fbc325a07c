package restclient

import "sync"

// CancelFunc hard-aborts the transport of one streaming request. It is safe
// to call any number of times, including after the transport completed; only
// the first call has an effect. Cancelling does not settle the result future
// directly — that happens through the normal abort path once the transport
// reports termination.
type CancelFunc func()

func onceCancel(fn func()) CancelFunc {
	var once sync.Once
	return func() { once.Do(fn) }
}

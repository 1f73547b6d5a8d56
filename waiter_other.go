//go:build !linux && !darwin

package firmloop

func newSocketWaiter() (socketWaiter, error) {
	return nil, errSocketUnsupported
}

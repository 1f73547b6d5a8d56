//go:build !linux && !darwin

package wakeup

func createWakeFD() (int, int, error) {
	return -1, -1, ErrUnsupported
}

func closeFD(int) error { return nil }

func readFD(int, []byte) (int, error) { return 0, ErrUnsupported }

func writeFD(int, []byte) (int, error) { return 0, ErrUnsupported }

func isWouldBlock(error) bool { return false }

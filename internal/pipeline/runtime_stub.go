//go:build !govips || !cgo

package pipeline

func Startup() error {
	return nil
}

func Shutdown() {}

// NewBackend returns the pure-Go backend. It cannot produce WebP, so runs
// resolve to JPEG.
func NewBackend() Backend {
	return stdlibBackend{}
}

package tensor

// Device identifies the memory domain a buffer lives in.
type Device int

// Supported memory domains.
const (
	CPU Device = iota
	CUDA
	Vulkan
	Metal
	WebGPU
)

// String returns a human-readable device name.
func (d Device) String() string {
	switch d {
	case CPU:
		return "CPU"
	case CUDA:
		return "CUDA"
	case Vulkan:
		return "Vulkan"
	case Metal:
		return "Metal"
	case WebGPU:
		return "WebGPU"
	default:
		return "Unknown"
	}
}

// HostAddressable reports whether the CPU can address buffers in this
// memory domain directly.
func (d Device) HostAddressable() bool {
	return d == CPU
}

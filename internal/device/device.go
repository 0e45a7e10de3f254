// Package device turns the --use-gpu preference into a device hint for
// generation backends.
package device

import (
	"os"
	"strconv"
	"strings"
)

// CPU is the device used when no GPU is requested or visible.
var CPU = Device{Index: -1}

// Device identifies where the model should run. Index -1 means CPU,
// otherwise it is a GPU ordinal.
type Device struct {
	Index int
}

// IsGPU reports whether d is a GPU.
func (d Device) IsGPU() bool { return d.Index >= 0 }

// String returns "CPU" or "GPU:<index>".
func (d Device) String() string {
	if !d.IsGPU() {
		return "CPU"
	}
	return "GPU:" + strconv.Itoa(d.Index)
}

// probe abstracts the host lookups so detection can be tested.
type probe struct {
	lookupEnv func(string) (string, bool)
	exists    func(string) bool
}

var hostProbe = probe{
	lookupEnv: os.LookupEnv,
	exists: func(path string) bool {
		_, err := os.Stat(path)
		return err == nil
	},
}

// Detect returns GPU 0 when preferGPU is set and a GPU is visible to the
// process, and CPU otherwise.
func Detect(preferGPU bool) Device {
	return detect(preferGPU, hostProbe)
}

func detect(preferGPU bool, p probe) Device {
	if !preferGPU {
		return CPU
	}
	for _, name := range []string{"CUDA_VISIBLE_DEVICES", "NVIDIA_VISIBLE_DEVICES"} {
		if v, ok := p.lookupEnv(name); ok {
			if visible(v) {
				return Device{Index: 0}
			}
			// An explicit empty or disabled list hides every device.
			return CPU
		}
	}
	if p.exists("/dev/nvidia0") {
		return Device{Index: 0}
	}
	return CPU
}

func visible(list string) bool {
	list = strings.TrimSpace(list)
	switch strings.ToLower(list) {
	case "", "-1", "none", "void", "no":
		return false
	}
	return true
}

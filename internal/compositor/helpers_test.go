package compositor_test

import "github.com/chromad/chromad/internal/descriptor"

func testDescriptor() *descriptor.Descriptor {
	return descriptor.LegacyKeyboard()
}

package memory

import (
	"debug/pe"
	"fmt"
)

// Image is a PE executable mapped at its preferred image base. Static RTTI
// records live in the image's data sections, and absolute pointers between
// them are valid without applying relocations.
type Image struct {
	*Sparse
	Base uint64
}

// OpenPE maps every section of the PE file at path.
func OpenPE(path string) (*Image, error) {
	f, err := pe.Open(path)
	if err != nil {
		return nil, fmt.Errorf("memory: failed to open PE image: %w", err)
	}
	defer f.Close()

	var base uint64
	switch oh := f.OptionalHeader.(type) {
	case *pe.OptionalHeader64:
		base = oh.ImageBase
	case *pe.OptionalHeader32:
		base = uint64(oh.ImageBase)
	default:
		return nil, fmt.Errorf("memory: %s has no optional header", path)
	}

	img := &Image{Sparse: NewSparse(), Base: base}
	for _, sec := range f.Sections {
		raw, err := sec.Data()
		if err != nil {
			return nil, fmt.Errorf("memory: failed to read section %q: %w", sec.Name, err)
		}
		size := sec.VirtualSize
		if size == 0 {
			size = sec.Size
		}
		data := make([]byte, size)
		copy(data, raw)
		if err := img.Map(sec.Name, base+uint64(sec.VirtualAddress), data); err != nil {
			return nil, err
		}
	}
	return img, nil
}

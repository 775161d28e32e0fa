package asset

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	ErrUnsupportedFormat = errors.New("only .glb and .gltf models are supported")
	ErrInvalidModel      = errors.New("invalid model file")
)

// Format is a 3D model container.
type Format string

const (
	FormatGLB  Format = "glb"
	FormatGLTF Format = "gltf"
)

const glbMagic = 0x46546C67 // "glTF" little endian

// DetectFormat checks the file name and the contents of an uploaded model.
func DetectFormat(name string, data []byte) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".glb":
		return FormatGLB, checkGLB(data)
	case ".gltf":
		return FormatGLTF, checkGLTF(data)
	default:
		return "", ErrUnsupportedFormat
	}
}

// checkGLB validates the 12 byte binary header.
func checkGLB(data []byte) error {
	if len(data) < 12 {
		return fmt.Errorf("%w: truncated header", ErrInvalidModel)
	}
	magic := binary.LittleEndian.Uint32(data[0:4])
	version := binary.LittleEndian.Uint32(data[4:8])
	length := binary.LittleEndian.Uint32(data[8:12])
	if magic != glbMagic {
		return fmt.Errorf("%w: bad magic", ErrInvalidModel)
	}
	if version != 2 {
		return fmt.Errorf("%w: unsupported version %d", ErrInvalidModel, version)
	}
	if int(length) != len(data) {
		return fmt.Errorf("%w: length %d does not match file size %d", ErrInvalidModel, length, len(data))
	}
	return nil
}

func checkGLTF(data []byte) error {
	var doc struct {
		Asset struct {
			Version string `json:"version"`
		} `json:"asset"`
	}
	if err := json.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidModel, err)
	}
	if !strings.HasPrefix(doc.Asset.Version, "2.") {
		return fmt.Errorf("%w: unsupported version %q", ErrInvalidModel, doc.Asset.Version)
	}
	return nil
}

// Package shaders embeds the compiled SPIR-V for the triangle pipeline.
//
// The binaries are built from triangle.vert and triangle.frag with
//
//	glslc triangle.vert -o vert.spv
//	glslc triangle.frag -o frag.spv
package shaders

import (
	_ "embed"
)

//go:embed vert.spv
var vertexSPIRV []byte

//go:embed frag.spv
var fragmentSPIRV []byte

// Magic is the first word of every SPIR-V module.
const Magic uint32 = 0x07230203

// Vertex returns the vertex stage code. It reads position at location 0,
// color at location 1 and the Global uniform block at set 0 binding 0.
func Vertex() []uint32 {
	return bytesToBytecode(vertexSPIRV)
}

// Fragment returns the fragment stage code.
func Fragment() []uint32 {
	return bytesToBytecode(fragmentSPIRV)
}

func bytesToBytecode(b []byte) []uint32 {
	byteCode := make([]uint32, len(b)/4)
	for i := 0; i < len(byteCode); i++ {
		byteIndex := i * 4
		byteCode[i] = 0
		byteCode[i] |= uint32(b[byteIndex])
		byteCode[i] |= uint32(b[byteIndex+1]) << 8
		byteCode[i] |= uint32(b[byteIndex+2]) << 16
		byteCode[i] |= uint32(b[byteIndex+3]) << 24
	}

	return byteCode
}

package analysis

import "bytes"

// binaryMagic lists signatures of files that sometimes end up with a source
// extension: archives, images, executables
var binaryMagic = [][]byte{
	{0x1F, 0x8B},             // gzip
	{0x50, 0x4B, 0x03, 0x04}, // ZIP
	{0x89, 0x50, 0x4E, 0x47}, // PNG
	{0x7F, 0x45, 0x4C, 0x46}, // ELF
	{0x4D, 0x5A},             // PE
}

// isBinary checks the first 512 bytes for a known signature, null bytes or a
// high share of control characters
func isBinary(content []byte) bool {
	sample := content[:min(len(content), 512)]
	if len(sample) == 0 {
		return false
	}
	for _, magic := range binaryMagic {
		if bytes.HasPrefix(sample, magic) {
			return true
		}
	}

	nullBytes, control := 0, 0
	for _, b := range sample {
		if b == 0 {
			nullBytes++
		}
		if b < 0x20 && b != '\t' && b != '\n' && b != '\r' {
			control++
		}
	}
	return nullBytes > len(sample)/100 || control > len(sample)*30/100
}

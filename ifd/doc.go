/*
	Package ifd decodes tag-keyed image file directories (IFDs) chained through
	absolute file offsets, the structure underlying TIFF and every TIFF-derived
	format.

	The engine knows value types and layout but not tag meaning: a Directory maps
	tag ids to raw decoded values and leaves interpretation to the format handler.
	Directories are decoded lazily as a Chain is advanced, and a chain whose next
	offset points back to an already visited directory ends there.

	Both common leading signatures are supported: a 2-byte byte order mark followed
	by a magic number (ReadHeader, classic TIFF and BigTIFF) and a 4-character
	container id followed by a length (ReadChunk, e.g., RIFF).
*/
package ifd

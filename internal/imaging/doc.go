// Package imaging provides the bitmap plumbing around the color-transfer
// engine: the ARGB PixelBuffer, decoding from storage, and the scaled copies
// used for statistics sampling and the fallback ladder.
//
// # Pixel Layout
//
// PixelBuffer stores pixels row-major with (0,0) at the top-left corner:
//   - Pix[y*Width+x] holds the pixel at column x, row y
//   - Each pixel packs straight (non-premultiplied) alpha and 8-bit RGB
//     as a<<24 | r<<16 | g<<8 | b
//
// # Thread Safety
//
// Loader implementations are safe for concurrent use. PixelBuffer is a plain
// value; concurrent writers must own disjoint ranges of Pix.
//
// # Error Handling
//
// Functions return errors for invalid inputs such as:
//   - Buffers whose pixel count does not match Width*Height (ErrInvalidBuffer)
//   - File I/O errors during image loading
//   - Unsupported or corrupt image data
//
// # Memory
//
// FromImage and Downscale always allocate a new buffer. Callers that work
// under memory pressure should drop intermediate buffers as soon as they are
// no longer needed.
package imaging

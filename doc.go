// Package tiff implements the core of a TIFF container reader and
// writer: IFD parsing and serialization, Classic and BigTIFF support,
// multi-page traversal, the per-tag typed value codec, image-setup
// geometry resolution, and an appending multi-page writer. Pixel
// decompression is delegated to an external codec, which consumes the
// Tile descriptors defined in tile.go.
package tiff

// Package gpures manages renderable resources for retained-mode 2D GPU
// rendering.
//
// # Overview
//
// gpures keeps GPU-bound records in densely packed arrays addressed by
// stable, reusable identifiers, tracks which parts of those arrays changed
// since the last upload, and packs rectangular assets (block shapes,
// glyphs) into a growable multi-layer texture atlas.
//
// # Architecture
//
// The module is organized bottom-up:
//   - slot: dense store with id indirection, free list and dirty tracking
//   - instance: single and multi-array instance buffers with byte flushes
//   - atlas: layered square bin-packer with in-place growth
//   - atlas/mirror: CPU copy of atlas layers, copied forward on growth
//   - registry: reference-counted sharing of identical content
//   - upload: upload sink contract, buffer growth requests, indirect args
//   - gpu: wgpu HAL buffers and atlas textures implementing the sink
//   - shape, painter: diagram block and wire painters built on the above
//
// # Threading
//
// Stores, allocators and registries are owned by a single goroutine,
// normally the one that owns the rendering context. Only the logger is
// safe for concurrent use.
//
// # Logging
//
// By default nothing is logged. Call [SetLogger] to route diagnostics to a
// [log/slog] logger.
package gpures

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0
)

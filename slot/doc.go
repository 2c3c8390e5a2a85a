// Package slot provides a dense store with stable identifiers.
//
// A [Store] keeps its elements packed in a single slice so the slice can be
// handed to the GPU as is. Elements are addressed by [ID] values that stay
// valid while the element lives, even though removal swaps the last element
// into the vacated position. Removed ids are recycled most-recent-first.
//
// Every mutation is recorded by a [Tracker] as a half-open index [Range],
// so callers upload only what changed since the previous flush.
package slot

// Package cache provides a small LRU cache for rasterized content.
//
//	c := cache.New[shape.Block, image.Image](256)
//	img := c.GetOrCreate(block, func() image.Image { return shape.Rasterize(block) })
//
// Cache is safe for concurrent use so one cache can serve several scenes.
package cache

// Package gpu backs the upload boundary with wgpu HAL buffers and
// textures.
package gpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/gpures"
	"github.com/gogpu/gpures/atlas"
)

// ErrNoDevice is returned when a nil device or queue is supplied.
var ErrNoDevice = errors.New("gpu: device or queue is nil")

// Device pairs a HAL device with its queue.
type Device struct {
	device hal.Device
	queue  hal.Queue
	limits gputypes.Limits
}

// New wraps an open HAL device. Limits default to gputypes.DefaultLimits.
func New(device hal.Device, queue hal.Queue) (*Device, error) {
	if device == nil || queue == nil {
		return nil, ErrNoDevice
	}
	return &Device{device: device, queue: queue, limits: gputypes.DefaultLimits()}, nil
}

// FromProvider extracts HAL types from a provider exposing
// HalDevice() any and HalQueue() any. A provider that also has
// Limits() gputypes.Limits supplies the device limits.
func FromProvider(provider any) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("gpu: provider %T does not expose HAL types", provider)
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("gpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("gpu: provider HalQueue is not hal.Queue")
	}
	d, err := New(device, queue)
	if err != nil {
		return nil, err
	}
	if lp, ok := provider.(interface{ Limits() gputypes.Limits }); ok {
		d.SetLimits(lp.Limits())
	}
	gpures.Logger().Info("gpu: device bound", "provider", fmt.Sprintf("%T", provider),
		"max_texture", d.limits.MaxTextureDimension2D)
	return d, nil
}

// FromDeviceProvider binds to the device shared by a host application.
func FromDeviceProvider(p gpucontext.DeviceProvider) (*Device, error) {
	if p == nil {
		return nil, ErrNoDevice
	}
	d, err := FromProvider(p)
	if err != nil {
		return nil, err
	}
	gpures.Logger().Debug("gpu: adapter", "info", p.AdapterInfo())
	return d, nil
}

// OpenNoop opens a device on the noop backend, which stores buffer
// contents in memory and draws nothing. The returned function releases it.
func OpenNoop() (*Device, func(), error) {
	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		return nil, nil, fmt.Errorf("gpu: noop instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, nil, fmt.Errorf("gpu: noop backend has no adapter")
	}
	limits := gputypes.DefaultLimits()
	open, err := adapters[0].Adapter.Open(0, limits)
	if err != nil {
		instance.Destroy()
		return nil, nil, fmt.Errorf("gpu: noop open: %w", err)
	}
	d, err := New(open.Device, open.Queue)
	if err != nil {
		open.Device.Destroy()
		instance.Destroy()
		return nil, nil, err
	}
	d.SetLimits(limits)
	return d, func() {
		open.Device.Destroy()
		instance.Destroy()
	}, nil
}

// SetLimits records the limits the device was opened with. AtlasConfig
// clamps against them.
func (d *Device) SetLimits(l gputypes.Limits) { d.limits = l }

// Limits returns the device limits.
func (d *Device) Limits() gputypes.Limits { return d.limits }

// HAL returns the wrapped device and queue.
func (d *Device) HAL() (hal.Device, hal.Queue) { return d.device, d.queue }

// AtlasConfig clamps cfg to what the device can back with textures.
func (d *Device) AtlasConfig(cfg atlas.Config) atlas.Config {
	if limit := int(d.limits.MaxTextureDimension2D); limit > 0 && cfg.MaxDimension > limit {
		cfg.MaxDimension = limit
		cfg.InitialSize = min(cfg.InitialSize, limit)
	}
	if limit := int(d.limits.MaxTextureArrayLayers); limit > 0 && (cfg.MaxLayers == 0 || cfg.MaxLayers > limit) {
		cfg.MaxLayers = limit
	}
	return cfg
}

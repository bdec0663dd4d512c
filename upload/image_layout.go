// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package upload

import (
	"github.com/coregpu/corevk/gputypes"
)

// textureRowAlignment is the row-pitch alignment hal.Queue.WriteTexture
// and hal.ImageDataLayout.BytesPerRow require for texture copies.
const textureRowAlignment = 256

// ImageLayout describes the CPU-side shape of an image being staged for
// upload: its dimensions, format and mip count. MipLayout and
// MipChainSize use it to compute the row pitch and byte size of each mip
// level without touching the device, so callers can lay out a tightly
// packed source buffer before submitting it.
type ImageLayout struct {
	Width              uint32
	Height             uint32
	DepthOrArrayLayers uint32
	Format             gputypes.TextureFormat
	MipLevelCount      uint32
}

// MipInfo describes one mip level's extent and packed byte layout within
// a densely packed mip-chain buffer (see ImageLayout.MipChainSize).
type MipInfo struct {
	Width        uint32
	Height       uint32
	BytesPerRow  uint32
	RowCount     uint32
	SizeBytes    uint64
	ChainOffset  uint64
}

// DefaultMipLevelCount returns the full mip chain length for a width x
// height image, down to and including the 1x1 mip. Mirrors the
// log2-floor-plus-one rule used to decide a texture's default mip
// settings.
func DefaultMipLevelCount(width, height uint32) uint32 {
	maxDim := width
	if height > maxDim {
		maxDim = height
	}
	if maxDim == 0 {
		return 1
	}
	count := uint32(1)
	for maxDim > 1 {
		maxDim >>= 1
		count++
	}
	return count
}

// MipExtent returns the width and height of mip level, clamped to 1x1.
func (l ImageLayout) MipExtent(level uint32) (width, height uint32) {
	width = l.Width >> level
	height = l.Height >> level
	if width == 0 {
		width = 1
	}
	if height == 0 {
		height = 1
	}
	return width, height
}

// blockSize reports the compressed block footprint of format: its pixel
// width and height and the bytes one block occupies. Uncompressed
// formats report a 1x1 block, i.e. one texel.
func blockSize(format gputypes.TextureFormat) (blockW, blockH, bytesPerBlock uint32) {
	if dims, ok := astcBlockDims[format]; ok {
		return dims[0], dims[1], 16
	}
	switch format {
	case gputypes.TextureFormatBC1RGBAUnorm, gputypes.TextureFormatBC1RGBAUnormSrgb,
		gputypes.TextureFormatBC4RUnorm, gputypes.TextureFormatBC4RSnorm,
		gputypes.TextureFormatETC2RGB8Unorm, gputypes.TextureFormatETC2RGB8UnormSrgb,
		gputypes.TextureFormatETC2RGB8A1Unorm, gputypes.TextureFormatETC2RGB8A1UnormSrgb,
		gputypes.TextureFormatEACR11Unorm, gputypes.TextureFormatEACR11Snorm:
		return 4, 4, 8
	case gputypes.TextureFormatBC2RGBAUnorm, gputypes.TextureFormatBC2RGBAUnormSrgb,
		gputypes.TextureFormatBC3RGBAUnorm, gputypes.TextureFormatBC3RGBAUnormSrgb,
		gputypes.TextureFormatBC5RGUnorm, gputypes.TextureFormatBC5RGSnorm,
		gputypes.TextureFormatBC6HRGBUfloat, gputypes.TextureFormatBC6HRGBFloat,
		gputypes.TextureFormatBC7RGBAUnorm, gputypes.TextureFormatBC7RGBAUnormSrgb,
		gputypes.TextureFormatETC2RGBA8Unorm, gputypes.TextureFormatETC2RGBA8UnormSrgb,
		gputypes.TextureFormatEACRG11Unorm, gputypes.TextureFormatEACRG11Snorm:
		return 4, 4, 16
	}
	return 1, 1, bytesPerTexel(format)
}

// astcBlockDims maps each ASTC format constant to its (blockWidth,
// blockHeight). Every ASTC block is 16 bytes regardless of footprint.
var astcBlockDims = map[gputypes.TextureFormat][2]uint32{
	gputypes.TextureFormatASTC4x4Unorm:     {4, 4},
	gputypes.TextureFormatASTC4x4UnormSrgb: {4, 4},
	gputypes.TextureFormatASTC5x4Unorm:     {5, 4},
	gputypes.TextureFormatASTC5x4UnormSrgb: {5, 4},
	gputypes.TextureFormatASTC5x5Unorm:     {5, 5},
	gputypes.TextureFormatASTC5x5UnormSrgb: {5, 5},
	gputypes.TextureFormatASTC6x5Unorm:     {6, 5},
	gputypes.TextureFormatASTC6x5UnormSrgb: {6, 5},
	gputypes.TextureFormatASTC6x6Unorm:     {6, 6},
	gputypes.TextureFormatASTC6x6UnormSrgb: {6, 6},
	gputypes.TextureFormatASTC8x5Unorm:     {8, 5},
	gputypes.TextureFormatASTC8x5UnormSrgb: {8, 5},
	gputypes.TextureFormatASTC8x6Unorm:     {8, 6},
	gputypes.TextureFormatASTC8x6UnormSrgb: {8, 6},
	gputypes.TextureFormatASTC8x8Unorm:     {8, 8},
	gputypes.TextureFormatASTC8x8UnormSrgb: {8, 8},
	gputypes.TextureFormatASTC10x5Unorm:     {10, 5},
	gputypes.TextureFormatASTC10x5UnormSrgb: {10, 5},
	gputypes.TextureFormatASTC10x6Unorm:     {10, 6},
	gputypes.TextureFormatASTC10x6UnormSrgb: {10, 6},
	gputypes.TextureFormatASTC10x8Unorm:     {10, 8},
	gputypes.TextureFormatASTC10x8UnormSrgb: {10, 8},
	gputypes.TextureFormatASTC10x10Unorm:     {10, 10},
	gputypes.TextureFormatASTC10x10UnormSrgb: {10, 10},
	gputypes.TextureFormatASTC12x10Unorm:     {12, 10},
	gputypes.TextureFormatASTC12x10UnormSrgb: {12, 10},
	gputypes.TextureFormatASTC12x12Unorm:     {12, 12},
	gputypes.TextureFormatASTC12x12UnormSrgb: {12, 12},
}

// bytesPerTexel returns the texel size of an uncompressed format.
func bytesPerTexel(format gputypes.TextureFormat) uint32 {
	switch format {
	case gputypes.TextureFormatR8Unorm, gputypes.TextureFormatR8Snorm,
		gputypes.TextureFormatR8Uint, gputypes.TextureFormatR8Sint,
		gputypes.TextureFormatStencil8:
		return 1
	case gputypes.TextureFormatR16Uint, gputypes.TextureFormatR16Sint, gputypes.TextureFormatR16Float,
		gputypes.TextureFormatRG8Unorm, gputypes.TextureFormatRG8Snorm,
		gputypes.TextureFormatRG8Uint, gputypes.TextureFormatRG8Sint,
		gputypes.TextureFormatDepth16Unorm:
		return 2
	case gputypes.TextureFormatR32Uint, gputypes.TextureFormatR32Sint, gputypes.TextureFormatR32Float,
		gputypes.TextureFormatRG16Uint, gputypes.TextureFormatRG16Sint, gputypes.TextureFormatRG16Float,
		gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatRGBA8UnormSrgb,
		gputypes.TextureFormatRGBA8Snorm, gputypes.TextureFormatRGBA8Uint, gputypes.TextureFormatRGBA8Sint,
		gputypes.TextureFormatBGRA8Unorm, gputypes.TextureFormatBGRA8UnormSrgb,
		gputypes.TextureFormatRGB9E5Ufloat, gputypes.TextureFormatRGB10A2Uint,
		gputypes.TextureFormatRGB10A2Unorm, gputypes.TextureFormatRG11B10Ufloat,
		gputypes.TextureFormatDepth24Plus, gputypes.TextureFormatDepth24PlusStencil8,
		gputypes.TextureFormatDepth32Float:
		return 4
	case gputypes.TextureFormatRG32Uint, gputypes.TextureFormatRG32Sint, gputypes.TextureFormatRG32Float,
		gputypes.TextureFormatRGBA16Uint, gputypes.TextureFormatRGBA16Sint, gputypes.TextureFormatRGBA16Float,
		gputypes.TextureFormatDepth32FloatStencil8:
		return 8
	case gputypes.TextureFormatRGBA32Uint, gputypes.TextureFormatRGBA32Sint, gputypes.TextureFormatRGBA32Float:
		return 16
	default:
		return 4
	}
}

// BlockCompressed reports whether l.Format packs texels into blocks
// (BC/ETC2/ASTC). Run-time mip generation is not supported for these
// formats: the caller must supply precomputed mips or skip mip 1+.
func (l ImageLayout) BlockCompressed() bool {
	bw, bh, _ := blockSize(l.Format)
	return bw > 1 || bh > 1
}

func alignUp(n, alignment uint32) uint32 {
	if alignment == 0 {
		return n
	}
	return (n + alignment - 1) / alignment * alignment
}

// MipLayout computes the row pitch and packed size of mip level within a
// densely packed mip-chain buffer: mip 0 first, at offset 0, each
// following mip immediately after the previous one's SizeBytes, row
// pitch rounded up to textureRowAlignment.
func (l ImageLayout) MipLayout(level uint32) MipInfo {
	width, height := l.MipExtent(level)
	bw, bh, bytesPerBlock := blockSize(l.Format)
	blocksWide := (width + bw - 1) / bw
	blocksHigh := (height + bh - 1) / bh

	bytesPerRow := alignUp(blocksWide*bytesPerBlock, textureRowAlignment)
	layers := l.DepthOrArrayLayers
	if layers == 0 {
		layers = 1
	}

	info := MipInfo{
		Width:       width,
		Height:      height,
		BytesPerRow: bytesPerRow,
		RowCount:    blocksHigh,
		SizeBytes:   uint64(bytesPerRow) * uint64(blocksHigh) * uint64(layers),
	}
	for l2 := uint32(0); l2 < level; l2++ {
		info.ChainOffset += l.MipLayout(l2).SizeBytes
	}
	return info
}

// MipChainSize returns the total packed byte size of the full mip chain
// (mip 0 through MipLevelCount-1).
func (l ImageLayout) MipChainSize() uint64 {
	count := l.MipLevelCount
	if count == 0 {
		count = 1
	}
	var total uint64
	for level := uint32(0); level < count; level++ {
		total += l.MipLayout(level).SizeBytes
	}
	return total
}

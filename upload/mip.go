// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package upload

import (
	"github.com/coregpu/corevk"
	"github.com/coregpu/corevk/hal"
)

// writeImageMips copies req's source data into tex's mip levels. When
// req.generateMips is set, only mip 0 is read from req.data and mips
// 1..N are produced on the host by box-filter downsampling; otherwise
// req.data must already hold the full, densely packed mip chain
// described by req.layout. Generated mips cover a single layer: a
// req.layout.DepthOrArrayLayers above 1 with generateMips set still
// downsamples layer 0 only, so callers with array/3D textures should
// supply a precomputed chain instead.
func writeImageMips(queue hal.Queue, tex hal.Texture, req *pendingRequest) error {
	layout := req.layout
	mipCount := layout.MipLevelCount
	if mipCount == 0 {
		mipCount = 1
	}

	if !req.generateMips {
		for level := uint32(0); level < mipCount; level++ {
			info := layout.MipLayout(level)
			end := info.ChainOffset + info.SizeBytes
			if uint64(len(req.data)) < end {
				return gpucore.InvalidParameter("upload: image data shorter than declared mip chain")
			}
			writeMip(queue, tex, level, layout, req.data[info.ChainOffset:end])
		}
		return nil
	}

	texelSize := bytesPerTexel(layout.Format)
	mip0 := layout.MipLayout(0)
	if uint64(len(req.data)) < mip0.SizeBytes {
		return gpucore.InvalidParameter("upload: image data shorter than mip 0")
	}
	writeMip(queue, tex, 0, layout, req.data[:mip0.SizeBytes])

	srcW, srcH := layout.MipExtent(0)
	srcPixels := unpackRows(req.data, mip0.BytesPerRow, srcW, srcH, texelSize)

	for level := uint32(1); level < mipCount; level++ {
		dstW, dstH := layout.MipExtent(level)
		dstPixels := boxFilterDownsample(srcPixels, srcW, srcH, dstW, dstH, texelSize)

		info := layout.MipLayout(level)
		packed := packRows(dstPixels, dstW, dstH, texelSize, info.BytesPerRow)
		writeMip(queue, tex, level, layout, packed)

		srcPixels, srcW, srcH = dstPixels, dstW, dstH
	}
	return nil
}

func writeMip(queue hal.Queue, tex hal.Texture, level uint32, layout ImageLayout, data []byte) {
	info := layout.MipLayout(level)
	queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: tex, MipLevel: level},
		data,
		&hal.ImageDataLayout{BytesPerRow: info.BytesPerRow, RowsPerImage: info.RowCount},
		&hal.Extent3D{Width: info.Width, Height: info.Height, DepthOrArrayLayers: maxu32(layout.DepthOrArrayLayers, 1)},
	)
}

// unpackRows strips row padding, returning width*height*texelSize bytes
// with no gaps between rows.
func unpackRows(data []byte, bytesPerRow, width, height, texelSize uint32) []byte {
	tight := make([]byte, uint64(width)*uint64(height)*uint64(texelSize))
	rowBytes := width * texelSize
	for row := uint32(0); row < height; row++ {
		src := data[uint64(row)*uint64(bytesPerRow):]
		copy(tight[uint64(row)*uint64(rowBytes):], src[:rowBytes])
	}
	return tight
}

// packRows re-introduces row padding up to bytesPerRow so the result can
// be handed straight to hal.Queue.WriteTexture.
func packRows(tight []byte, width, height, texelSize, bytesPerRow uint32) []byte {
	rowBytes := width * texelSize
	out := make([]byte, uint64(bytesPerRow)*uint64(height))
	for row := uint32(0); row < height; row++ {
		copy(out[uint64(row)*uint64(bytesPerRow):], tight[uint64(row)*uint64(rowBytes):uint64(row)*uint64(rowBytes)+uint64(rowBytes)])
	}
	return out
}

// boxFilterDownsample halves (approximately) a tightly packed srcW x
// srcH image of texelSize-byte texels to dstW x dstH, averaging each
// byte of up to four source texels per destination texel. This treats
// every channel as an 8-bit unorm/uint lane, which is exact for the
// common 8-bit-per-channel formats and an approximation for wider or
// floating-point ones — acceptable for a generated mip, never for mip 0.
func boxFilterDownsample(src []byte, srcW, srcH, dstW, dstH, texelSize uint32) []byte {
	dst := make([]byte, uint64(dstW)*uint64(dstH)*uint64(texelSize))
	for y := uint32(0); y < dstH; y++ {
		sy0 := minu32(y*2, srcH-1)
		sy1 := minu32(y*2+1, srcH-1)
		for x := uint32(0); x < dstW; x++ {
			sx0 := minu32(x*2, srcW-1)
			sx1 := minu32(x*2+1, srcW-1)

			dstOff := (uint64(y)*uint64(dstW) + uint64(x)) * uint64(texelSize)
			offs := [4]uint64{
				(uint64(sy0)*uint64(srcW) + uint64(sx0)) * uint64(texelSize),
				(uint64(sy0)*uint64(srcW) + uint64(sx1)) * uint64(texelSize),
				(uint64(sy1)*uint64(srcW) + uint64(sx0)) * uint64(texelSize),
				(uint64(sy1)*uint64(srcW) + uint64(sx1)) * uint64(texelSize),
			}
			for b := uint32(0); b < texelSize; b++ {
				var sum uint32
				for _, off := range offs {
					sum += uint32(src[off+uint64(b)])
				}
				dst[dstOff+uint64(b)] = byte(sum / 4)
			}
		}
	}
	return dst
}

func minu32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}

package imagehash

import (
	"bytes"
	"fmt"
	"image"
	"math/bits"

	_ "image/jpeg"
	_ "image/png"
)

// Grid dimensions for the difference hash. A 9x8 greyscale grid yields one
// gradient bit per horizontal neighbor pair, 64 bits total.
const (
	gridWidth  = 9
	gridHeight = 8
)

// Hash is a 64-bit difference hash of an image. Each bit encodes whether a
// downsampled pixel is brighter than its right-hand neighbor, which makes the
// value stable under noise and cursor movement but sensitive to layout and
// content changes.
type Hash uint64

// Decode parses raster bytes (PNG or JPEG) and fingerprints the image.
func Decode(data []byte) (Hash, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("decode image: %w", err)
	}
	return FromImage(img), nil
}

// FromImage fingerprints an already decoded image.
func FromImage(img image.Image) Hash {
	grid := downsampleGrey(img)

	var h Hash
	bit := 0
	for y := 0; y < gridHeight; y++ {
		for x := 0; x < gridWidth-1; x++ {
			if grid[y][x] > grid[y][x+1] {
				h |= 1 << uint(63-bit)
			}
			bit++
		}
	}
	return h
}

// Distance returns the Hamming distance to another hash: the number of
// gradient bits that differ.
func (h Hash) Distance(other Hash) int {
	return bits.OnesCount64(uint64(h ^ other))
}

func (h Hash) String() string {
	return fmt.Sprintf("%016x", uint64(h))
}

// downsampleGrey shrinks the image to the hash grid by averaging the
// luminance of each cell. Box averaging is enough here; the hash only needs
// coarse gradient structure, not visual fidelity.
func downsampleGrey(img image.Image) [gridHeight][gridWidth]float64 {
	var grid [gridHeight][gridWidth]float64

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return grid
	}

	for gy := 0; gy < gridHeight; gy++ {
		y0 := b.Min.Y + gy*h/gridHeight
		y1 := b.Min.Y + (gy+1)*h/gridHeight
		if y1 <= y0 {
			y1 = y0 + 1
		}
		for gx := 0; gx < gridWidth; gx++ {
			x0 := b.Min.X + gx*w/gridWidth
			x1 := b.Min.X + (gx+1)*w/gridWidth
			if x1 <= x0 {
				x1 = x0 + 1
			}

			var sum float64
			var count int
			for y := y0; y < y1 && y < b.Max.Y; y++ {
				for x := x0; x < x1 && x < b.Max.X; x++ {
					r, g, bl, _ := img.At(x, y).RGBA()
					// ITU-R BT.601 luma weights on 16-bit channels.
					sum += 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(bl)
					count++
				}
			}
			if count > 0 {
				grid[gy][gx] = sum / float64(count)
			}
		}
	}
	return grid
}

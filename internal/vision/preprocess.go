package vision

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	_ "image/gif"
	_ "image/png"
)

// decodeImage parses uploaded bytes and downscales the result so its longest
// side is at most maxSize, keeping aspect ratio.
func decodeImage(data []byte, maxSize int) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	longest := w
	if h > longest {
		longest = h
	}
	if maxSize > 0 && longest > maxSize {
		ratio := float64(maxSize) / float64(longest)
		img = resizeImage(img, int(float64(w)*ratio), int(float64(h)*ratio))
	}

	return img, nil
}

// imageToFloat32CHW converts an image to CHW float32 format with
// normalization: pixel = (pixel - mean) / std.
func imageToFloat32CHW(img image.Image, targetW, targetH int, mean, std [3]float32) []float32 {
	resized := resizeImage(img, targetW, targetH)
	bounds := resized.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	data := make([]float32, 3*h*w)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := resized.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()

			rf := float32(r >> 8)
			gf := float32(g >> 8)
			bf := float32(b >> 8)

			idx := y*w + x
			data[0*h*w+idx] = (rf - mean[0]) / std[0]
			data[1*h*w+idx] = (gf - mean[1]) / std[1]
			data[2*h*w+idx] = (bf - mean[2]) / std[2]
		}
	}

	return data
}

// imageToGrayPlane converts an image to a single grayscale [1, H, W] plane
// for the emotion model.
func imageToGrayPlane(img image.Image, targetW, targetH int) []float32 {
	resized := resizeImage(img, targetW, targetH)
	bounds := resized.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	data := make([]float32, h*w)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := resized.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			// ITU-R BT.601 luma
			data[y*w+x] = 0.299*float32(r>>8) + 0.587*float32(g>>8) + 0.114*float32(b>>8)
		}
	}
	return data
}

// resizeImage performs nearest-neighbour resize (fast, good enough for ML
// input).
func resizeImage(img image.Image, targetW, targetH int) image.Image {
	bounds := img.Bounds()
	srcW := bounds.Dx()
	srcH := bounds.Dy()
	if srcW == targetW && srcH == targetH {
		return img
	}

	dst := image.NewRGBA(image.Rect(0, 0, targetW, targetH))

	for y := 0; y < targetH; y++ {
		for x := 0; x < targetW; x++ {
			srcX := bounds.Min.X + x*srcW/targetW
			srcY := bounds.Min.Y + y*srcH/targetH
			dst.Set(x, y, img.At(srcX, srcY))
		}
	}

	return dst
}

// cropFace extracts the region inside box plus a 10% margin on each side.
// Returns nil when the clamped region is empty.
func cropFace(img image.Image, box BoundingBox) image.Image {
	bounds := img.Bounds()

	marginX := box.Width / 10
	marginY := box.Height / 10

	x1 := bounds.Min.X + box.X - marginX
	y1 := bounds.Min.Y + box.Y - marginY
	x2 := bounds.Min.X + box.X + box.Width + marginX
	y2 := bounds.Min.Y + box.Y + box.Height + marginY

	if x1 < bounds.Min.X {
		x1 = bounds.Min.X
	}
	if y1 < bounds.Min.Y {
		y1 = bounds.Min.Y
	}
	if x2 > bounds.Max.X {
		x2 = bounds.Max.X
	}
	if y2 > bounds.Max.Y {
		y2 = bounds.Max.Y
	}

	if x2-x1 <= 0 || y2-y1 <= 0 {
		return nil
	}

	crop := image.NewRGBA(image.Rect(0, 0, x2-x1, y2-y1))
	for cy := y1; cy < y2; cy++ {
		for cx := x1; cx < x2; cx++ {
			crop.Set(cx-x1, cy-y1, img.At(cx, cy))
		}
	}

	return crop
}

// EncodeThumbnailJPEG renders a small JPEG of the face inside box for
// display alongside the identity record. Returns nil when the crop is empty.
func EncodeThumbnailJPEG(img image.Image, box BoundingBox, maxSide int) []byte {
	crop := cropFace(img, box)
	if crop == nil {
		return nil
	}

	b := crop.Bounds()
	w, h := b.Dx(), b.Dy()
	longest := w
	if h > longest {
		longest = h
	}
	if longest > maxSide {
		ratio := float64(maxSide) / float64(longest)
		crop = resizeImage(crop, int(float64(w)*ratio), int(float64(h)*ratio))
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, crop, &jpeg.Options{Quality: 80}); err != nil {
		return nil
	}
	return buf.Bytes()
}

package jpegls

import (
	"encoding/binary"
	"image"
	"image/color"
)

// imageBuffer flattens img into a raw buffer laid out for ilv.
func imageBuffer(img image.Image, ilv InterleaveMode) ([]byte, FrameInfo, error) {
	b := img.Bounds()
	fi := FrameInfo{Width: b.Dx(), Height: b.Dy()}
	if fi.Width <= 0 || fi.Height <= 0 {
		return nil, fi, newError(CodeInvalidArgumentWidth, ErrInvalidFrameInfo, "empty image bounds %v", b)
	}

	var pixel func(x, y int, px []int)
	switch m := img.(type) {
	case *image.Gray:
		fi.BitsPerSample, fi.ComponentCount = 8, 1
		pixel = func(x, y int, px []int) {
			px[0] = int(m.Pix[m.PixOffset(x, y)])
		}
	case *image.Gray16:
		fi.BitsPerSample, fi.ComponentCount = 16, 1
		pixel = func(x, y int, px []int) {
			px[0] = int(binary.BigEndian.Uint16(m.Pix[m.PixOffset(x, y):]))
		}
	case *image.RGBA:
		// premultiplied, stored as straight alpha like NRGBA
		fi.BitsPerSample, fi.ComponentCount = 8, channels(m.Opaque())
		pixel = func(x, y int, px []int) {
			c := color.NRGBAModel.Convert(m.RGBAAt(x, y)).(color.NRGBA)
			px[0], px[1], px[2], px[3] = int(c.R), int(c.G), int(c.B), int(c.A)
		}
	case *image.NRGBA:
		fi.BitsPerSample, fi.ComponentCount = 8, channels(m.Opaque())
		pixel = func(x, y int, px []int) {
			p := m.Pix[m.PixOffset(x, y):]
			px[0], px[1], px[2], px[3] = int(p[0]), int(p[1]), int(p[2]), int(p[3])
		}
	case *image.RGBA64:
		fi.BitsPerSample, fi.ComponentCount = 16, channels(m.Opaque())
		pixel = func(x, y int, px []int) {
			c := color.NRGBA64Model.Convert(m.RGBA64At(x, y)).(color.NRGBA64)
			px[0], px[1], px[2], px[3] = int(c.R), int(c.G), int(c.B), int(c.A)
		}
	case *image.NRGBA64:
		fi.BitsPerSample, fi.ComponentCount = 16, channels(m.Opaque())
		pixel = func(x, y int, px []int) {
			p := m.Pix[m.PixOffset(x, y):]
			for c := range 4 {
				px[c] = int(binary.BigEndian.Uint16(p[2*c:]))
			}
		}
	default:
		return nil, fi, newError(CodeParameterValueNotSupported, ErrInvalidParameter, "unsupported image type %T", img)
	}
	if fi.ComponentCount == 1 {
		ilv = InterleaveNone
	}

	bps := bytesPerSample(fi.BitsPerSample)
	buf := make([]byte, frameSize(fi))
	px := make([]int, 4)
	for y := 0; y < fi.Height; y++ {
		for x := 0; x < fi.Width; x++ {
			pixel(b.Min.X+x, b.Min.Y+y, px)
			for c := 0; c < fi.ComponentCount; c++ {
				i := sampleIndex(fi, ilv, x, y, c)
				if bps == 1 {
					buf[i] = byte(px[c])
				} else {
					binary.LittleEndian.PutUint16(buf[i*2:], uint16(px[c]))
				}
			}
		}
	}
	return buf, fi, nil
}

func channels(opaque bool) int {
	if opaque {
		return 3
	}
	return 4
}

// IsSupportedImage reports whether Encode accepts img without conversion.
func IsSupportedImage(img image.Image) bool {
	switch img.(type) {
	case *image.Gray, *image.Gray16, *image.RGBA, *image.NRGBA, *image.RGBA64, *image.NRGBA64:
		return true
	}
	return false
}

// bufferImage builds an image from a decoded raw buffer. Precision above 8
// bits yields 16 bit images, 3 and 4 components yield NRGBA.
func bufferImage(buf []byte, fi FrameInfo, ilv InterleaveMode) (image.Image, error) {
	if fi.ComponentCount == 1 {
		ilv = InterleaveNone
	}
	r := newSampleReader(buf, fi, ilv)
	rect := image.Rect(0, 0, fi.Width, fi.Height)
	switch {
	case fi.ComponentCount == 1 && fi.BitsPerSample <= 8:
		img := image.NewGray(rect)
		for y := range fi.Height {
			for x := range fi.Width {
				img.Pix[img.PixOffset(x, y)] = byte(r.at(x, y, 0))
			}
		}
		return img, nil
	case fi.ComponentCount == 1:
		img := image.NewGray16(rect)
		for y := range fi.Height {
			for x := range fi.Width {
				binary.BigEndian.PutUint16(img.Pix[img.PixOffset(x, y):], uint16(r.at(x, y, 0)))
			}
		}
		return img, nil
	case (fi.ComponentCount == 3 || fi.ComponentCount == 4) && fi.BitsPerSample <= 8:
		img := image.NewNRGBA(rect)
		for y := range fi.Height {
			for x := range fi.Width {
				p := img.Pix[img.PixOffset(x, y):]
				p[3] = 0xFF
				for c := range fi.ComponentCount {
					p[c] = byte(r.at(x, y, c))
				}
			}
		}
		return img, nil
	case fi.ComponentCount == 3 || fi.ComponentCount == 4:
		img := image.NewNRGBA64(rect)
		for y := range fi.Height {
			for x := range fi.Width {
				p := img.Pix[img.PixOffset(x, y):]
				p[6], p[7] = 0xFF, 0xFF
				for c := range fi.ComponentCount {
					binary.BigEndian.PutUint16(p[2*c:], uint16(r.at(x, y, c)))
				}
			}
		}
		return img, nil
	}
	return nil, newError(CodeParameterValueNotSupported, ErrInvalidParameter, "no image type for %d components", fi.ComponentCount)
}

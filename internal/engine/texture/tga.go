package texture

import (
	"errors"
	"image"
	"image/color"
)

// TGA image types handled by DecodeTGA.
const (
	TGATypeUncompressed = 2  // Uncompressed true-color
	TGATypeRLE          = 10 // RLE compressed true-color
)

const tgaHeaderSize = 18

var errTGATruncated = errors.New("tga: data truncated")

// DecodeTGA decodes uncompressed and RLE true-color TGA images with 24 or
// 32 bits per pixel.
func DecodeTGA(data []byte) (*image.RGBA, error) {
	if len(data) < tgaHeaderSize {
		return nil, errTGATruncated
	}

	idLength := int(data[0])
	colorMapType := data[1]
	imageType := data[2]
	width := int(data[12]) | int(data[13])<<8
	height := int(data[14]) | int(data[15])<<8
	bpp := int(data[16])
	topToBottom := data[17]&0x20 != 0

	switch {
	case colorMapType != 0:
		return nil, errors.New("tga: color-mapped images not supported")
	case imageType != TGATypeUncompressed && imageType != TGATypeRLE:
		return nil, errors.New("tga: only true-color images supported")
	case bpp != 24 && bpp != 32:
		return nil, errors.New("tga: only 24 and 32 bit images supported")
	}

	offset := tgaHeaderSize + idLength
	if offset > len(data) {
		return nil, errTGATruncated
	}

	d := tgaDecoder{
		img:         image.NewRGBA(image.Rect(0, 0, width, height)),
		src:         data[offset:],
		width:       width,
		height:      height,
		stride:      bpp / 8,
		topToBottom: topToBottom,
	}
	if imageType == TGATypeUncompressed {
		if len(d.src) < width*height*d.stride {
			return nil, errTGATruncated
		}
		for d.n < width*height {
			d.put(d.read())
		}
	} else {
		d.decodeRLE()
	}
	return d.img, nil
}

// tgaDecoder walks BGR(A) pixels in file order.
type tgaDecoder struct {
	img           *image.RGBA
	src           []byte
	pos           int
	n             int
	width, height int
	stride        int
	topToBottom   bool
}

func (d *tgaDecoder) read() color.RGBA {
	p := d.src[d.pos : d.pos+d.stride]
	d.pos += d.stride
	c := color.RGBA{R: p[2], G: p[1], B: p[0], A: 255}
	if d.stride == 4 {
		c.A = p[3]
	}
	return c
}

func (d *tgaDecoder) put(c color.RGBA) {
	x, y := d.n%d.width, d.n/d.width
	if !d.topToBottom {
		y = d.height - 1 - y
	}
	d.img.SetRGBA(x, y, c)
	d.n++
}

// decodeRLE fills pixels from run-length packets. Truncated input leaves
// the remaining pixels transparent.
func (d *tgaDecoder) decodeRLE() {
	total := d.width * d.height
	for d.n < total && d.pos < len(d.src) {
		packet := d.src[d.pos]
		d.pos++
		count := int(packet&0x7F) + 1

		if packet&0x80 != 0 {
			if d.pos+d.stride > len(d.src) {
				return
			}
			c := d.read()
			for i := 0; i < count && d.n < total; i++ {
				d.put(c)
			}
			continue
		}
		for i := 0; i < count && d.n < total; i++ {
			if d.pos+d.stride > len(d.src) {
				return
			}
			d.put(d.read())
		}
	}
}

package tiff

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToImageGray(t *testing.T) {
	img := &RasterImage{Width: 2, Height: 1, Data: []byte{0, 200}}

	m, err := ToImage(img, Config{Width: 2, Height: 1, BitsPerSample: 8, SamplesPerPixel: 1, Photometric: BlackIsZero})
	require.NoError(t, err)
	require.IsType(t, &image.Gray{}, m)
	assert.Equal(t, []byte{0, 200}, m.(*image.Gray).Pix)

	m, err = ToImage(img, Config{Width: 2, Height: 1, BitsPerSample: 8, SamplesPerPixel: 1, Photometric: WhiteIsZero})
	require.NoError(t, err)
	assert.Equal(t, []byte{255, 55}, m.(*image.Gray).Pix)

	deep := &RasterImage{Width: 1, Height: 1, Data: []byte{0x34, 0x12}}
	m, err = ToImage(deep, Config{Width: 1, Height: 1, BitsPerSample: 16, SamplesPerPixel: 1, Photometric: BlackIsZero})
	require.NoError(t, err)
	require.IsType(t, &image.Gray16{}, m)
	assert.Equal(t, color.Gray16{Y: 0x1234}, m.(*image.Gray16).Gray16At(0, 0))
}

func TestToImageAlpha(t *testing.T) {
	img := &RasterImage{Width: 1, Height: 1, Data: []byte{100, 0x80}}
	c := Config{Width: 1, Height: 1, BitsPerSample: 8, SamplesPerPixel: 2, Photometric: BlackIsZero, ExtraSamples: []uint16{esUnassociated}}
	m, err := ToImage(img, c)
	require.NoError(t, err)
	require.IsType(t, &image.NRGBA{}, m)
	assert.Equal(t, color.NRGBA{100, 100, 100, 0x80}, m.At(0, 0))

	c.ExtraSamples = []uint16{esAssociated}
	m, err = ToImage(img, c)
	require.NoError(t, err)
	require.IsType(t, &image.RGBA{}, m)
	assert.Equal(t, color.RGBA{100, 100, 100, 0x80}, m.At(0, 0))

	rgb := &RasterImage{Width: 1, Height: 1, Data: []byte{1, 2, 3}}
	m, err = ToImage(rgb, Config{Width: 1, Height: 1, BitsPerSample: 8, SamplesPerPixel: 3, Photometric: RGB})
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{1, 2, 3, 0xff}, m.At(0, 0))
}

func TestToImageErrors(t *testing.T) {
	img := &RasterImage{Width: 1, Height: 1, Data: []byte{1, 2, 3}}
	c := Config{Width: 1, Height: 1, BitsPerSample: 8, SamplesPerPixel: 3, Photometric: PhotometricUnknown}

	_, err := ToImage(img, c)
	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, MissingRequiredTag, e.Kind)
	assert.Equal(t, uint16(tPhotometricInterpretation), e.Tag)

	c.Photometric = YCbCr
	_, err = ToImage(img, c)
	assert.True(t, errors.Is(err, ErrUnsupported), "got %v", err)

	c.Photometric = RGB
	c.Height = 2
	_, err = ToImage(img, c)
	assert.True(t, errors.Is(err, ErrSizeMismatch), "got %v", err)
}

func TestImageRoundTrip(t *testing.T) {
	r := image.Rect(0, 0, 5, 3)
	gray := image.NewGray(r)
	copy(gray.Pix, ramp(len(gray.Pix), 1))
	gray16 := image.NewGray16(r)
	copy(gray16.Pix, ramp(len(gray16.Pix), 2))
	rgba := image.NewRGBA(r)
	for i := 0; i < len(rgba.Pix); i += 4 {
		a := byte(i * 13)
		rgba.Pix[i], rgba.Pix[i+1], rgba.Pix[i+2], rgba.Pix[i+3] = a/2, a/3, a/4, a
	}
	nrgba := image.NewNRGBA(r)
	copy(nrgba.Pix, ramp(len(nrgba.Pix), 3))
	rgba64 := image.NewRGBA64(r)
	for i := 0; i < len(rgba64.Pix); i += 8 {
		copy(rgba64.Pix[i:], []byte{0x10, 0x00, 0x20, 0x00, 0x30, 0x00, 0x40, byte(i)})
	}
	nrgba64 := image.NewNRGBA64(r)
	copy(nrgba64.Pix, ramp(len(nrgba64.Pix), 4))
	cmyk := image.NewCMYK(r)
	copy(cmyk.Pix, ramp(len(cmyk.Pix), 5))
	pal := image.NewPaletted(r, color.Palette{color.White, color.RGBA{0x10, 0x20, 0x30, 0xff}})
	for i := range pal.Pix {
		pal.Pix[i] = uint8(i & 1)
	}
	// Neutral chroma keeps the conversion to 8-bit RGB exact.
	ycc := image.NewYCbCr(r, image.YCbCrSubsampleRatio420)
	copy(ycc.Y, ramp(len(ycc.Y), 6))
	for i := range ycc.Cb {
		ycc.Cb[i], ycc.Cr[i] = 128, 128
	}

	tests := []struct {
		m    image.Image
		want image.Image
	}{
		{gray, &image.Gray{}},
		{gray16, &image.Gray16{}},
		{rgba, &image.RGBA{}},
		{nrgba, &image.NRGBA{}},
		{rgba64, &image.RGBA64{}},
		{nrgba64, &image.NRGBA64{}},
		{cmyk, &image.CMYK{}},
		{pal, &image.Paletted{}},
		{ycc, &image.NRGBA{}},
	}
	for _, tt := range tests {
		raster, opts := FromImage(tt.m)
		opts.Compression = CompressionLZW
		buf, err := Encode(raster, opts)
		require.NoError(t, err, "%T", tt.m)

		raster2, c, err := DecodeWithOptions(buf, nil)
		require.NoError(t, err)
		got, err := ToImage(raster2, c)
		require.NoError(t, err)
		assert.IsType(t, tt.want, got, "%T", tt.m)
		assertSameImage(t, tt.m, got)

		cfg, err := DecodeImageConfig(bytes.NewReader(buf))
		require.NoError(t, err)
		assert.Equal(t, 5, cfg.Width)
		assert.Equal(t, 3, cfg.Height)
		assert.Equal(t, got.ColorModel().Convert(color.White), cfg.ColorModel.Convert(color.White), "%T", tt.m)
	}
}

func TestFromSubImage(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 8, 8))
	copy(gray.Pix, ramp(len(gray.Pix), 0))
	sub := gray.SubImage(image.Rect(2, 3, 6, 5))

	raster, _ := FromImage(sub)
	assert.Equal(t, uint32(4), raster.Width)
	assert.Equal(t, uint32(2), raster.Height)
	want := append(append([]byte(nil), gray.Pix[3*8+2:3*8+6]...), gray.Pix[4*8+2:4*8+6]...)
	assert.Equal(t, want, raster.Data)
}

func TestToRGBA(t *testing.T) {
	img := &RasterImage{Width: 2, Height: 1, Data: []byte{10, 250}}
	got, err := ToRGBA(img, Config{Width: 2, Height: 1, BitsPerSample: 8, SamplesPerPixel: 1, Photometric: BlackIsZero})
	require.NoError(t, err)
	assert.Equal(t, &RasterImage{Width: 2, Height: 1, Data: []byte{10, 10, 10, 255, 250, 250, 250, 255}}, got)

	// Unassociated alpha is premultiplied on the way out.
	img = &RasterImage{Width: 1, Height: 1, Data: []byte{200, 100, 0, 0x80}}
	got, err = ToRGBA(img, Config{Width: 1, Height: 1, BitsPerSample: 8, SamplesPerPixel: 4, Photometric: RGB, ExtraSamples: []uint16{esUnassociated}})
	require.NoError(t, err)
	want := color.RGBAModel.Convert(color.NRGBA{200, 100, 0, 0x80}).(color.RGBA)
	assert.Equal(t, []byte{want.R, want.G, want.B, want.A}, got.Data)

	_, err = ToRGBA(img, Config{Width: 1, Height: 1, BitsPerSample: 8, SamplesPerPixel: 4, Photometric: CIELab})
	assert.True(t, errors.Is(err, ErrUnsupported), "got %v", err)
}

func TestDecodeImage(t *testing.T) {
	buf := grayFixture(3, 2, 1, []byte{1, 2, 3, 4, 5, 6}).bytes()
	m, err := DecodeImage(bytes.NewReader(buf))
	require.NoError(t, err)
	require.IsType(t, &image.Gray{}, m)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6}, m.(*image.Gray).Pix)

	cfg, err := DecodeImageConfig(bytes.NewReader(buf))
	require.NoError(t, err)
	assert.True(t, cfg.ColorModel == color.GrayModel)
	assert.Equal(t, image.Config{ColorModel: color.GrayModel, Width: 3, Height: 2}, cfg)

	_, err = DecodeImage(bytes.NewReader(buf[:len(buf)-1]))
	assert.True(t, errors.Is(err, ErrTruncatedInput), "got %v", err)

	_, err = DecodeImageConfig(bytes.NewReader(grayFixture(1, 1, 1, []byte{0}).without(tPhotometricInterpretation).bytes()))
	assert.True(t, errors.Is(err, ErrMissingRequiredTag), "got %v", err)
}

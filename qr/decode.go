package qr

import (
	"encoding/xml"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"os"
	"strings"

	"github.com/kysee/zkk/errs"
	"github.com/makiuchi-d/gozxing"
	gzqr "github.com/makiuchi-d/gozxing/qrcode"
)

// DecodeSVG reads back the payload of an SVG written by WriteSVG.
func DecodeSVG(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("read QR code: %w", err)
	}
	defer f.Close()

	img, err := rasterize(f)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", errs.ErrEncodingFailed, path, err)
	}
	return decodeImage(img)
}

func decodeImage(img image.Image) (string, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errs.ErrEncodingFailed, err)
	}
	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_PURE_BARCODE:  true,
		gozxing.DecodeHintType_CHARACTER_SET: "UTF-8",
	}
	res, err := gzqr.NewQRCodeReader().Decode(bmp, hints)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errs.ErrEncodingFailed, err)
	}
	return res.GetText(), nil
}

type svgRect struct {
	X      int    `xml:"x,attr"`
	Y      int    `xml:"y,attr"`
	Width  int    `xml:"width,attr"`
	Height int    `xml:"height,attr"`
	Style  string `xml:"style,attr"`
}

type svgDoc struct {
	Width  int       `xml:"width,attr"`
	Height int       `xml:"height,attr"`
	Rects  []svgRect `xml:"rect"`
}

// rasterize paints the rects of an SVG onto a grayscale image. Only the
// subset of SVG that WriteSVG emits is understood.
func rasterize(r io.Reader) (*image.Gray, error) {
	var doc svgDoc
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, err
	}
	if doc.Width <= 0 || doc.Height <= 0 {
		return nil, fmt.Errorf("missing svg dimensions")
	}

	img := image.NewGray(image.Rect(0, 0, doc.Width, doc.Height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	for _, rc := range doc.Rects {
		fill := color.Gray{Y: 0}
		if strings.Contains(rc.Style, "white") {
			fill = color.Gray{Y: 0xff}
		}
		area := image.Rect(rc.X, rc.Y, rc.X+rc.Width, rc.Y+rc.Height)
		draw.Draw(img, area, &image.Uniform{C: fill}, image.Point{}, draw.Src)
	}
	return img, nil
}

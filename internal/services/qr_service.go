package services

import (
	"bytes"
	"fmt"
	"image/color"
	"image/png"
	"strings"

	"clicktrail/internal/models"

	"github.com/skip2/go-qrcode"
)

const (
	defaultQRSize = 256
	maxQRSize     = 2048
)

type QROptions struct {
	Size    int
	FgColor string // Hex code e.g. "#000000"
	BgColor string // Hex code e.g. "#FFFFFF"
}

// QRService renders QR codes that point at the public short URL of a link,
// so scans go through the resolver and are tracked like any other click.
type QRService struct {
	publicBaseURL string
}

func NewQRService(publicBaseURL string) *QRService {
	return &QRService{publicBaseURL: strings.TrimRight(publicBaseURL, "/")}
}

// ShortURL prefers the link's own domain over the configured base URL.
func (s *QRService) ShortURL(link *models.Link) string {
	if link.Domain != "" {
		return "https://" + link.Domain + "/" + link.ShortCode
	}
	return s.publicBaseURL + "/" + link.ShortCode
}

func (s *QRService) PNG(link *models.Link, opts QROptions) ([]byte, error) {
	qr, err := qrcode.New(s.ShortURL(link), qrcode.Medium)
	if err != nil {
		return nil, err
	}
	qr.ForegroundColor = parseHexColor(opts.FgColor, color.Black)
	qr.BackgroundColor = parseHexColor(opts.BgColor, color.White)

	var buf bytes.Buffer
	if err := png.Encode(&buf, qr.Image(clampQRSize(opts.Size))); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *QRService) SVG(link *models.Link, opts QROptions) (string, error) {
	qr, err := qrcode.New(s.ShortURL(link), qrcode.Medium)
	if err != nil {
		return "", err
	}
	qr.DisableBorder = true
	bitmap := qr.Bitmap()
	n := len(bitmap)

	fg := hexOrDefault(opts.FgColor, "#000000")
	bg := hexOrDefault(opts.BgColor, "#FFFFFF")

	var sb strings.Builder
	fmt.Fprintf(&sb, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" shape-rendering="crispEdges">`, n, n)
	fmt.Fprintf(&sb, `<rect width="100%%" height="100%%" fill="%s"/>`, bg)
	fmt.Fprintf(&sb, `<path fill="%s" d="`, fg)
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			if bitmap[y][x] {
				fmt.Fprintf(&sb, "M%d %dh1v1h-1z ", x, y)
			}
		}
	}
	sb.WriteString(`"/></svg>`)
	return sb.String(), nil
}

func clampQRSize(size int) int {
	if size <= 0 {
		return defaultQRSize
	}
	if size > maxQRSize {
		return maxQRSize
	}
	return size
}

// hexOrDefault keeps caller supplied colors out of the SVG unless they are
// plain #rrggbb values.
func hexOrDefault(s, def string) string {
	if _, ok := parseHex(s); ok {
		return "#" + strings.TrimPrefix(s, "#")
	}
	return def
}

func parseHexColor(s string, defaultColor color.Color) color.Color {
	c, ok := parseHex(s)
	if !ok {
		return defaultColor
	}
	return c
}

func parseHex(s string) (color.RGBA, bool) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return color.RGBA{}, false
	}
	var v [6]byte
	for i := 0; i < 6; i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			v[i] = c - '0'
		case c >= 'a' && c <= 'f':
			v[i] = c - 'a' + 10
		case c >= 'A' && c <= 'F':
			v[i] = c - 'A' + 10
		default:
			return color.RGBA{}, false
		}
	}
	return color.RGBA{R: v[0]<<4 + v[1], G: v[2]<<4 + v[3], B: v[4]<<4 + v[5], A: 255}, true
}

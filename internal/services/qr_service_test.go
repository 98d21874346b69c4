package services

import (
	"bytes"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"clicktrail/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQRService(t *testing.T) {
	service := NewQRService("https://sho.rt/")
	link := &models.Link{ShortCode: "abc123"}

	t.Run("Short URL", func(t *testing.T) {
		assert.Equal(t, "https://sho.rt/abc123", service.ShortURL(link))
		assert.Equal(t, "https://go.example.com/abc123", service.ShortURL(&models.Link{ShortCode: "abc123", Domain: "go.example.com"}))
	})

	t.Run("PNG", func(t *testing.T) {
		data, err := service.PNG(link, QROptions{Size: 128, FgColor: "#112233"})
		require.NoError(t, err)

		img, err := png.Decode(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, 128, img.Bounds().Dx())
	})

	t.Run("PNG Size Clamped", func(t *testing.T) {
		data, err := service.PNG(link, QROptions{Size: 100000})
		require.NoError(t, err)
		img, err := png.Decode(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, maxQRSize, img.Bounds().Dx())
	})

	t.Run("SVG", func(t *testing.T) {
		svg, err := service.SVG(link, QROptions{FgColor: "#ff0000", BgColor: `"><script>`})
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(svg, "<svg"))
		assert.Contains(t, svg, `fill="#ff0000"`)
		assert.Contains(t, svg, `fill="#FFFFFF"`)
		assert.NotContains(t, svg, "script")
	})

	t.Run("Content Too Long", func(t *testing.T) {
		_, err := service.PNG(&models.Link{ShortCode: strings.Repeat("A", 10000)}, QROptions{})
		assert.Error(t, err)
	})
}

func TestParseHexColor(t *testing.T) {
	assert.Equal(t, color.Black, parseHexColor("invalid", color.Black))
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, parseHexColor("#ff0000", color.Black))
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, parseHexColor("FF0000", color.Black))
	assert.Equal(t, color.Black, parseHexColor("#GGGGGG", color.Black))
}

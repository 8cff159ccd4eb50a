package chart

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trogers1052/trade-journal/internal/models"
)

func TestRenderEquityCurve(t *testing.T) {
	t.Run("renders a decodable png", func(t *testing.T) {
		points := []models.ChartPoint{
			{Date: "2024-01-01", Balance: decimal.NewFromInt(9950)},
			{Date: "2024-01-02", Balance: decimal.NewFromInt(4930)},
		}

		var buf bytes.Buffer
		require.NoError(t, RenderEquityCurve(points, &buf))

		img, err := png.Decode(&buf)
		require.NoError(t, err)
		assert.Greater(t, img.Bounds().Dx(), img.Bounds().Dy())
	})

	t.Run("empty journal still renders", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, RenderEquityCurve(nil, &buf))
		assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG\r\n\x1a\n")))
	})

	t.Run("title names the date span", func(t *testing.T) {
		p, err := EquityCurve([]models.ChartPoint{
			{Date: "2024-01-01", Balance: decimal.NewFromInt(1)},
			{Date: "2024-03-01", Balance: decimal.NewFromInt(2)},
		})
		require.NoError(t, err)
		assert.Equal(t, "Equity Curve (2024-01-01 to 2024-03-01)", p.Title.Text)
	})
}

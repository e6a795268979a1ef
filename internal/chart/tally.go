package chart

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"

	"github.com/HugoSmits86/nativewebp"
	"github.com/openkeyhub/governance/internal/database/types"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/svg"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var ErrUnsupportedFormat = errors.New("unsupported image format")

// Format is an output image encoding.
type Format string

const (
	FormatPNG  Format = "png"
	FormatWebP Format = "webp"
	FormatSVG  Format = "svg"
)

// ParseFormat validates a format name.
func ParseFormat(name string) (Format, error) {
	switch f := Format(name); f {
	case FormatPNG, FormatWebP, FormatSVG:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatWebP:
		return "image/webp"
	case FormatSVG:
		return svgMediaType
	default:
		return "image/png"
	}
}

const svgMediaType = "image/svg+xml"

var minifier = newMinifier()

func newMinifier() *minify.M {
	m := minify.New()
	m.AddFunc(svgMediaType, svg.Minify)
	return m
}

// Chart dimensions and styling.
const (
	width         = 640
	height        = 400
	barWidth      = 120
	barSpacing    = 60
	titleFontSize = 12.0
	paddingTop    = 40
	paddingBottom = 20
	paddingLeft   = 20
	paddingRight  = 20
)

var quorumColor = drawing.ColorFromHex("6b7280")

// RenderTally draws the Yes, No and Abstain weight of a proposal next to its quorum.
func RenderTally(p *types.Proposal, format Format) (*bytes.Buffer, error) {
	if _, err := ParseFormat(string(format)); err != nil {
		return nil, err
	}

	bars := []chart.Value{
		{Label: "Yes", Value: float64(p.TotalYes), Style: barStyle(chart.ColorGreen)},
		{Label: "No", Value: float64(p.TotalNo), Style: barStyle(chart.ColorRed)},
		{Label: "Abstain", Value: float64(p.TotalAbstain), Style: barStyle(chart.ColorBlue)},
		{Label: "Quorum", Value: float64(p.QuorumRequired), Style: barStyle(quorumColor)},
	}

	// An explicit range keeps the axis valid when nobody has voted
	top := 1.0
	for _, bar := range bars {
		top = max(top, bar.Value)
	}

	graph := chart.BarChart{
		Title:      fmt.Sprintf("%s (%s)", p.Title, p.Status),
		TitleStyle: chart.Style{FontSize: titleFontSize},
		Width:      width,
		Height:     height,
		BarWidth:   barWidth,
		BarSpacing: barSpacing,
		Background: chart.Style{
			Padding: chart.Box{
				Top:    paddingTop,
				Left:   paddingLeft,
				Right:  paddingRight,
				Bottom: paddingBottom,
			},
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: top * 1.1},
		},
		Bars: bars,
	}

	if format == FormatSVG {
		return renderSVG(&graph)
	}

	buf := new(bytes.Buffer)
	if err := graph.Render(chart.PNG, buf); err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}

	if format == FormatPNG {
		return buf, nil
	}

	img, err := png.Decode(buf)
	if err != nil {
		return nil, fmt.Errorf("failed to decode rendered chart: %w", err)
	}

	out := new(bytes.Buffer)
	if err := nativewebp.Encode(out, img, nil); err != nil {
		return nil, fmt.Errorf("failed to encode webp: %w", err)
	}
	return out, nil
}

func renderSVG(graph *chart.BarChart) (*bytes.Buffer, error) {
	buf := new(bytes.Buffer)
	if err := graph.Render(chart.SVG, buf); err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}

	minified, err := minifier.Bytes(svgMediaType, buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to minify chart: %w", err)
	}
	return bytes.NewBuffer(minified), nil
}

func barStyle(color drawing.Color) chart.Style {
	return chart.Style{
		FillColor:   color,
		StrokeColor: color,
		StrokeWidth: 1,
	}
}

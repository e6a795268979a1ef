package chart_test

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/openkeyhub/governance/internal/chart"
	"github.com/openkeyhub/governance/internal/database/types"
	"github.com/openkeyhub/governance/internal/database/types/enum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/webp"
)

func TestRenderTally(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		proposal *types.Proposal
	}{
		{
			name: "votes cast",
			proposal: &types.Proposal{
				Title:          "Fund the documentation sprint",
				Status:         enum.ProposalStatusPassed,
				TotalYes:       700,
				TotalNo:        200,
				TotalAbstain:   50,
				QuorumRequired: 400,
			},
		},
		{
			name: "no votes",
			proposal: &types.Proposal{
				Title:  "Quiet proposal",
				Status: enum.ProposalStatusActive,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			buf, err := chart.RenderTally(tt.proposal, chart.FormatPNG)
			require.NoError(t, err)

			img, err := png.Decode(bytes.NewReader(buf.Bytes()))
			require.NoError(t, err)
			assert.Equal(t, 640, img.Bounds().Dx())
			assert.Equal(t, 400, img.Bounds().Dy())
		})
	}
}

func TestRenderTallyWebP(t *testing.T) {
	t.Parallel()

	buf, err := chart.RenderTally(&types.Proposal{
		Title:    "Fund the documentation sprint",
		Status:   enum.ProposalStatusActive,
		TotalYes: 100,
	}, chart.FormatWebP)
	require.NoError(t, err)

	data := buf.Bytes()
	require.Greater(t, len(data), 12)
	assert.Equal(t, "RIFF", string(data[:4]))
	assert.Equal(t, "WEBP", string(data[8:12]))

	img, err := webp.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 640, img.Bounds().Dx())
	assert.Equal(t, 400, img.Bounds().Dy())
}

func TestRenderTallySVG(t *testing.T) {
	t.Parallel()

	buf, err := chart.RenderTally(&types.Proposal{
		Title:          "Fund the documentation sprint",
		Status:         enum.ProposalStatusActive,
		TotalYes:       100,
		TotalNo:        40,
		QuorumRequired: 80,
	}, chart.FormatSVG)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "<svg")
	assert.Contains(t, out, "Abstain")
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		want    chart.Format
		wantErr bool
	}{
		{name: "png", want: chart.FormatPNG},
		{name: "webp", want: chart.FormatWebP},
		{name: "svg", want: chart.FormatSVG},
		{name: "gif", wantErr: true},
		{name: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := chart.ParseFormat(tt.name)
			if tt.wantErr {
				require.ErrorIs(t, err, chart.ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderTallyUnsupported(t *testing.T) {
	t.Parallel()

	_, err := chart.RenderTally(&types.Proposal{}, chart.Format("gif"))
	require.ErrorIs(t, err, chart.ErrUnsupportedFormat)
}

func TestContentType(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "image/png", chart.FormatPNG.ContentType())
	assert.Equal(t, "image/webp", chart.FormatWebP.ContentType())
	assert.Equal(t, "image/svg+xml", chart.FormatSVG.ContentType())
}

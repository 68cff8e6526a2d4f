package service

import (
	"adaptive_learning_backend/internal/model"
	"bytes"
	"context"
	"encoding/base64"
	"image/color"
	"math"
	"strconv"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/sync/errgroup"
)

const (
	chartWidth  = 480
	chartHeight = 360
)

var (
	chartBackground = color.RGBA{R: 0xfa, G: 0xfb, B: 0xfd, A: 0xff}
	chartInk        = color.RGBA{R: 0x1f, G: 0x29, B: 0x37, A: 0xff}
	chartGrid       = color.RGBA{R: 0xd1, G: 0xd5, B: 0xdb, A: 0xff}
	chartAccent     = color.RGBA{R: 0x25, G: 0x63, B: 0xeb, A: 0xff}
	chartFill       = color.RGBA{R: 0x25, G: 0x63, B: 0xeb, A: 0x55}
)

// ChartSet 一次可视化回答所需的三张图
type ChartSet struct {
	Radar      []byte
	Bar        []byte
	ConceptMap []byte
}

// ChartRenderer 用 gg 在本地绘制蓝图对应的 PNG
type ChartRenderer struct{}

func NewChartRenderer() *ChartRenderer {
	return &ChartRenderer{}
}

// RenderAll 并发绘制雷达图、柱状图，withConceptMap 时同时绘制概念图
func (r *ChartRenderer) RenderAll(ctx context.Context, bp model.VisualBlueprint, withConceptMap bool) (*ChartSet, error) {
	set := &ChartSet{}
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		set.Radar, err = r.Radar(bp)
		return err
	})
	g.Go(func() (err error) {
		set.Bar, err = r.Bar(bp)
		return err
	})
	if withConceptMap {
		g.Go(func() (err error) {
			set.ConceptMap, err = r.ConceptMap(bp)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return set, nil
}

func newChartContext(title string) *gg.Context {
	dc := gg.NewContext(chartWidth, chartHeight)
	dc.SetColor(chartBackground)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)
	dc.SetColor(chartInk)
	dc.DrawStringAnchored(title, chartWidth/2, 20, 0.5, 0.5)
	return dc
}

func encodeChart(dc *gg.Context) ([]byte, error) {
	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *ChartRenderer) Radar(bp model.VisualBlueprint) ([]byte, error) {
	dc := newChartContext(bp.Title)
	n := len(bp.RadarLabels)
	if n == 0 {
		return encodeChart(dc)
	}
	cx, cy, radius := float64(chartWidth)/2, float64(chartHeight)/2+15, 120.0
	point := func(i int, frac float64) (float64, float64) {
		angle := -math.Pi/2 + 2*math.Pi*float64(i)/float64(n)
		return cx + radius*frac*math.Cos(angle), cy + radius*frac*math.Sin(angle)
	}

	// 网格
	dc.SetColor(chartGrid)
	dc.SetLineWidth(1)
	for _, ring := range []float64{0.25, 0.5, 0.75, 1} {
		for i := 0; i < n; i++ {
			x, y := point(i, ring)
			if i == 0 {
				dc.MoveTo(x, y)
			} else {
				dc.LineTo(x, y)
			}
		}
		dc.ClosePath()
		dc.Stroke()
	}
	for i := 0; i < n; i++ {
		x, y := point(i, 1)
		dc.DrawLine(cx, cy, x, y)
		dc.Stroke()
	}

	for i := 0; i < n; i++ {
		score := 0
		if i < len(bp.RadarScores) {
			score = bp.RadarScores[i]
		}
		x, y := point(i, float64(score)/100)
		if i == 0 {
			dc.MoveTo(x, y)
		} else {
			dc.LineTo(x, y)
		}
	}
	dc.ClosePath()
	dc.SetColor(chartFill)
	dc.FillPreserve()
	dc.SetColor(chartAccent)
	dc.SetLineWidth(2)
	dc.Stroke()

	dc.SetColor(chartInk)
	for i, label := range bp.RadarLabels {
		x, y := point(i, 1.15)
		dc.DrawStringAnchored(label, x, y, 0.5, 0.5)
	}
	return encodeChart(dc)
}

func (r *ChartRenderer) Bar(bp model.VisualBlueprint) ([]byte, error) {
	dc := newChartContext(bp.Title)
	n := len(bp.BarLabels)
	if n == 0 {
		return encodeChart(dc)
	}
	left, bottom, top := 50.0, float64(chartHeight)-50, 50.0
	slot := (float64(chartWidth) - left - 30) / float64(n)

	dc.SetColor(chartGrid)
	dc.DrawLine(left, bottom, float64(chartWidth)-30, bottom)
	dc.Stroke()

	for i, label := range bp.BarLabels {
		score := 0
		if i < len(bp.BarScores) {
			score = bp.BarScores[i]
		}
		h := (bottom - top) * float64(score) / 100
		x := left + slot*float64(i) + slot*0.2
		dc.SetColor(chartAccent)
		dc.DrawRectangle(x, bottom-h, slot*0.6, h)
		dc.Fill()

		dc.SetColor(chartInk)
		dc.DrawStringAnchored(label, x+slot*0.3, bottom+16, 0.5, 0.5)
		dc.DrawStringAnchored(strconv.Itoa(score), x+slot*0.3, bottom-h-10, 0.5, 0.5)
	}
	return encodeChart(dc)
}

// ConceptMap 概念节点环形排列并依次连线
func (r *ChartRenderer) ConceptMap(bp model.VisualBlueprint) ([]byte, error) {
	dc := newChartContext(bp.Title)
	n := len(bp.ConceptNodes)
	if n == 0 {
		return encodeChart(dc)
	}
	cx, cy, radius := float64(chartWidth)/2, float64(chartHeight)/2+15, 115.0
	xs, ys := make([]float64, n), make([]float64, n)
	for i := range bp.ConceptNodes {
		angle := -math.Pi/2 + 2*math.Pi*float64(i)/float64(n)
		xs[i], ys[i] = cx+radius*math.Cos(angle), cy+radius*math.Sin(angle)
	}

	dc.SetColor(chartGrid)
	dc.SetLineWidth(2)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		dc.DrawLine(xs[i], ys[i], xs[j], ys[j])
		dc.Stroke()
	}
	for i, node := range bp.ConceptNodes {
		dc.SetColor(chartAccent)
		dc.DrawRoundedRectangle(xs[i]-60, ys[i]-16, 120, 32, 8)
		dc.Fill()
		dc.SetColor(color.White)
		dc.DrawStringAnchored(node, xs[i], ys[i], 0.5, 0.5)
	}
	return encodeChart(dc)
}

// PNGDataURI 转为可直接嵌入前端的 data URI
func PNGDataURI(png []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}

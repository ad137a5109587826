package query

import (
	"bytes"
	"encoding/base64"
	"math"
	"sync"

	"github.com/wcharczuk/go-chart/v2"
)

const plotSamples = 128

var (
	plotOnce sync.Once
	plotB64  string
	plotErr  error
)

// sinePlotPNG renders sin(x) over [0, 2π] to a base64-encoded PNG. The
// input is fixed, so the image is rendered once and reused.
func sinePlotPNG() (string, error) {
	plotOnce.Do(func() {
		xs := make([]float64, plotSamples)
		ys := make([]float64, plotSamples)
		for i := range xs {
			x := 2 * math.Pi * float64(i) / float64(plotSamples-1)
			xs[i] = x
			ys[i] = math.Sin(x)
		}

		graph := chart.Chart{
			Title:  "sin(x)",
			Width:  640,
			Height: 360,
			Series: []chart.Series{
				chart.ContinuousSeries{
					XValues: xs,
					YValues: ys,
				},
			},
		}

		var buf bytes.Buffer
		if err := graph.Render(chart.PNG, &buf); err != nil {
			plotErr = err
			return
		}
		plotB64 = base64.StdEncoding.EncodeToString(buf.Bytes())
	})
	return plotB64, plotErr
}

package monitor

import (
	"bytes"
	"fmt"
	"image/color"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/gridslam/internal/httputil"
	"github.com/banshee-data/gridslam/internal/slam/occupancy"
	"github.com/banshee-data/gridslam/internal/slam/render"
	"github.com/banshee-data/gridslam/internal/slam/world"
)

var echartsAssetsPrefix = "https://go-echarts.github.io/go-echarts-assets/assets/"

func hexColor(c color.Color) string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
}

// cellSeries groups cell positions by state. Rows are negated so row zero
// is drawn at the top.
type cellSeries struct {
	name  string
	color string
	data  []opts.ScatterData
}

func mapChart(title, subtitle string, width, height int, series []cellSeries) *charts.Scatter {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Theme: "dark", Width: "1200px", Height: "820px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "5%"}),
		charts.WithXAxisOpts(opts.XAxis{Min: -1, Max: width, Name: "column", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: -height, Max: 1, Name: "-row", NameLocation: "middle", NameGap: 30}),
	)
	for _, s := range series {
		scatter.AddSeries(s.name, s.data,
			charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: s.color}),
		)
	}
	return scatter
}

func (ws *WebServer) writeChart(w http.ResponseWriter, draw func(*bytes.Buffer) error) {
	var buf bytes.Buffer
	if err := draw(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render chart: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// handleTruthMap renders the ground-truth grid as a scatter of floor and
// wall cells with the truth agent overlaid.
func (ws *WebServer) handleTruthMap(w http.ResponseWriter, r *http.Request) {
	grid, snap, _ := ws.state()
	if grid == nil || snap == nil {
		httputil.Unavailable(w, "no session published yet")
		return
	}

	floor := cellSeries{name: "floor", color: hexColor(render.ColorFloor)}
	wall := cellSeries{name: "wall", color: hexColor(render.ColorWall)}
	for y := 0; y < grid.Height; y++ {
		for x := 0; x < grid.Width; x++ {
			pt := opts.ScatterData{Value: []interface{}{x, -y}}
			if t, _ := grid.Tile(x, y); t == world.Floor {
				floor.data = append(floor.data, pt)
			} else {
				wall.data = append(wall.data, pt)
			}
		}
	}
	agentSeries := poseSeries("truth", hexColor(render.ColorAgent), snap.Truth.X, snap.Truth.Y, snap.CellSize)

	chart := mapChart("Ground truth", fmt.Sprintf("%dx%d rooms=%d step=%d", grid.Width, grid.Height, len(snap.Rooms), snap.Step),
		grid.Width, grid.Height, []cellSeries{wall, floor, agentSeries})
	ws.writeChart(w, func(buf *bytes.Buffer) error { return chart.Render(buf) })
}

// handleBeliefMap renders the belief map; Unknown cells are omitted.
func (ws *WebServer) handleBeliefMap(w http.ResponseWriter, r *http.Request) {
	_, snap, _ := ws.state()
	if snap == nil || snap.Map == nil {
		httputil.Unavailable(w, "no session published yet")
		return
	}
	m := snap.Map

	free := cellSeries{name: "free", color: hexColor(render.ColorFree)}
	occupied := cellSeries{name: "occupied", color: hexColor(render.ColorOccupied)}
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			c, _ := m.Cell(x, y)
			pt := opts.ScatterData{Value: []interface{}{x, -y}}
			switch c {
			case occupancy.Free:
				free.data = append(free.data, pt)
			case occupancy.Occupied:
				occupied.data = append(occupied.data, pt)
			}
		}
	}
	agentSeries := poseSeries("belief", hexColor(render.ColorAgent), snap.Belief.X, snap.Belief.Y, snap.CellSize)

	chart := mapChart("Belief map", fmt.Sprintf("known=%d coverage=%.1f%% error=%.3f", snap.Counts.Known(), 100*snap.Coverage, snap.PoseError),
		m.Width, m.Height, []cellSeries{free, occupied, agentSeries})
	ws.writeChart(w, func(buf *bytes.Buffer) error { return chart.Render(buf) })
}

func poseSeries(name, color string, x, y, cellSize float64) cellSeries {
	if cellSize <= 0 {
		cellSize = 1
	}
	return cellSeries{name: name, color: color, data: []opts.ScatterData{
		{Value: []interface{}{x / cellSize, -y / cellSize}, SymbolSize: 12},
	}}
}

// handleErrorChart plots pose error per observed step.
func (ws *WebServer) handleErrorChart(w http.ResponseWriter, r *http.Request) {
	_, _, trace := ws.state()

	xs := make([]int, len(trace))
	ys := make([]opts.LineData, len(trace))
	for i, e := range trace {
		xs[i] = i + 1
		ys[i] = opts.LineData{Value: e}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Pose error", Theme: "dark", Width: "100%", Height: "480px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: "Pose error", Subtitle: fmt.Sprintf("samples=%d", len(trace))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "step"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "world units"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)
	line.SetXAxis(xs).AddSeries("pose error", ys)
	ws.writeChart(w, func(buf *bytes.Buffer) error { return line.Render(buf) })
}

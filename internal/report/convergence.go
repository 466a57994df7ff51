package report

import (
	"fmt"
	"io"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/airshape-data/foilfit/internal/fit"
)

// WriteConvergenceHTML renders an interactive line chart of total cost and
// deviation term against the objective evaluation count. Requires a fit run
// executed with history recording enabled.
func WriteConvergenceHTML(w io.Writer, title string, history []fit.EvalSample) error {
	if len(history) == 0 {
		return fmt.Errorf("no evaluation history recorded")
	}

	xs := make([]int, len(history))
	costData := make([]opts.LineData, len(history))
	devData := make([]opts.LineData, len(history))
	for i, s := range history {
		xs[i] = s.NEvals
		costData[i] = opts.LineData{Value: s.Cost}
		devData[i] = opts.LineData{Value: s.Deviation}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: title,
			Width:     "1200px",
			Height:    "600px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: fmt.Sprintf("%d objective evaluations", history[len(history)-1].NEvals),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "evaluations", NameLocation: "middle", NameGap: 30}),
		charts.WithYAxisOpts(opts.YAxis{Name: "cost"}),
	)
	line.SetXAxis(xs).
		AddSeries("total cost", costData).
		AddSeries("deviation term", devData)

	if err := line.Render(w); err != nil {
		return fmt.Errorf("render convergence chart: %w", err)
	}
	return nil
}

// SaveConvergenceHTML writes the convergence chart to a file.
func SaveConvergenceHTML(path, title string, history []fit.EvalSample) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()
	if err := WriteConvergenceHTML(f, title, history); err != nil {
		return err
	}
	return f.Close()
}

// Command roverchart renders the pin readings logged by cmd/rover into a
// standalone HTML chart for a quick look at a run without any UI server.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/roverlink/internal/telemetry"
)

var (
	dbFile  = flag.String("db", "rover_telemetry.db", "Telemetry database file")
	kind    = flag.String("kind", "analog", "Reading kind to chart: analog or digital")
	limit   = flag.Int("limit", 2000, "Maximum rows to load")
	outFile = flag.String("out", "readings.html", "Output HTML file")
)

func main() {
	flag.Parse()

	store, err := telemetry.Open(*dbFile)
	if err != nil {
		log.Fatalf("failed to open telemetry database: %v", err)
	}
	defer store.Close()

	readings, err := store.Readings(*kind, *limit)
	if err != nil {
		log.Fatalf("failed to load readings: %v", err)
	}
	if len(readings) == 0 {
		log.Fatalf("no %s readings in %s", *kind, *dbFile)
	}

	// Rows arrive newest first; chart oldest to newest.
	for i, j := 0, len(readings)-1; i < j; i, j = i+1, j-1 {
		readings[i], readings[j] = readings[j], readings[i]
	}

	// One series per pin, sharing a timestamp axis.
	series := make(map[int][]opts.LineData)
	var axis []string
	seen := make(map[string]bool)
	for _, r := range readings {
		ts := r.Timestamp.Format("15:04:05")
		if !seen[ts] {
			seen[ts] = true
			axis = append(axis, ts)
		}
		series[r.Pin] = append(series[r.Pin], opts.LineData{Value: r.Value})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Rover Pin Readings", Width: "1200px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("%s pin readings", *kind),
			Subtitle: fmt.Sprintf("session %s, %d rows", readings[0].SessionID, len(readings)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	line.SetXAxis(axis)
	pins := make([]int, 0, len(series))
	for pin := range series {
		pins = append(pins, pin)
	}
	sort.Ints(pins)
	for _, pin := range pins {
		line.AddSeries(fmt.Sprintf("pin %d", pin), series[pin])
	}

	f, err := os.Create(*outFile)
	if err != nil {
		log.Fatalf("failed to create %s: %v", *outFile, err)
	}
	defer f.Close()

	if err := line.Render(f); err != nil {
		log.Fatalf("failed to render chart: %v", err)
	}
	log.Printf("wrote %d readings to %s", len(readings), *outFile)
}

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"energy-forecast/src/config"
	"energy-forecast/src/data_source/smard"
	"energy-forecast/src/export"
	"energy-forecast/src/logger"
	"energy-forecast/src/models"
	"energy-forecast/src/network"
	"energy-forecast/src/pipeline"
	"energy-forecast/src/utils"
)

// -----------------------------------------------------------------------------

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	endpoint := flag.String("endpoint", "", "caching proxy endpoint, overrides pipeline.endpoint")
	date := flag.String("date", "today", "YYYY-MM-DD, today, yesterday or tomorrow")
	region := flag.String("region", "", "control area, defaults to default_region")
	format := flag.String("format", "table", "output format: table, json or xlsx")
	out := flag.String("out", "", "output file (default stdout)")
	flag.Parse()

	if err := run(*configPath, *endpoint, *date, *region, *format, *out); err != nil {
		fmt.Fprintf(os.Stderr, "forecast: %v\n", err)
		os.Exit(1)
	}
}

// -----------------------------------------------------------------------------

func run(configPath, endpoint, date, region, format, out string) error {
	conf := config.Default()
	if configPath != "" {
		c, err := config.NewConfig(configPath)
		if err != nil {
			return err
		}
		conf = c
	}
	if endpoint != "" {
		conf.Pipeline.Endpoint = endpoint
	}

	switch format {
	case "table", "json", "xlsx":
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	loc := conf.Location()
	day, err := utils.ResolveDate(date, loc)
	if err != nil {
		return err
	}

	appLogger := logger.NewLogger(conf, "forecast")
	appLogger.SetOutput(os.Stderr)

	fetcher := network.NewProxyClient(conf.Pipeline.Endpoint, conf.UpstreamTimeout(), appLogger.Named("ProxyClient"))
	p := pipeline.NewPipeline(fetcher, loc, conf.DefaultRegion, conf.Pipeline.Retries, appLogger.Named("Pipeline"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	set, err := p.Run(ctx, pipeline.Selection{Date: day, Region: region})
	if err != nil {
		return err
	}

	w := io.Writer(os.Stdout)
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(set)
	case "xlsx":
		data, err := export.BuildForecastXLSX(set)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	default:
		return writeTable(w, set)
	}
}

// -----------------------------------------------------------------------------

func writeTable(w io.Writer, set *models.MForecastSet) error {
	fmt.Fprintf(w, "Prognose %s, Region %s\n\n", set.Date, set.Region)
	if set.NoData {
		fmt.Fprintln(w, "Keine Daten für gegebene Anfrage")
		fmt.Fprintln(w)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Anfang\tPhotovoltaik\tWind\tErneuerbare\tNetzlast\tAnteil\t")
	for _, row := range set.Rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t\n",
			row.StartLabel(),
			number(row.Photovoltaic),
			number(row.Wind),
			number(row.Renewable),
			number(row.Total),
			percent(row.PercentRenewable),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	s := set.Summary
	fmt.Fprintf(w, "\nDurchschnitt %s, Minimum %s um %s, Maximum %s um %s\n", s.AverageText, s.MinText, s.MinTime, s.MaxText, s.MaxTime)
	return nil
}

func number(v *float64) string {
	if v == nil {
		return "-"
	}
	return smard.FormatNumber(*v, 0)
}

func percent(v *float64) string {
	if v == nil {
		return "-"
	}
	return smard.FormatPercent(*v)
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"

	"github.com/spf13/viper"

	"github.com/poj1738/satellite-communication-simulator/catalog"
	"github.com/poj1738/satellite-communication-simulator/core"
	"github.com/poj1738/satellite-communication-simulator/internal/logging"
	"github.com/poj1738/satellite-communication-simulator/model"
)

func main() {
	configPath := flag.String("config", "", "Scenario file (json, toml, or yaml); a built-in demo scenario runs when omitted")
	tlePath := flag.String("tle", "", "TLE file to import as the remote constellation")
	steps := flag.Int("steps", 0, "Override horizon step count")
	stepSeconds := flag.Float64("step-seconds", 0, "Override horizon step size in seconds")
	primary := flag.String("primary", "", "Override the primary member ID")
	jsonOut := flag.String("json", "", "Write the full result JSON to this file")
	showAll := flag.Bool("show-all", false, "Keep every member's timeline in the JSON output")
	quiet := flag.Bool("quiet", false, "Suppress progress logging")
	flag.Parse()

	log := logging.NewFromEnv()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sc, err := loadScenario(*configPath)
	if err != nil {
		log.Error(ctx, "failed to load scenario", logging.String("path", *configPath), logging.Err(err))
		os.Exit(1)
	}

	if *tlePath != "" {
		if err := importTLE(ctx, sc, *tlePath, log); err != nil {
			log.Error(ctx, "failed to import TLE file", logging.String("path", *tlePath), logging.Err(err))
			os.Exit(1)
		}
	}

	if *steps > 0 {
		sc.Horizon.Steps = *steps
	}
	if *stepSeconds > 0 {
		sc.Horizon.StepSeconds = *stepSeconds
	}
	if *primary != "" {
		sc.Remote.PrimaryID = *primary
	}
	if *showAll {
		sc.Remote.ShowAll = true
	}

	eng := core.NewEngine(core.Earth)
	if !*quiet {
		eng.AddProgressListener(func(p model.Progress) {
			log.Info(ctx, "run progress",
				logging.Int("done", p.Done),
				logging.Int("total", p.Total),
				logging.Float64("percent", math.Round(p.Fraction*1000)/10),
			)
		})
	}

	res, err := eng.Run(ctx, *sc)
	if err != nil {
		log.Error(ctx, "run failed", logging.Err(err))
		os.Exit(1)
	}

	printSummary(res)

	if *jsonOut != "" {
		if err := writeResult(*jsonOut, res, sc.Remote.ShowAll); err != nil {
			log.Error(ctx, "failed to write result", logging.String("path", *jsonOut), logging.Err(err))
			os.Exit(1)
		}
		fmt.Printf("\nResult written to %s\n", *jsonOut)
	}
}

// defaultScenario is the out-of-the-box run: a sun-synchronous beacon
// at 600 km talking to an Iridium-like remote at 781 km.
func defaultScenario() model.Scenario {
	return model.Scenario{
		Name: "leo-demo",
		Beacon: model.BeaconConfig{
			Mode:                model.BeaconSunSynchronous,
			AltitudeKm:          600,
			AntennaHalfAngleDeg: 60,
		},
		Remote: model.RemoteConfig{
			AltitudeKm:          781,
			InclinationDeg:      86.4,
			AntennaHalfAngleDeg: 62,
		},
	}
}

// loadScenario reads the scenario through viper so json, toml, and yaml
// all work, then funnels the settings through the canonical JSON loader
// for validation. Without a path the built-in demo scenario applies.
func loadScenario(path string) (*model.Scenario, error) {
	if path == "" {
		sc := defaultScenario()
		if err := core.ValidateScenario(core.Earth, sc); err != nil {
			return nil, err
		}
		return &sc, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Round-trip through JSON so the strict scenario decoder stays the
	// single source of field validation.
	raw, err := json.Marshal(v.AllSettings())
	if err != nil {
		return nil, fmt.Errorf("encode settings: %w", err)
	}
	return core.LoadScenario(core.Earth, bytes.NewReader(raw))
}

// importTLE replaces the scenario's remote members with the satellites
// from the given TLE file.
func importTLE(ctx context.Context, sc *model.Scenario, path string, log logging.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	cat := catalog.New()
	report, err := cat.IngestTLE(ctx, core.Earth, f, log)
	if err != nil {
		return err
	}
	members := cat.Members()
	if len(members) == 0 {
		return fmt.Errorf("no usable element sets in %s (%d skipped)", path, report.Skipped)
	}

	log.Info(ctx, "imported TLE members",
		logging.Int("added", report.Added),
		logging.Int("skipped", report.Skipped),
	)
	sc.Remote.Members = members
	sc.Remote.Layout = nil
	return nil
}

func printSummary(res *model.RunResult) {
	name := res.Scenario
	if name == "" {
		name = "(unnamed)"
	}
	fmt.Printf("Scenario %s: %d steps x %.0fs (%s)\n",
		name, res.Horizon.Steps, res.Horizon.StepSeconds, res.Horizon.Duration())

	b := res.Beacon
	fmt.Printf("Beacon: alt %.1f km, inc %.2f deg, RAAN %.2f deg, period %.1f min\n",
		b.Elements.AltitudeKm, deg(b.Elements.InclinationRad), deg(b.Elements.RAANRad),
		b.PeriodSeconds/60)
	fmt.Printf("        start sub-point lat %+.2f lon %+.2f\n",
		b.Initial.SubPoint.LatDeg, b.Initial.SubPoint.LonDeg)

	fmt.Printf("Members (%d, primary first):\n", len(res.Members))
	for _, m := range res.Members {
		marker := " "
		if res.Primary != nil && m.ID == res.Primary.ID {
			marker = "*"
		}
		contactPct := 0.0
		if res.Horizon.Steps > 0 {
			contactPct = 100 * float64(m.Stats.TotalContactSteps) / float64(res.Horizon.Steps)
		}
		fmt.Printf("%s %-16s contact %5d/%d (%5.1f%%)  handshakes %3d  outages %3d  avg %6.1f steps  period %.1f min\n",
			marker, m.ID,
			m.Stats.TotalContactSteps, res.Horizon.Steps, contactPct,
			m.Stats.HandshakeCount, m.Stats.OutageCount, m.Stats.AvgOutageSteps,
			m.PeriodSeconds/60)
	}

	if res.Primary != nil {
		fmt.Printf("Primary start sub-point: lat %+.2f lon %+.2f\n",
			res.Primary.Initial.SubPoint.LatDeg, res.Primary.Initial.SubPoint.LonDeg)
	}
}

func writeResult(path string, res *model.RunResult, showAll bool) error {
	out := res
	if !showAll {
		out = res.TrimTimelines()
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func deg(rad float64) float64 {
	return rad * 180 / math.Pi
}

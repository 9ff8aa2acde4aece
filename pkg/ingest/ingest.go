// Package ingest reads conductor parameters, route vertices, station
// observations and current schedules from CSV/JSON files, satisfying the
// input contracts the core package treats as an external collaborator.
// It is a boundary package: it never imports anything the core needs,
// and the core never imports it.
package ingest

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/brpaterson/linethermal"
)

// ReadConductorParameters loads a ConductorParameters from a JSON file
// with fields diameter_m, r_ac_25, r_ac_75, emissivity, absorptivity and
// max_temp_c.
func ReadConductorParameters(path string) (linethermal.ConductorParameters, error) {
	f, err := os.Open(path)
	if err != nil {
		return linethermal.ConductorParameters{}, fmt.Errorf("ingest: opening conductor file: %w", err)
	}
	defer f.Close()

	var raw struct {
		DiameterM    float64 `json:"diameter_m"`
		RAC25        float64 `json:"r_ac_25"`
		RAC75        float64 `json:"r_ac_75"`
		Emissivity   float64 `json:"emissivity"`
		Absorptivity float64 `json:"absorptivity"`
		MaxTempC     float64 `json:"max_temp_c"`
	}
	if err := json.NewDecoder(f).Decode(&raw); err != nil {
		return linethermal.ConductorParameters{}, fmt.Errorf("ingest: decoding conductor file: %w", err)
	}

	c := linethermal.ConductorParameters{
		DiameterM:    raw.DiameterM,
		RAC25:        raw.RAC25,
		RAC75:        raw.RAC75,
		Emissivity:   raw.Emissivity,
		Absorptivity: raw.Absorptivity,
		MaxTempC:     raw.MaxTempC,
	}
	if err := c.Validate(); err != nil {
		return linethermal.ConductorParameters{}, fmt.Errorf("ingest: %w", err)
	}
	return c, nil
}

// ReadRouteVertices loads route control points from a CSV file with
// header columns progressive_m,azimuth_deg,lat,lon.
func ReadRouteVertices(path string) ([]linethermal.RouteVertex, error) {
	rows, err := readCSVRows(path)
	if err != nil {
		return nil, fmt.Errorf("ingest: route file: %w", err)
	}

	col, err := columnIndex(rows[0], "progressive_m", "azimuth_deg", "lat", "lon")
	if err != nil {
		return nil, fmt.Errorf("ingest: route file: %w", err)
	}

	vertices := make([]linethermal.RouteVertex, 0, len(rows)-1)
	for i, row := range rows[1:] {
		progressive, err := strconv.ParseFloat(row[col["progressive_m"]], 64)
		if err != nil {
			return nil, fmt.Errorf("ingest: route file row %d: progressive_m: %w", i+2, err)
		}
		azimuth, err := strconv.ParseFloat(row[col["azimuth_deg"]], 64)
		if err != nil {
			return nil, fmt.Errorf("ingest: route file row %d: azimuth_deg: %w", i+2, err)
		}
		lat, err := strconv.ParseFloat(row[col["lat"]], 64)
		if err != nil {
			return nil, fmt.Errorf("ingest: route file row %d: lat: %w", i+2, err)
		}
		lon, err := strconv.ParseFloat(row[col["lon"]], 64)
		if err != nil {
			return nil, fmt.Errorf("ingest: route file row %d: lon: %w", i+2, err)
		}
		vertices = append(vertices, linethermal.RouteVertex{
			ProgressiveM: progressive,
			AzimuthDeg:   azimuth,
			LatDeg:       lat,
			LonDeg:       lon,
		})
	}
	return vertices, nil
}

// ReadStationSet loads a directory of per-station hourly CSVs, per a
// manifest file with header columns id,lat,lon,file (file is a path
// relative to the manifest's own directory). Each station's geographic
// coordinates are projected with proj into the frame kriging expects.
func ReadStationSet(manifestPath string, proj linethermal.Projector) ([]linethermal.Station, error) {
	rows, err := readCSVRows(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("ingest: station manifest: %w", err)
	}

	col, err := columnIndex(rows[0], "id", "lat", "lon", "file")
	if err != nil {
		return nil, fmt.Errorf("ingest: station manifest: %w", err)
	}

	dir := filepath.Dir(manifestPath)
	stations := make([]linethermal.Station, 0, len(rows)-1)
	for i, row := range rows[1:] {
		id := row[col["id"]]
		lat, err := strconv.ParseFloat(row[col["lat"]], 64)
		if err != nil {
			return nil, fmt.Errorf("ingest: station manifest row %d: lat: %w", i+2, err)
		}
		lon, err := strconv.ParseFloat(row[col["lon"]], 64)
		if err != nil {
			return nil, fmt.Errorf("ingest: station manifest row %d: lon: %w", i+2, err)
		}
		x, y := proj.Project(lat, lon)

		station, err := readStationObservations(id, lat, lon, x, y, filepath.Join(dir, row[col["file"]]))
		if err != nil {
			return nil, fmt.Errorf("ingest: station manifest row %d: %w", i+2, err)
		}
		stations = append(stations, station)
	}
	return stations, nil
}

// readStationObservations loads a station's hourly observation series
// from a CSV file with header columns timestamp,ta_c,qs_wm2,u,v.
func readStationObservations(id string, lat, lon, x, y float64, path string) (linethermal.Station, error) {
	rows, err := readCSVRows(path)
	if err != nil {
		return linethermal.Station{}, fmt.Errorf("ingest: station file: %w", err)
	}

	col, err := columnIndex(rows[0], "timestamp", "ta_c", "qs_wm2", "u", "v")
	if err != nil {
		return linethermal.Station{}, fmt.Errorf("ingest: station file: %w", err)
	}

	obs := make(map[time.Time]linethermal.HourlyObservation, len(rows)-1)
	for i, row := range rows[1:] {
		ts, err := time.Parse(time.RFC3339, row[col["timestamp"]])
		if err != nil {
			return linethermal.Station{}, fmt.Errorf("ingest: station file row %d: timestamp: %w", i+2, err)
		}
		ta, err := strconv.ParseFloat(row[col["ta_c"]], 64)
		if err != nil {
			return linethermal.Station{}, fmt.Errorf("ingest: station file row %d: ta_c: %w", i+2, err)
		}
		qs, err := strconv.ParseFloat(row[col["qs_wm2"]], 64)
		if err != nil {
			return linethermal.Station{}, fmt.Errorf("ingest: station file row %d: qs_wm2: %w", i+2, err)
		}
		u, err := strconv.ParseFloat(row[col["u"]], 64)
		if err != nil {
			return linethermal.Station{}, fmt.Errorf("ingest: station file row %d: u: %w", i+2, err)
		}
		v, err := strconv.ParseFloat(row[col["v"]], 64)
		if err != nil {
			return linethermal.Station{}, fmt.Errorf("ingest: station file row %d: v: %w", i+2, err)
		}
		obs[ts] = linethermal.HourlyObservation{Timestamp: ts, TaC: ta, QsWm2: qs, U: u, V: v}
	}

	return linethermal.Station{
		ID:           id,
		Lat:          lat,
		Lon:          lon,
		X:            x,
		Y:            y,
		Observations: obs,
	}, nil
}

// ReadCurrentSchedule loads an hourly current schedule from a CSV file
// with header columns timestamp,current_a. A file with a single row
// whose timestamp field is empty is interpreted as a constant-current
// schedule.
func ReadCurrentSchedule(path string) (linethermal.CurrentSchedule, error) {
	rows, err := readCSVRows(path)
	if err != nil {
		return nil, fmt.Errorf("ingest: current schedule file: %w", err)
	}

	col, err := columnIndex(rows[0], "timestamp", "current_a")
	if err != nil {
		return nil, fmt.Errorf("ingest: current schedule file: %w", err)
	}

	schedule := make(linethermal.CurrentSchedule, len(rows)-1)
	for i, row := range rows[1:] {
		amps, err := strconv.ParseFloat(row[col["current_a"]], 64)
		if err != nil {
			return nil, fmt.Errorf("ingest: current schedule row %d: current_a: %w", i+2, err)
		}
		if row[col["timestamp"]] == "" {
			return linethermal.ConstantCurrent(amps), nil
		}
		ts, err := time.Parse(time.RFC3339, row[col["timestamp"]])
		if err != nil {
			return nil, fmt.Errorf("ingest: current schedule row %d: timestamp: %w", i+2, err)
		}
		schedule[ts] = amps
	}
	return schedule, nil
}

// WriteResults serializes a result table to w as the canonical
// downstream-reporting CSV: timestamp, point_id, progressive_m,
// T_c_mean, T_c_p90, T_c_p95, risk, risk_class, T_a_mean, Q_s_mean,
// W_s_mean, delta_mean, current, iterations_used.
func WriteResults(w io.Writer, results []linethermal.HourlyResult) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	header := []string{
		"timestamp", "point_id", "progressive_m",
		"T_c_mean", "T_c_p90", "T_c_p95", "risk", "risk_class",
		"T_a_mean", "Q_s_mean", "W_s_mean", "delta_mean",
		"current", "iterations_used",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("ingest: writing header: %w", err)
	}

	for _, r := range results {
		record := []string{
			r.Timestamp.Format(time.RFC3339),
			strconv.Itoa(r.PointID),
			strconv.FormatFloat(r.ProgressiveM, 'f', 3, 64),
			strconv.FormatFloat(r.TcMeanC, 'f', 4, 64),
			strconv.FormatFloat(r.TcP90C, 'f', 4, 64),
			strconv.FormatFloat(r.TcP95C, 'f', 4, 64),
			strconv.FormatFloat(r.Risk, 'f', 6, 64),
			string(r.RiskClass),
			strconv.FormatFloat(r.TaMeanC, 'f', 4, 64),
			strconv.FormatFloat(r.QsMeanWm2, 'f', 2, 64),
			strconv.FormatFloat(r.WsMeanMS, 'f', 3, 64),
			strconv.FormatFloat(r.AttackAngleMeanDeg, 'f', 3, 64),
			strconv.FormatFloat(r.CurrentA, 'f', 2, 64),
			strconv.Itoa(r.IterationsUsed),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("ingest: writing row: %w", err)
		}
	}
	return nil
}

func readCSVRows(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	if len(rows) < 1 {
		return nil, fmt.Errorf("empty file")
	}
	return rows, nil
}

func columnIndex(header []string, names ...string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[name] = i
	}
	for _, name := range names {
		if _, ok := idx[name]; !ok {
			return nil, fmt.Errorf("missing required column %q", name)
		}
	}
	return idx, nil
}

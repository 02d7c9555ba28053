// Package dataset reads the four raw public-health feeds, validates their
// schemas, and joins the aligned weekly series into the merged feature table
// consumed by the stationarity and model evaluation stages.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aouyang1/go-denguecast/timeseries"
	"github.com/sirupsen/logrus"
)

var (
	ErrSchema        = errors.New("raw input is missing an expected column")
	ErrDuplicateKey  = errors.New("duplicate key with conflicting values")
	ErrBadValue      = errors.New("unparseable value")
	ErrNoDiseaseRows = errors.New("no rows matched the requested disease")
)

// WeatherColumns are the six numeric daily weather variables, in the order
// they appear in the merged table.
var WeatherColumns = []string{"tempmax", "tempmin", "temp", "humidity", "precip", "precipcover"}

// header maps lower-cased column names to their positions.
type header map[string]int

func readHeader(r *csv.Reader, file string, want []string) (header, error) {
	row, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading %s header, %w", file, err)
	}
	h := make(header, len(row))
	for i, name := range row {
		h[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range want {
		if _, ok := h[name]; !ok {
			return nil, fmt.Errorf("%s has no column %q, %w", file, name, ErrSchema)
		}
	}
	return h, nil
}

// rowSet tracks exact duplicate rows. Repeated rows are legitimate in the
// trends and population feeds (the same integer recurs), so they are counted
// and collapsed rather than rejected. Conflicting values under one key are a
// schema defect with no deterministic resolution.
type rowSet struct {
	seen map[time.Time]float64
	dups int
}

func newRowSet() *rowSet {
	return &rowSet{seen: make(map[time.Time]float64)}
}

// add reports whether the row is new. An exact repeat is absorbed; a
// conflicting repeat is an error.
func (s *rowSet) add(key time.Time, val float64) (bool, error) {
	prev, ok := s.seen[key]
	if !ok {
		s.seen[key] = val
		return true, nil
	}
	if prev != val {
		return false, fmt.Errorf("key %s has values %v and %v, %w", key.Format(time.DateOnly), prev, val, ErrDuplicateKey)
	}
	s.dups++
	return false, nil
}

func (s *rowSet) logDuplicates(log logrus.FieldLogger, source string) {
	if s.dups > 0 {
		log.WithFields(logrus.Fields{"source": source, "duplicates": s.dups}).
			Info("exact duplicate rows collapsed")
	}
}

func parseFloat(file string, line int, raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("%s line %d value %q, %w", file, line, raw, ErrBadValue)
	}
	return v, nil
}

// epiWeekEnding converts a bulletin epi-week key like "2014-W23" to its
// week-ending date. Epidemiological weeks are Sunday-ending: week N of a year
// ends on the N-th Sunday of that year.
func epiWeekEnding(key string) (time.Time, error) {
	var year, week int
	if _, err := fmt.Sscanf(strings.TrimSpace(key), "%d-W%d", &year, &week); err != nil {
		return time.Time{}, fmt.Errorf("epi_week %q, %w", key, ErrBadValue)
	}
	if week < 1 || week > 53 {
		return time.Time{}, fmt.Errorf("epi_week %q out of range, %w", key, ErrBadValue)
	}
	firstSunday := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	for firstSunday.Weekday() != time.Sunday {
		firstSunday = firstSunday.AddDate(0, 0, 1)
	}
	return firstSunday.AddDate(0, 0, 7*(week-1)), nil
}

// LoadCases reads the weekly infectious disease bulletin and filters it to
// the requested disease. Matching falls back to a case-insensitive substring
// match when no row carries the exact name, since bulletin vintages disagree
// on capitalization.
func LoadCases(r io.Reader, disease string, log logrus.FieldLogger) (*timeseries.Observations, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	h, err := readHeader(cr, "cases bulletin", []string{"epi_week", "disease", "no._of_cases"})
	if err != nil {
		return nil, err
	}

	type row struct {
		disease string
		week    time.Time
		cases   float64
	}
	var rows []row
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading cases bulletin line %d, %w", line+1, err)
		}
		line++
		wk, err := epiWeekEnding(rec[h["epi_week"]])
		if err != nil {
			return nil, err
		}
		cases, err := parseFloat("cases bulletin", line, rec[h["no._of_cases"]])
		if err != nil {
			return nil, err
		}
		rows = append(rows, row{disease: strings.TrimSpace(rec[h["disease"]]), week: wk, cases: cases})
	}

	match := func(name string) bool { return name == disease }
	exact := false
	for _, rw := range rows {
		if rw.disease == disease {
			exact = true
			break
		}
	}
	if !exact {
		needle := strings.ToLower(disease)
		match = func(name string) bool { return strings.Contains(strings.ToLower(name), needle) }
	}

	set := newRowSet()
	var t []time.Time
	var y []float64
	for _, rw := range rows {
		if !match(rw.disease) {
			continue
		}
		fresh, err := set.add(rw.week, rw.cases)
		if err != nil {
			return nil, fmt.Errorf("cases bulletin, %w", err)
		}
		if !fresh {
			continue
		}
		t = append(t, rw.week)
		y = append(y, rw.cases)
	}
	if len(t) == 0 {
		return nil, fmt.Errorf("disease %q, %w", disease, ErrNoDiseaseRows)
	}
	set.logDuplicates(log, "cases")

	sortByTime(t, y)
	return timeseries.NewObservations("dengue_cases", t, y)
}

// LoadWeather reads the daily weather feed and returns one observation
// series per weather variable.
func LoadWeather(r io.Reader, log logrus.FieldLogger) ([]*timeseries.Observations, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	want := append([]string{"datetime"}, WeatherColumns...)
	h, err := readHeader(cr, "weather", want)
	if err != nil {
		return nil, err
	}

	var t []time.Time
	cols := make([][]float64, len(WeatherColumns))
	sets := make([]*rowSet, len(WeatherColumns))
	for i := range sets {
		sets[i] = newRowSet()
	}

	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading weather line %d, %w", line+1, err)
		}
		line++
		day, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(rec[h["datetime"]]), time.UTC)
		if err != nil {
			return nil, fmt.Errorf("weather line %d datetime %q, %w", line, rec[h["datetime"]], ErrBadValue)
		}
		for i, name := range WeatherColumns {
			v, err := parseFloat("weather", line, rec[h[name]])
			if err != nil {
				return nil, err
			}
			fresh, err := sets[i].add(day, v)
			if err != nil {
				return nil, fmt.Errorf("weather %s, %w", name, err)
			}
			if i == 0 && fresh {
				t = append(t, day)
			}
			if fresh {
				cols[i] = append(cols[i], v)
			}
		}
	}
	sets[0].logDuplicates(log, "weather")

	out := make([]*timeseries.Observations, 0, len(WeatherColumns))
	for i, name := range WeatherColumns {
		obs, err := timeseries.NewObservations(name, t, cols[i])
		if err != nil {
			return nil, err
		}
		out = append(out, obs)
	}
	return out, nil
}

// LoadTrends reads the monthly search index feed. Keys are YYYY-MM; values
// are the 0-100 interest index, dated the first of the month.
func LoadTrends(r io.Reader, log logrus.FieldLogger) (*timeseries.Observations, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	h, err := readHeader(cr, "trends", []string{"month", "number_of_searches"})
	if err != nil {
		return nil, err
	}

	set := newRowSet()
	var t []time.Time
	var y []float64
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading trends line %d, %w", line+1, err)
		}
		line++
		month, err := time.ParseInLocation("2006-01", strings.TrimSpace(rec[h["month"]]), time.UTC)
		if err != nil {
			return nil, fmt.Errorf("trends line %d month %q, %w", line, rec[h["month"]], ErrBadValue)
		}
		v, err := parseFloat("trends", line, rec[h["number_of_searches"]])
		if err != nil {
			return nil, err
		}
		fresh, err := set.add(month, v)
		if err != nil {
			return nil, fmt.Errorf("trends, %w", err)
		}
		if !fresh {
			continue
		}
		t = append(t, month)
		y = append(y, v)
	}
	set.logDuplicates(log, "trends")

	sortByTime(t, y)
	return timeseries.NewObservations("number_of_searches", t, y)
}

// LoadPopulation reads the yearly population feed. Totals are dated the last
// day of their year so the backward fill lands within the year.
func LoadPopulation(r io.Reader, log logrus.FieldLogger) (*timeseries.Observations, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	h, err := readHeader(cr, "population", []string{"year", "total_population"})
	if err != nil {
		return nil, err
	}

	set := newRowSet()
	var t []time.Time
	var y []float64
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading population line %d, %w", line+1, err)
		}
		line++
		year, err := strconv.Atoi(strings.TrimSpace(rec[h["year"]]))
		if err != nil {
			return nil, fmt.Errorf("population line %d year %q, %w", line, rec[h["year"]], ErrBadValue)
		}
		v, err := parseFloat("population", line, rec[h["total_population"]])
		if err != nil {
			return nil, err
		}
		yearEnd := time.Date(year, 12, 31, 0, 0, 0, 0, time.UTC)
		fresh, err := set.add(yearEnd, v)
		if err != nil {
			return nil, fmt.Errorf("population, %w", err)
		}
		if !fresh {
			continue
		}
		t = append(t, yearEnd)
		y = append(y, v)
	}
	set.logDuplicates(log, "population")

	sortByTime(t, y)
	return timeseries.NewObservations("total_population", t, y)
}

// LoadCasesFile and friends are path conveniences over the io.Reader loaders.
func LoadCasesFile(path, disease string, log logrus.FieldLogger) (*timeseries.Observations, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening cases bulletin, %w", err)
	}
	defer f.Close()
	return LoadCases(f, disease, log)
}

func LoadWeatherFile(path string, log logrus.FieldLogger) ([]*timeseries.Observations, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening weather, %w", err)
	}
	defer f.Close()
	return LoadWeather(f, log)
}

func LoadTrendsFile(path string, log logrus.FieldLogger) (*timeseries.Observations, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening trends, %w", err)
	}
	defer f.Close()
	return LoadTrends(f, log)
}

func LoadPopulationFile(path string, log logrus.FieldLogger) (*timeseries.Observations, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening population, %w", err)
	}
	defer f.Close()
	return LoadPopulation(f, log)
}

func sortByTime(t []time.Time, y []float64) {
	// bulletin vintages are already ordered; insertion sort keeps the rare
	// out-of-order export cheap to fix
	for i := 1; i < len(t); i++ {
		for j := i; j > 0 && t[j].Before(t[j-1]); j-- {
			t[j], t[j-1] = t[j-1], t[j]
			y[j], y[j-1] = y[j-1], y[j]
		}
	}
}

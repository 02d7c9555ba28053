package dataset

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestEpiWeekEnding(t *testing.T) {
	testData := map[string]struct {
		key      string
		expected time.Time
		err      error
	}{
		"first week of 2012": {
			key:      "2012-W01",
			expected: time.Date(2012, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		"last week of 2022": {
			key:      "2022-W52",
			expected: time.Date(2022, 12, 25, 0, 0, 0, 0, time.UTC),
		},
		"mid year": {
			key:      "2014-W23",
			expected: time.Date(2014, 6, 8, 0, 0, 0, 0, time.UTC),
		},
		"malformed": {
			key: "2014/23",
			err: ErrBadValue,
		},
		"week out of range": {
			key: "2014-W54",
			err: ErrBadValue,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			got, err := epiWeekEnding(td.key)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, td.expected, got)
			assert.Equal(t, time.Sunday, got.Weekday())
		})
	}
}

func TestLoadCases(t *testing.T) {
	raw := strings.Join([]string{
		"epi_week,disease,no._of_cases",
		"2012-W01,Dengue Fever,70",
		"2012-W01,Campylobacteriosis,3",
		"2012-W02,Dengue Fever,64",
		"2012-W02,Dengue Fever,64",
		"2012-W03,Dengue Fever,81",
	}, "\n")

	obs, err := LoadCases(strings.NewReader(raw), "Dengue Fever", testLogger())
	require.NoError(t, err)
	assert.Equal(t, "dengue_cases", obs.Name)
	assert.Equal(t, []float64{70, 64, 81}, obs.Value)
	assert.Equal(t, time.Date(2012, 1, 1, 0, 0, 0, 0, time.UTC), obs.T[0])
}

func TestLoadCasesFallbackMatch(t *testing.T) {
	raw := strings.Join([]string{
		"epi_week,disease,no._of_cases",
		"2012-W01,DENGUE FEVER,70",
		"2012-W02,DENGUE FEVER,64",
	}, "\n")

	obs, err := LoadCases(strings.NewReader(raw), "Dengue Fever", testLogger())
	require.NoError(t, err)
	assert.Equal(t, []float64{70, 64}, obs.Value)
}

func TestLoadCasesConflictingDuplicate(t *testing.T) {
	raw := strings.Join([]string{
		"epi_week,disease,no._of_cases",
		"2012-W01,Dengue Fever,70",
		"2012-W01,Dengue Fever,71",
	}, "\n")

	_, err := LoadCases(strings.NewReader(raw), "Dengue Fever", testLogger())
	assert.ErrorIs(t, err, ErrDuplicateKey)
}

func TestLoadCasesMissingColumn(t *testing.T) {
	raw := "epi_week,disease\n2012-W01,Dengue Fever\n"
	_, err := LoadCases(strings.NewReader(raw), "Dengue Fever", testLogger())
	assert.ErrorIs(t, err, ErrSchema)
}

func TestLoadCasesNoMatch(t *testing.T) {
	raw := "epi_week,disease,no._of_cases\n2012-W01,Measles,2\n"
	_, err := LoadCases(strings.NewReader(raw), "Dengue Fever", testLogger())
	assert.ErrorIs(t, err, ErrNoDiseaseRows)
}

func TestLoadWeather(t *testing.T) {
	raw := strings.Join([]string{
		"datetime,tempmax,tempmin,temp,humidity,precip,precipcover",
		"2012-01-01,30.1,24.2,27.0,84.5,0.0,0.0",
		"2012-01-02,31.0,25.0,28.2,80.1,12.4,29.2",
	}, "\n")

	series, err := LoadWeather(strings.NewReader(raw), testLogger())
	require.NoError(t, err)
	require.Len(t, series, len(WeatherColumns))
	assert.Equal(t, "tempmax", series[0].Name)
	assert.Equal(t, []float64{30.1, 31.0}, series[0].Value)
	assert.Equal(t, "precipcover", series[5].Name)
	assert.Equal(t, []float64{0.0, 29.2}, series[5].Value)
}

func TestLoadWeatherMissingColumn(t *testing.T) {
	raw := "datetime,tempmax,tempmin,temp,humidity,precip\n2012-01-01,30,24,27,84,0\n"
	_, err := LoadWeather(strings.NewReader(raw), testLogger())
	assert.ErrorIs(t, err, ErrSchema)
}

func TestLoadTrends(t *testing.T) {
	raw := strings.Join([]string{
		"month,number_of_searches",
		"2012-01,9",
		"2012-02,9",
		"2012-03,12",
	}, "\n")

	obs, err := LoadTrends(strings.NewReader(raw), testLogger())
	require.NoError(t, err)
	assert.Equal(t, "number_of_searches", obs.Name)
	// repeated integers across months are legitimate, not duplicates
	assert.Equal(t, []float64{9, 9, 12}, obs.Value)
	assert.Equal(t, time.Date(2012, 2, 1, 0, 0, 0, 0, time.UTC), obs.T[1])
}

func TestLoadPopulation(t *testing.T) {
	raw := strings.Join([]string{
		"year,total_population",
		"2019,5703600",
		"2020,5685800",
		"2021,5453600",
	}, "\n")

	obs, err := LoadPopulation(strings.NewReader(raw), testLogger())
	require.NoError(t, err)
	assert.Equal(t, "total_population", obs.Name)
	// dated at year end so backward fill lands within the year
	assert.Equal(t, time.Date(2019, 12, 31, 0, 0, 0, 0, time.UTC), obs.T[0])
	assert.Equal(t, []float64{5703600, 5685800, 5453600}, obs.Value)
}

func TestLoadPopulationBadYear(t *testing.T) {
	raw := "year,total_population\ntwenty,5703600\n"
	_, err := LoadPopulation(strings.NewReader(raw), testLogger())
	assert.ErrorIs(t, err, ErrBadValue)
}

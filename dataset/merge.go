package dataset

import (
	"errors"
	"fmt"
	"time"

	"github.com/aouyang1/go-denguecast/timeseries"
)

var (
	ErrAlignment   = errors.New("series is not aligned with the target grid")
	ErrNoSeries    = errors.New("no series to merge")
	ErrDupColumn   = errors.New("column name already present")
	ErrUnknownCol  = errors.New("unknown column")
	ErrNoTargetCol = errors.New("target column not present")
)

// MergedDataset is the weekly feature table keyed by week-ending date. One
// row per week, one column per variable, no gaps, no nulls. Produced once by
// Merge and read-only afterward.
type MergedDataset struct {
	T       []time.Time
	Columns []string
	data    map[string][]float64
}

// Merge joins weekly series on exact date-key equality. The first series is
// the target; every other series must sit on the identical grid. Row count
// divergence means an aligner bug upstream and is fatal, never padded over.
func Merge(series ...*timeseries.TimeSeries) (*MergedDataset, error) {
	if len(series) == 0 {
		return nil, ErrNoSeries
	}

	target := series[0]
	md := &MergedDataset{
		T:    append([]time.Time(nil), target.T...),
		data: make(map[string][]float64, len(series)),
	}
	for _, s := range series {
		if s.Len() != target.Len() {
			return nil, fmt.Errorf("series %q has %d rows but target %q has %d, %w",
				s.Name, s.Len(), target.Name, target.Len(), ErrAlignment)
		}
		for i := range s.T {
			if !s.T[i].Equal(target.T[i]) {
				return nil, fmt.Errorf("series %q row %d is %s but target has %s, %w",
					s.Name, i, s.T[i].Format(time.DateOnly), target.T[i].Format(time.DateOnly), ErrAlignment)
			}
		}
		if _, ok := md.data[s.Name]; ok {
			return nil, fmt.Errorf("column %q, %w", s.Name, ErrDupColumn)
		}
		md.Columns = append(md.Columns, s.Name)
		md.data[s.Name] = append([]float64(nil), s.Value...)
	}
	return md, nil
}

// Len returns the number of weekly rows.
func (md *MergedDataset) Len() int {
	return len(md.T)
}

// Column returns a copy of the named column.
func (md *MergedDataset) Column(name string) ([]float64, error) {
	col, ok := md.data[name]
	if !ok {
		return nil, fmt.Errorf("column %q, %w", name, ErrUnknownCol)
	}
	return append([]float64(nil), col...), nil
}

// Target returns the named target column as a weekly TimeSeries.
func (md *MergedDataset) Target(name string) (*timeseries.TimeSeries, error) {
	col, ok := md.data[name]
	if !ok {
		return nil, fmt.Errorf("column %q, %w", name, ErrNoTargetCol)
	}
	return timeseries.New(name, md.T, col)
}

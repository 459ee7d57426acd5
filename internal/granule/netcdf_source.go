package granule

import (
	"fmt"

	"github.com/batchatco/go-native-netcdf/netcdf"
)

// fileDataset adapts a go-native-netcdf Group to the narrow Dataset
// interface the reader depends on.
type fileDataset struct {
	group netcdf.Group
}

func openFile(path string) (Dataset, error) {
	group, err := netcdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("granule: open netcdf %s: %w", path, err)
	}
	return &fileDataset{group: group}, nil
}

func (d *fileDataset) Close() error {
	d.group.Close()
	return nil
}

func (d *fileDataset) variable(names ...string) (*netcdf.Variable, bool) {
	for _, name := range names {
		v, err := d.group.GetVariable(name)
		if err == nil && v != nil {
			return v, true
		}
	}
	return nil, false
}

func (d *fileDataset) Float64Variable(names ...string) ([]float64, bool) {
	v, ok := d.variable(names...)
	if !ok {
		return nil, false
	}
	out := toFloat64Slice(v.Values)
	return out, out != nil
}

func (d *fileDataset) IntVariable(names ...string) ([]int64, bool) {
	v, ok := d.variable(names...)
	if !ok {
		return nil, false
	}
	out := toInt64Slice(v.Values)
	return out, out != nil
}

func (d *fileDataset) VariableUnits(names ...string) (string, bool) {
	v, ok := d.variable(names...)
	if !ok || v.Attributes == nil {
		return "", false
	}
	raw, ok := v.Attributes.Get("units")
	if !ok {
		return "", false
	}
	s, ok := raw.(string)
	return s, ok
}

func (d *fileDataset) GlobalAttr(name string) (string, bool) {
	attrs := d.group.Attributes()
	if attrs == nil {
		return "", false
	}
	raw, ok := attrs.Get(name)
	if !ok {
		return "", false
	}
	s, ok := raw.(string)
	return s, ok
}

func toFloat64Slice(values interface{}) []float64 {
	switch v := values.(type) {
	case []float64:
		return v
	case []float32:
		out := make([]float64, len(v))
		for i, x := range v {
			out[i] = float64(x)
		}
		return out
	case []int64:
		out := make([]float64, len(v))
		for i, x := range v {
			out[i] = float64(x)
		}
		return out
	case []int32:
		out := make([]float64, len(v))
		for i, x := range v {
			out[i] = float64(x)
		}
		return out
	default:
		return nil
	}
}

func toInt64Slice(values interface{}) []int64 {
	switch v := values.(type) {
	case []int64:
		return v
	case []int32:
		out := make([]int64, len(v))
		for i, x := range v {
			out[i] = int64(x)
		}
		return out
	case []int8:
		out := make([]int64, len(v))
		for i, x := range v {
			out[i] = int64(x)
		}
		return out
	case []uint8:
		out := make([]int64, len(v))
		for i, x := range v {
			out[i] = int64(x)
		}
		return out
	case []float64:
		out := make([]int64, len(v))
		for i, x := range v {
			out[i] = int64(x)
		}
		return out
	default:
		return nil
	}
}

package granule

// Dataset is the minimal NetCDF surface the reader needs. Kept as an
// interface, grounded on the aggregator's ABIProjector/ABIInverter pattern
// of accepting only the slice of a dependency a package actually uses, so
// extraction and time-decoding logic can be exercised against a fake in
// tests without opening a real NetCDF file.
type Dataset interface {
	// Float64Variable returns the first present variable among names,
	// coerced to float64, and whether any alias was found.
	Float64Variable(names ...string) ([]float64, bool)
	// IntVariable returns the first present variable among names, coerced
	// to int64, and whether any alias was found.
	IntVariable(names ...string) ([]int64, bool)
	// VariableUnits returns the "units" attribute of the first present
	// variable among names.
	VariableUnits(names ...string) (string, bool)
	// GlobalAttr returns a dataset-level (root group) attribute.
	GlobalAttr(name string) (string, bool)
	Close() error
}

// Package testutil provides the weather-domain facts and fixed token
// generators shared by tests across the module.
package testutil

// Temperature is a temperature reading at a location.
type Temperature struct {
	Value    int
	Location string
}

// WindSpeed is a wind-speed reading at a location.
type WindSpeed struct {
	Value    int
	Location string
}

// Cold is a derived fact asserted when a temperature reading is cold.
type Cold struct {
	Value int
}

// ColdAndWindy is a derived fact asserted when a location is both cold and
// windy.
type ColdAndWindy struct {
	Temperature int
	WindSpeed   int
}

package models

import (
	"fmt"
	"sort"
)

// SampleArea returns the i-th demonstration area
func SampleArea(i int) Area {
	return Area{
		Name: Ptr(fmt.Sprintf("Area%d", i)),
		Area: Ptr(float64(i)),
	}
}

// SampleZoneType returns a fully populated zone
func SampleZoneType() *ZoneType {
	z := &ZoneType{
		MaxValue:  Ptr(int32(20)),
		MinValue:  Ptr(int32(10)),
		Length:    Ptr(int64(1723214160000)),
		UUID:      Ptr("0000018d-070e-5705-a405-eede1217e657"),
		Zones:     []string{"Max", "Min", "Sem"},
		Accuracy:  Ptr(float32(16.219)),
		IsSafe:    Ptr(true),
		Latitude:  Ptr(37.7749),
		Longitude: Ptr(-122.4194),
		Altitude:  Ptr(int64(15)),
		Bearing:   Ptr(int16(120)),
	}
	for i := 0; i < 3; i++ {
		z.Areas = append(z.Areas, SampleArea(i))
		z.SleepBinnings = append(z.SleepBinnings, SleepBinning{HRRI: int32(i), HRSS: int32(i)})
	}
	return z
}

// SampleFood returns a fully populated food record
func SampleFood() *Food {
	return &Food{
		Type:   Ptr(int32(42)),
		Name:   Ptr("Alu vorta"),
		UUID:   Ptr("0000018d-f7a9-9575-a405-eede1217e657"),
		Amount: Ptr(2.5),
		List:   []float64{1.1, 2.2, 3.3},
		Zone:   SampleZoneType(),
	}
}

var samples = map[string]func() any{
	"Area":     func() any { a := SampleArea(0); return &a },
	"ZoneType": func() any { return SampleZoneType() },
	"Food":     func() any { return SampleFood() },
}

// Sample returns a populated record of the named type
func Sample(name string) (any, bool) {
	fn, ok := samples[name]
	if !ok {
		return nil, false
	}
	return fn(), true
}

// SampleNames lists the types Sample knows, sorted
func SampleNames() []string {
	names := make([]string, 0, len(samples))
	for name := range samples {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

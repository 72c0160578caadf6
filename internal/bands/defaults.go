package bands

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// builtin is the default band table. Order matters: band info reports the
// first band containing the cursor.
var builtin = []Band{
	// Broadcast
	{Name: "AM", Start: 535e3, End: 1.7e6, Category: "Broadcast", Mode: ModeAM, Spacing: 10e3, Description: "AM Broadcasting"},
	{Name: "SW", Start: 2.3e6, End: 26.1e6, Category: "Broadcast"},
	{Name: "FM", Start: 88e6, End: 108e6, Category: "Broadcast", Mode: ModeWFM, Spacing: 200e3, Description: "FM Broadcasting"},
	{Name: "DAB", Start: 174e6, End: 240e6, Category: "Broadcast", Mode: ModeDigital, Spacing: 1.536e6, Description: "Digital Audio Broadcasting"},

	// Aviation
	{Name: "AIR-L", Start: 108e6, End: 118e6, Category: "Aviation", Mode: ModeAM, Spacing: 50e3, Description: "Aircraft Navigation (VOR/ILS)"},
	{Name: "AIR-V", Start: 118e6, End: 137e6, Category: "Aviation", Mode: ModeAM, Spacing: 25e3, Description: "Aircraft Voice Communications"},
	{Name: "AIR-M", Start: 978e6, End: 1090e6, Category: "Aviation"},

	// Amateur radio
	{Name: "HAM160", Start: 1.8e6, End: 2.0e6, Category: "Amateur Radio"},
	{Name: "HAM80", Start: 3.5e6, End: 4.0e6, Category: "Amateur Radio"},
	{Name: "HAM40", Start: 7.0e6, End: 7.3e6, Category: "Amateur Radio"},
	{Name: "HAM20", Start: 14.0e6, End: 14.35e6, Category: "Amateur Radio"},
	{Name: "HAM2M", Start: 144e6, End: 148e6, Category: "Amateur Radio", Mode: ModeNFM, Spacing: 12.5e3, Description: "2-meter Amateur Radio Band"},
	{Name: "HAM70", Start: 420e6, End: 450e6, Category: "Amateur Radio"},

	// Public safety
	{Name: "NOA", Start: 162.4e6, End: 162.55e6, Category: "Public Safety", Mode: ModeNFM, Spacing: 25e3, Description: "NOAA Weather Radio"},
	{Name: "POLICE", Start: 450e6, End: 470e6, Category: "Public Safety", Mode: ModeNFM, Spacing: 12.5e3, Description: "Police and Emergency Services"},
	{Name: "EMG", Start: 851e6, End: 869e6, Category: "Public Safety"},

	// Television
	{Name: "VHF-TV", Start: 54e6, End: 88e6, Category: "Television"},
	{Name: "VHF-TV2", Start: 174e6, End: 216e6, Category: "Television"},
	{Name: "UHF-TV", Start: 470e6, End: 698e6, Category: "Television"},

	// Satellite
	{Name: "GPS-L1", Start: 1575.42e6, End: 1575.42e6, Category: "Satellite", Mode: ModeBPSK, Spacing: 2e6, Description: "GPS L1 Signal"},
	{Name: "GOES", Start: 1670e6, End: 1698e6, Category: "Satellite"},
	{Name: "NOAA-SAT", Start: 137e6, End: 138e6, Category: "Satellite"},
	{Name: "METEOR-SAT", Start: 137.9e6, End: 137.9e6, Category: "Satellite"},

	// Mobile and cellular
	{Name: "CELL-850", Start: 824e6, End: 894e6, Category: "Mobile & Cellular", Mode: ModeDigital, Spacing: 200e3, Description: "Cellular 850MHz Band"},
	{Name: "GSM900", Start: 890e6, End: 960e6, Category: "Mobile & Cellular"},
	{Name: "GSM1800", Start: 1710e6, End: 1880e6, Category: "Mobile & Cellular"},
	{Name: "DECT", Start: 1880e6, End: 1900e6, Category: "Mobile & Cellular"},

	// ISM and IoT
	{Name: "ISM-433", Start: 433.05e6, End: 434.79e6, Category: "ISM & IoT", Mode: ModeNFM, Spacing: 25e3, Description: "ISM Band 433MHz"},
	{Name: "ISM-868", Start: 868e6, End: 868.6e6, Category: "ISM & IoT"},
	{Name: "ISM-915", Start: 902e6, End: 928e6, Category: "ISM & IoT"},
	{Name: "ZIGBEE", Start: 2400e6, End: 2483.5e6, Category: "ISM & IoT"},

	// Marine
	{Name: "MAR-VHF", Start: 156e6, End: 174e6, Category: "Marine", Mode: ModeNFM, Spacing: 25e3, Description: "Marine VHF Communications"},
	{Name: "MAR-AIS", Start: 161.975e6, End: 162.025e6, Category: "Marine"},
	{Name: "MAR-DSC", Start: 156.525e6, End: 156.525e6, Category: "Marine"},

	// Digital radio
	{Name: "DSTAR", Start: 145.375e6, End: 145.375e6, Category: "Digital Radio"},
	{Name: "DMR", Start: 446e6, End: 446.2e6, Category: "Digital Radio"},
	{Name: "TETRA", Start: 380e6, End: 400e6, Category: "Digital Radio", Mode: ModeDigital, Spacing: 25e3, Description: "TETRA Digital Radio"},

	// Remote control
	{Name: "RC-AIR", Start: 72e6, End: 73e6, Category: "Remote Control"},
	{Name: "RC-CAR", Start: 26.995e6, End: 27.255e6, Category: "Remote Control"},
	{Name: "RC-GENERAL", Start: 433e6, End: 435e6, Category: "Remote Control"},

	// Utilities
	{Name: "PAGER", Start: 929e6, End: 932e6, Category: "Utilities"},
	{Name: "RFID", Start: 13.56e6, End: 13.56e6, Category: "Utilities"},
	{Name: "TRUNKING", Start: 851e6, End: 869e6, Category: "Utilities"},
	{Name: "SCADA", Start: 450e6, End: 470e6, Category: "Utilities"},

	// Microphones
	{Name: "MIC-VHF", Start: 169.445e6, End: 171.905e6, Category: "Microphones"},
	{Name: "MIC-UHF", Start: 470e6, End: 698e6, Category: "Microphones"},
	{Name: "MIC-PRO", Start: 944e6, End: 952e6, Category: "Microphones"},

	// Weather
	{Name: "WEATHER-SAT", Start: 137e6, End: 138e6, Category: "Weather", Mode: ModeAPT, Spacing: 30e3, Description: "Weather Satellite Transmissions"},
	{Name: "WEATHER-RADIO", Start: 162.4e6, End: 162.55e6, Category: "Weather"},
	{Name: "WEATHER-FAX", Start: 2.0e6, End: 25e6, Category: "Weather"},

	// Time signals
	{Name: "WWV", Start: 2.5e6, End: 20e6, Category: "Time Signals", Mode: ModeAM, Spacing: 1e3, Description: "NIST Time Signal Station"},
	{Name: "WWVH", Start: 2.5e6, End: 15e6, Category: "Time Signals"},
	{Name: "DCF77", Start: 77.5e3, End: 77.5e3, Category: "Time Signals"},
	{Name: "MSF", Start: 60e3, End: 60e3, Category: "Time Signals"},
}

// Default returns a table holding the built-in bands
func Default() *Table {
	t, err := NewTable(builtin)
	if err != nil {
		panic(fmt.Sprintf("invalid built-in band table: %v", err))
	}
	return t
}

// File is the on-disk layout of a band override file
type File struct {
	Bands []Band `yaml:"bands"`
}

// LoadFile reads band overrides from a YAML file
func LoadFile(path string) ([]Band, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read band file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse band file: %w", err)
	}
	for _, b := range f.Bands {
		if err := b.Validate(); err != nil {
			return nil, fmt.Errorf("invalid band in %s: %w", path, err)
		}
	}
	return f.Bands, nil
}

// Load returns the built-in table with the overrides from path merged in.
// An empty path yields the built-in table.
func Load(path string) (*Table, error) {
	t := Default()
	if path == "" {
		return t, nil
	}
	overrides, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	if err := t.Merge(overrides); err != nil {
		return nil, err
	}
	return t, nil
}

package battle

// ShipClass describes one ship of the standard fleet.
type ShipClass struct {
	Name   string
	Length int
}

// Fleet is the standard five-ship fleet, in placement order.
var Fleet = []ShipClass{
	{Name: "AircraftCarrier", Length: 5},
	{Name: "Battleship", Length: 4},
	{Name: "Cruiser", Length: 3},
	{Name: "Submarine", Length: 3},
	{Name: "PatrolBoat", Length: 2},
}

// fleetLengths indexes Fleet by name.
var fleetLengths = func() map[string]int {
	m := make(map[string]int, len(Fleet))
	for _, s := range Fleet {
		m[s.Name] = s.Length
	}
	return m
}()

// ShipLength returns the length of the named fleet ship.
// Unknown names return (0, false).
func ShipLength(name string) (int, bool) {
	n, ok := fleetLengths[name]
	return n, ok
}

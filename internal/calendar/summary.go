package calendar

import "recorridos/internal/core"

// Summary holds month totals derived from a bucket map.
type Summary struct {
	Days       int
	Recorridos int
	Asientos   int
	Vehiculos  int
	Costo      core.Money
}

// Summarize walks the bucket map once and totals it.
func Summarize(b Buckets) Summary {
	var s Summary
	vehiculos := map[int64]struct{}{}
	for _, rs := range b {
		if len(rs) == 0 {
			continue
		}
		s.Days++
		for _, r := range rs {
			s.Recorridos++
			s.Asientos += len(r.Ninos)
			s.Costo.Cents += r.Costo.Cents
			if r.VehiculoID != 0 {
				vehiculos[r.VehiculoID] = struct{}{}
			}
		}
	}
	s.Vehiculos = len(vehiculos)
	return s
}

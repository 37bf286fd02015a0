package export

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	"recorridos/internal/core"
)

func TestMonthReport(t *testing.T) {
	records := []core.Recorrido{
		{ID: 1, Fecha: "2024-03-12", HoraInicio: "16:00", VehiculoID: 2, Costo: core.Money{Cents: 150050}},
		{ID: 2, Fecha: "2024-03-05", HoraInicio: "07:30", VehiculoID: 1, VehiculoDescripcion: "Furgón", Costo: core.Money{Cents: 350000},
			Ninos: []core.RecorridoNino{{ID: 1, Nombre: "Ana Pérez"}, {ID: 2}}},
		{ID: 3, Fecha: "2024-02-28", HoraInicio: "07:30", VehiculoID: 1},
		{ID: 4, Fecha: "05/03/2024", HoraInicio: "07:30", VehiculoID: 1},
		{ID: 5, Fecha: "2024-03-05", HoraInicio: "08:15", VehiculoID: 2},
	}

	var buf bytes.Buffer
	if err := MonthReport(&buf, 2024, 3, records); err != nil {
		t.Fatalf("MonthReport: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetRecorridos)
	if err != nil {
		t.Fatal(err)
	}
	// header + the three March recorridos
	if len(rows) != 4 {
		t.Fatalf("rows = %d, want 4: %v", len(rows), rows)
	}
	if rows[0][0] != "Fecha" || rows[0][5] != "Costo" {
		t.Errorf("header = %v", rows[0])
	}
	// day order first, source order within a day
	wantFechaHora := [][2]string{{"2024-03-05", "07:30"}, {"2024-03-05", "08:15"}, {"2024-03-12", "16:00"}}
	for i, want := range wantFechaHora {
		if rows[i+1][0] != want[0] || rows[i+1][1] != want[1] {
			t.Errorf("row %d = %v, want %v", i+1, rows[i+1][:2], want)
		}
	}
	if rows[1][2] != "Furgón" || rows[1][3] != "Ana Pérez, #2" || rows[1][4] != "2" {
		t.Errorf("row 1 = %v", rows[1])
	}
	if rows[3][2] != "#2" {
		t.Errorf("vehiculo without description = %q", rows[3][2])
	}

	summary, err := f.GetRows(SheetResumen)
	if err != nil {
		t.Fatal(err)
	}
	if summary[0][1] != "Marzo 2024" {
		t.Errorf("period = %q", summary[0][1])
	}
	if summary[2][1] != "3" {
		t.Errorf("recorridos = %q", summary[2][1])
	}
}

func TestMonthReportEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := MonthReport(&buf, 2024, 2, nil); err != nil {
		t.Fatalf("MonthReport: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, _ := f.GetRows(SheetRecorridos)
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want header only", len(rows))
	}
}

func TestFilenameAndMonthName(t *testing.T) {
	if got := Filename(2024, 3); got != "recorridos-2024-03.xlsx" {
		t.Errorf("Filename = %q", got)
	}
	if MonthName(12) != "Diciembre" || MonthName(0) != "" || MonthName(13) != "" {
		t.Error("MonthName bounds")
	}
}

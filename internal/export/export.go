// Package export writes the monthly recorridos report as an XLSX workbook.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"recorridos/internal/calendar"
	"recorridos/internal/core"
)

const (
	SheetRecorridos = "Recorridos"
	SheetResumen    = "Resumen"
)

// Header is the first row of the Recorridos sheet.
var Header = []any{"Fecha", "Hora", "Vehículo", "Niños", "Asientos", "Costo"}

var monthNames = [12]string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

// MonthName returns the Spanish name of month (1-12).
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return monthNames[month-1]
}

// Filename is the download name for a month report.
func Filename(year, month int) string {
	return fmt.Sprintf("recorridos-%04d-%02d.xlsx", year, month)
}

// MonthReport writes one row per recorrido of the month, ordered by day and
// then by source order, plus a summary sheet. Records outside the month or
// with a malformed fecha are left out.
func MonthReport(w io.Writer, year, month int, records []core.Recorrido) error {
	buckets := calendar.Aggregate(records, month, year)

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetRecorridos); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetResumen); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	if err := writeRecorridos(f, buckets, bold, money); err != nil {
		return err
	}
	if err := writeResumen(f, year, month, calendar.Summarize(buckets), bold, money); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRecorridos(f *excelize.File, buckets calendar.Buckets, bold, money int) error {
	if err := f.SetSheetRow(SheetRecorridos, "A1", &Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := f.SetCellStyle(SheetRecorridos, "A1", "F1", bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	row := 2
	for _, day := range buckets.Days() {
		for _, r := range buckets[day] {
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return err
			}
			values := []any{r.Fecha, r.HoraInicio, vehiculoLabel(r), ninoNames(r.Ninos), len(r.Ninos), r.Costo.Pesos()}
			if err := f.SetSheetRow(SheetRecorridos, cell, &values); err != nil {
				return fmt.Errorf("write row %d: %w", row, err)
			}
			row++
		}
	}
	if row > 2 {
		if err := f.SetCellStyle(SheetRecorridos, "F2", fmt.Sprintf("F%d", row-1), money); err != nil {
			return fmt.Errorf("style costo: %w", err)
		}
	}

	if err := f.SetColWidth(SheetRecorridos, "A", "B", 12); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetRecorridos, "C", "D", 32); err != nil {
		return err
	}
	return f.SetPanes(SheetRecorridos, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func writeResumen(f *excelize.File, year, month int, s calendar.Summary, bold, money int) error {
	rows := [][]any{
		{"Período", fmt.Sprintf("%s %d", MonthName(month), year)},
		{"Días con recorridos", s.Days},
		{"Recorridos", s.Recorridos},
		{"Asientos", s.Asientos},
		{"Vehículos", s.Vehiculos},
		{"Costo total", s.Costo.Pesos()},
	}
	for i, values := range rows {
		cell := fmt.Sprintf("A%d", i+1)
		if err := f.SetSheetRow(SheetResumen, cell, &values); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
	}
	if err := f.SetCellStyle(SheetResumen, "A1", fmt.Sprintf("A%d", len(rows)), bold); err != nil {
		return err
	}
	last := fmt.Sprintf("B%d", len(rows))
	if err := f.SetCellStyle(SheetResumen, last, last, money); err != nil {
		return err
	}
	return f.SetColWidth(SheetResumen, "A", "B", 22)
}

func vehiculoLabel(r core.Recorrido) string {
	if r.VehiculoDescripcion != "" {
		return r.VehiculoDescripcion
	}
	return fmt.Sprintf("#%d", r.VehiculoID)
}

func ninoNames(ninos []core.RecorridoNino) string {
	names := make([]string, 0, len(ninos))
	for _, n := range ninos {
		if n.Nombre != "" {
			names = append(names, n.Nombre)
		} else {
			names = append(names, fmt.Sprintf("#%d", n.ID))
		}
	}
	return strings.Join(names, ", ")
}

package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"recorridos/internal/apiclient"
	"recorridos/internal/auth"
	"recorridos/internal/core"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{fmt.Errorf("create: %w", core.ErrInvalidInput), http.StatusUnprocessableEntity},
		{core.ErrInvalidAmount, http.StatusUnprocessableEntity},
		{fmt.Errorf("patente: %w", core.ErrConflict), http.StatusConflict},
		{core.ErrNotFound, http.StatusNotFound},
		{core.ErrForbidden, http.StatusForbidden},
		{apiclient.ErrUnauthorized, http.StatusUnauthorized},
		{auth.ErrInvalidToken, http.StatusUnauthorized},
		{fmt.Errorf("list: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestFormatPesos(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{0, "$0"},
		{350000, "$3.500"},
		{123450, "$1.234,50"},
		{100000000, "$1.000.000"},
		{5, "$0,05"},
		{-250000, "-$2.500"},
	}
	for _, tt := range tests {
		if got := formatPesos(tt.cents); got != tt.want {
			t.Errorf("formatPesos(%d) = %q, want %q", tt.cents, got, tt.want)
		}
	}
}

func TestAmountInput(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{350000, "3500"},
		{1250, "12,50"},
		{0, "0"},
		{-150, "-1,50"},
		{-50, "-0,50"},
		{-20000, "-200"},
	}
	for _, tt := range tests {
		if got := amountInput(tt.cents); got != tt.want {
			t.Errorf("amountInput(%d) = %q, want %q", tt.cents, got, tt.want)
		}
	}
}

func TestNewMonthNav(t *testing.T) {
	tests := []struct {
		year, month int
		want        monthNav
	}{
		{2024, 3, monthNav{Year: 2024, Month: 3, Label: "Marzo 2024", PrevYear: 2024, PrevMonth: 2, NextYear: 2024, NextMonth: 4}},
		{2024, 1, monthNav{Year: 2024, Month: 1, Label: "Enero 2024", PrevYear: 2023, PrevMonth: 12, NextYear: 2024, NextMonth: 2}},
		{2024, 12, monthNav{Year: 2024, Month: 12, Label: "Diciembre 2024", PrevYear: 2024, PrevMonth: 11, NextYear: 2025, NextMonth: 1}},
	}
	for _, tt := range tests {
		if got := newMonthNav(tt.year, tt.month); got != tt.want {
			t.Errorf("newMonthNav(%d, %d) = %+v, want %+v", tt.year, tt.month, got, tt.want)
		}
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := sanitizeInput("  Ana\x00 Pérez\x07 "); got != "Ana Pérez" {
		t.Errorf("sanitizeInput = %q", got)
	}
	if got := sanitizeInput("linea 1\nlinea 2"); got != "linea 1\nlinea 2" {
		t.Errorf("newline dropped: %q", got)
	}
}

// Package testutil builds small TERC and SIMC documents for tests.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var (
	tercColumns = []string{"WOJ", "POW", "GMI", "RODZ", "NAZWA", "NAZWA_DOD", "STAN_NA"}
	simcColumns = []string{"WOJ", "POW", "GMI", "RODZ_GMI", "RM", "MZ", "NAZWA", "SYM", "SYMPOD", "STAN_NA"}
)

// Row is a list of column values; an empty value is written as an empty element.
type Row []string

// TERC returns a row in TERC column order.
func TERC(woj, pow, gmi, rodz, name, label, date string) Row {
	return Row{woj, pow, gmi, rodz, name, label, date}
}

// SIMC returns a row in SIMC column order.
func SIMC(woj, pow, gmi, rodzGmi, rm, name, sym, sympod, date string) Row {
	return Row{woj, pow, gmi, rodzGmi, rm, "1", name, sym, sympod, date}
}

// Document renders rows as a registry catalog. Rows shorter than the schema
// are written with their trailing columns missing.
func Document(catalog string, rows ...Row) string {
	columns := tercColumns
	if catalog == "SIMC" {
		columns = simcColumns
	}

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n<teryt>\n")
	fmt.Fprintf(&b, "<catalog name=%q type=\"all\" date=\"2024-01-01\">\n", catalog)
	for _, row := range rows {
		b.WriteString("<row>\n")
		for i, value := range row {
			if value == "" {
				fmt.Fprintf(&b, "<col name=%q/>\n", columns[i])
				continue
			}
			fmt.Fprintf(&b, "<col name=%q>%s</col>\n", columns[i], value)
		}
		b.WriteString("</row>\n")
	}
	b.WriteString("</catalog>\n</teryt>\n")
	return b.String()
}

// WriteRegistry writes dir/<catalog>.xml and returns its path.
func WriteRegistry(tb testing.TB, dir, catalog string, rows ...Row) string {
	tb.Helper()
	path := filepath.Join(dir, catalog+".xml")
	if err := os.WriteFile(path, []byte(Document(catalog, rows...)), 0o644); err != nil {
		tb.Fatalf("write %s: %v", path, err)
	}
	return path
}

// SampleTERC covers one province with a city county and a rural county.
func SampleTERC() []Row {
	return []Row{
		TERC("02", "", "", "", "DOLNOŚLĄSKIE", "województwo", "2024-01-01"),
		TERC("02", "01", "", "", "bolesławiecki", "powiat", "2024-01-01"),
		TERC("02", "01", "01", "1", "Bolesławiec", "gmina miejska", "2024-01-01"),
		TERC("02", "01", "02", "2", "Bolesławiec", "gmina wiejska", "2024-01-01"),
		TERC("02", "01", "03", "3", "Nowogrodziec", "gmina miejsko-wiejska", "2024-01-01"),
		TERC("02", "01", "03", "4", "Nowogrodziec", "miasto", "2024-01-01"),
		TERC("02", "64", "", "", "Wrocław", "miasto na prawach powiatu", "2024-01-01"),
		TERC("02", "64", "01", "1", "Wrocław", "gmina miejska", "2024-01-01"),
		TERC("02", "64", "02", "8", "Wrocław-Fabryczna", "delegatura", "2024-01-01"),
	}
}

// SampleSIMC holds two cities, a village and city parts. Wrocław parts are
// coded under the delegatura 02, which has no city of its own.
func SampleSIMC() []Row {
	return []Row{
		SIMC("02", "01", "01", "1", "96", "Bolesławiec", "0935989", "0935989", "2024-01-01"),
		SIMC("02", "01", "02", "2", "01", "Kruszyn", "0200001", "0200001", "2024-01-01"),
		SIMC("02", "01", "03", "4", "96", "Nowogrodziec", "0935996", "0935996", "2024-01-01"),
		SIMC("02", "64", "01", "1", "96", "Wrocław", "0986283", "0986283", "2024-01-01"),
		SIMC("02", "01", "01", "1", "99", "Zabobrze", "0935990", "0935989", "2024-01-01"),
		SIMC("02", "64", "02", "8", "99", "Leśnica", "0986290", "0986283", "2024-01-01"),
	}
}

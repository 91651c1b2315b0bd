package feed

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/quantumtrade/tradebot/internal/core"
)

// ParsePrices reads prices separated by commas, whitespace or newlines.
// Lines starting with # are skipped.
func ParsePrices(r io.Reader) ([]float64, error) {
	var prices []float64
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.FieldsFunc(text, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == ';'
		})
		for _, f := range fields {
			p, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, core.WrapError(core.ErrInvalidInput, fmt.Errorf("line %d: %q is not a number", line, f))
			}
			prices = append(prices, p)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading prices: %w", err)
	}
	return prices, nil
}

// ParsePriceList parses a single comma separated list, e.g. from a flag
func ParsePriceList(s string) ([]float64, error) {
	return ParsePrices(strings.NewReader(s))
}

// ReadPriceFile loads prices from a file
func ReadPriceFile(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening price file: %w", err)
	}
	defer f.Close()
	return ParsePrices(f)
}

// FromFile creates a Static feed replaying the prices stored at path.
func FromFile(path string) (*Static, error) {
	prices, err := ReadPriceFile(path)
	if err != nil {
		return nil, err
	}
	return NewStatic(prices, nil)
}

// Drain pulls n prices for symbol from f.
func Drain(ctx context.Context, f Feed, symbol string, n int) ([]float64, error) {
	out := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		p, err := f.Next(ctx, symbol)
		if err != nil {
			return out, err
		}
		out = append(out, p)
	}
	return out, nil
}

package fit

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// LoadSeries reads one decimal value per line. Blank lines are ignored.
func LoadSeries(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open series: %w", err)
	}
	defer f.Close()

	var out []float64
	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		out = append(out, v)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read series: %w", err)
	}
	return out, nil
}

// WriteQualityFactor stores q as a single decimal with no trailing newline.
func WriteQualityFactor(path string, q float64) error {
	return os.WriteFile(path, []byte(strconv.FormatFloat(q, 'f', -1, 64)), 0644)
}

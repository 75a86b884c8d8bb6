package entity

import (
	"fmt"
	"strings"
)

// ClassCount сколько раз класс встретился в результате
type ClassCount struct {
	Class string
	Count int
}

// CountByClass считает объекты по классам за один проход.
// Порядок результата совпадает с порядком первого появления класса.
func CountByClass(labels []DetectionLabel) []ClassCount {
	counts := make([]ClassCount, 0)
	index := make(map[string]int)
	for _, l := range labels {
		if i, ok := index[l.Class]; ok {
			counts[i].Count++
			continue
		}
		index[l.Class] = len(counts)
		counts = append(counts, ClassCount{Class: l.Class, Count: 1})
	}
	return counts
}

// FormatCounts рендерит строки вида "<class>: <count>", разделённые переводом строки.
func FormatCounts(counts []ClassCount) string {
	lines := make([]string, 0, len(counts))
	for _, c := range counts {
		lines = append(lines, fmt.Sprintf("%s: %d", c.Class, c.Count))
	}
	return strings.Join(lines, "\n")
}

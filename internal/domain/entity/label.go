package entity

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// DetectionLabel один найденный объект. Координаты нормированы в [0,1].
type DetectionLabel struct {
	Class  string  `json:"class" bson:"class"`
	CX     float64 `json:"cx" bson:"cx"`
	CY     float64 `json:"cy" bson:"cy"`
	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`
}

// ClassTable отображение индекса класса модели в его имя
type ClassTable map[int]string

// Name возвращает имя класса по индексу.
func (t ClassTable) Name(idx int) (string, bool) {
	name, ok := t[idx]
	return name, ok
}

const labelFields = 5

// ParseLabels разбирает файл разметки yolo: одна строка на объект,
// "класс cx cy w h". Любая битая строка делает весь результат невалидным.
func ParseLabels(r io.Reader, classes ClassTable) ([]DetectionLabel, error) {
	labels := make([]DetectionLabel, 0)
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		label, err := parseLabelLine(fields, classes)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrMalformedLabel, lineNo, err)
		}
		labels = append(labels, label)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: read labels: %w", ErrMalformedLabel, err)
	}

	return labels, nil
}

func parseLabelLine(fields []string, classes ClassTable) (DetectionLabel, error) {
	if len(fields) != labelFields {
		return DetectionLabel{}, fmt.Errorf("expected %d fields, got %d", labelFields, len(fields))
	}

	idx, err := strconv.Atoi(fields[0])
	if err != nil {
		return DetectionLabel{}, fmt.Errorf("class index %q: %w", fields[0], err)
	}
	name, ok := classes.Name(idx)
	if !ok {
		return DetectionLabel{}, fmt.Errorf("unknown class index %d", idx)
	}

	var geom [4]float64
	for i := range geom {
		v, err := strconv.ParseFloat(fields[i+1], 64)
		if err != nil {
			return DetectionLabel{}, fmt.Errorf("field %d %q: %w", i+2, fields[i+1], err)
		}
		geom[i] = v
	}

	return DetectionLabel{
		Class:  name,
		CX:     geom[0],
		CY:     geom[1],
		Width:  geom[2],
		Height: geom[3],
	}, nil
}

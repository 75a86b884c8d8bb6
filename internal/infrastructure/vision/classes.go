package vision

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"yolo-bot/internal/domain/entity"
)

// dataFile yaml датасета yolov5. names бывает списком или словарём индекс -> имя.
type dataFile struct {
	Names yaml.Node `yaml:"names"`
}

// LoadClassTable читает имена классов из yaml датасета (data/coco128.yaml и т.п.)
func LoadClassTable(path string) (entity.ClassTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read class names: %w", err)
	}
	return ParseClassTable(raw)
}

// ParseClassTable разбирает содержимое yaml датасета.
func ParseClassTable(raw []byte) (entity.ClassTable, error) {
	var data dataFile
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse class names: %w", err)
	}

	table := make(entity.ClassTable)
	switch data.Names.Kind {
	case yaml.SequenceNode:
		var names []string
		if err := data.Names.Decode(&names); err != nil {
			return nil, fmt.Errorf("decode names list: %w", err)
		}
		for i, name := range names {
			table[i] = name
		}
	case yaml.MappingNode:
		var names map[int]string
		if err := data.Names.Decode(&names); err != nil {
			return nil, fmt.Errorf("decode names map: %w", err)
		}
		for i, name := range names {
			table[i] = name
		}
	default:
		return nil, fmt.Errorf("names: expected list or map")
	}

	if len(table) == 0 {
		return nil, fmt.Errorf("names: empty class list")
	}
	return table, nil
}

package dategen

import (
	"os"
	"path/filepath"

	"dategen/internal/model"
	"dategen/internal/stats"
)

func writeCasesCSV(path string, cases []model.CaseRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return stats.WriteCasesCSV(file, cases)
}

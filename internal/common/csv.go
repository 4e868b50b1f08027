// Package common provides CSV import and export shared by the commands.
package common

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"

	"intellifinance/fincat/internal/fileutils"
	"intellifinance/fincat/internal/logging"
)

// ReadCSVFile reads CSV data into a slice of structs using gocsv.
// TCSVRow is the struct type that maps to the CSV columns.
func ReadCSVFile[TCSVRow any](filePath string, logger logging.Logger) ([]TCSVRow, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger.Debug("Reading CSV file", logging.F(logging.FieldInputFile, filePath))

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("error opening CSV file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close file")
		}
	}()

	var rows []TCSVRow
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		return nil, fmt.Errorf("error parsing CSV file %s: %w", filePath, err)
	}

	logger.Info("Read CSV data",
		logging.F(logging.FieldInputFile, filePath),
		logging.F(logging.FieldCount, len(rows)))
	return rows, nil
}

// WriteCSVFile writes rows to a CSV file with a header line, creating the
// parent directory if needed.
func WriteCSVFile[TCSVRow any](rows []TCSVRow, csvFile string, logger logging.Logger) error {
	if rows == nil {
		return fmt.Errorf("cannot write nil rows to CSV")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := fileutils.EnsureParentDirectory(csvFile); err != nil {
		return err
	}

	file, err := os.Create(csvFile)
	if err != nil {
		return fmt.Errorf("error creating CSV file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close file")
		}
	}()

	if err := gocsv.MarshalFile(&rows, file); err != nil {
		return fmt.Errorf("error writing CSV data: %w", err)
	}

	logger.Info("Wrote CSV file",
		logging.F(logging.FieldOutputFile, csvFile),
		logging.F(logging.FieldCount, len(rows)))
	return nil
}

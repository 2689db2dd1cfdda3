package hadith

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/Nixie-Tech-LLC/salah/internal/model"
)

var (
	ErrFileRead   = errors.New("reading hadith file")
	ErrValidation = errors.New("invalid hadith record")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ParseRecords decodes a JSON array of records and validates each one.
// The first invalid record fails the whole parse.
func ParseRecords(r io.Reader) ([]model.HadithRecord, error) {
	var records []model.HadithRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("%w: decoding JSON array: %v", ErrValidation, err)
	}
	if records == nil {
		return nil, fmt.Errorf("%w: expected a JSON array, got null", ErrValidation)
	}
	for i := range records {
		if err := Validate(records[i]); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
	}
	return records, nil
}

// Validate checks a single record against its struct tags.
func Validate(rec model.HadithRecord) error {
	if err := validate.Struct(rec); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s failed %q", ErrValidation, verrs[0].Field(), verrs[0].Tag())
		}
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

// LoadFile parses records from a JSON file on disk.
func LoadFile(path string) ([]model.HadithRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFileRead, err)
	}
	defer f.Close()

	records, err := ParseRecords(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// DocumentID derives the stable store key "<prefix>_<book>_<hadith>".
func DocumentID(prefix string, rec model.HadithRecord) string {
	return fmt.Sprintf("%s_%d_%d", prefix, rec.BookNumber, rec.HadithNumber)
}

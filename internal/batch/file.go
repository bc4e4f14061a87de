// Package batch applies a file of stock movements against the inventory API.
package batch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/maxkimambo/stockctl/internal/activity"
	apperrors "github.com/maxkimambo/stockctl/internal/errors"
	"github.com/maxkimambo/stockctl/internal/inventory"
)

// file is the on-disk layout:
//
//	movements:
//	  - sku: BOLT-M8
//	    quantity: 50
//	    to: A1
type file struct {
	Movements []yaml.Node `yaml:"movements"`
}

// Parse decodes and validates a movements document. Every invalid entry is
// reported, each tagged with its line number.
func Parse(r io.Reader) ([]inventory.Movement, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, apperrors.NewValidationError(apperrors.CodeValidationFile,
			"Could not read movements file", "Parse movements").
			WithOriginalError(err)
	}

	var doc file
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, apperrors.NewValidationError(apperrors.CodeValidationFile,
			"Movements file is not valid YAML", "Parse movements").
			WithOriginalError(err).
			WithTroubleshooting("Expected a top-level 'movements' list")
	}
	if len(doc.Movements) == 0 {
		return nil, apperrors.NewValidationError(apperrors.CodeValidationFile,
			"Movements file contains no movements", "Parse movements")
	}

	moves := make([]inventory.Movement, 0, len(doc.Movements))
	var errs []error
	for i := range doc.Movements {
		node := &doc.Movements[i]
		var m inventory.Movement
		if err := node.Decode(&m); err != nil {
			errs = append(errs, fmt.Errorf("line %d: %w", node.Line, err))
			continue
		}
		if err := m.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("line %d: %w", node.Line, err))
			continue
		}
		moves = append(moves, m)
	}

	if len(errs) > 0 {
		return nil, apperrors.NewValidationError(apperrors.CodeValidationFile,
			fmt.Sprintf("%d of %d movements are invalid", len(errs), len(doc.Movements)),
			"Parse movements").
			WithOriginalError(errors.Join(errs...)).
			WithContext("invalid", len(errs))
	}
	return moves, nil
}

// Load reads and parses path. The read counts toward the busy signal like
// any other mutation step of a batch run.
func Load(ctx context.Context, c *activity.Coordinator, path string) ([]inventory.Movement, error) {
	var moves []inventory.Movement
	err := activity.Track(ctx, c, activity.Config{}, false, func(ctx context.Context) error {
		f, err := os.Open(path)
		if err != nil {
			return apperrors.NewValidationError(apperrors.CodeValidationFile,
				fmt.Sprintf("Cannot open movements file %s", path), "Load movements").
				WithOriginalError(err).
				WithContext("path", path)
		}
		defer f.Close()

		moves, err = Parse(f)
		return err
	})
	return moves, err
}

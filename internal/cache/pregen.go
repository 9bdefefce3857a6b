package cache

import (
	"context"
	"errors"

	"github.com/audionav/govorun/internal/speech"
)

// Pregenerate resolves every label up front so steady-state navigation only
// ever hits cache. Already-valid entries are detected without re-rendering,
// making repeated runs idempotent. Individual failures do not stop the walk;
// the joined error reports everything that could not be generated.
func (s *Store) Pregenerate(ctx context.Context, labels []string, voice, engine string, format speech.Format) (int, error) {
	var errs []error
	generated := 0
	for _, label := range labels {
		if label == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		key := NewKey(label, voice, engine, format)
		hadIt := s.Contains(key)
		if _, err := s.Resolve(ctx, key); err != nil {
			errs = append(errs, err)
			continue
		}
		if !hadIt {
			generated++
		}
	}
	return generated, errors.Join(errs...)
}

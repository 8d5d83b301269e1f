package distance

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"vrp-model-service/internal/domain"
	"vrp-model-service/internal/platform/obs"
	"vrp-model-service/internal/ports"
)

// SQLMatrixCache is a SQL-backed cache for computed distance matrices,
// keyed by a digest of the point list. Matrices are stored as JSON.
type SQLMatrixCache struct {
	DB *sql.DB
}

func NewSQLMatrixCache(db *sql.DB) *SQLMatrixCache {
	return &SQLMatrixCache{DB: db}
}

func (s *SQLMatrixCache) Get(ctx context.Context, digest string) (_ domain.DistanceMatrix, _ bool, err error) {
	defer obs.Time(ctx, "matrix.cache.Get")(&err)

	if s.DB == nil {
		return nil, false, errors.New("matrix cache: db is nil")
	}
	if digest == "" {
		return nil, false, errors.New("get matrix cache: digest must not be empty")
	}

	q := `
	SELECT matrix
	FROM matrix_cache
	WHERE digest = $1;
	`

	var raw []byte
	err = s.DB.QueryRowContext(ctx, q, digest).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get matrix cache: query matrix_cache table: %w", err)
	}

	var m domain.DistanceMatrix
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, false, fmt.Errorf("get matrix cache: decode entry: %w", err)
	}
	return m, true, nil
}

func (s *SQLMatrixCache) Put(ctx context.Context, digest string, m domain.DistanceMatrix) error {
	if s.DB == nil {
		return errors.New("matrix cache: db is nil")
	}
	if digest == "" {
		return errors.New("insert matrix cache: digest must not be empty")
	}

	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("insert matrix cache: encode matrix: %w", err)
	}

	q := `
	INSERT INTO matrix_cache (digest, size, matrix)
	VALUES ($1, $2, $3)
	ON CONFLICT (digest) DO UPDATE
	SET size = EXCLUDED.size,
		matrix = EXCLUDED.matrix;
	`

	if _, err := s.DB.ExecContext(ctx, q, digest, m.Size(), raw); err != nil {
		return fmt.Errorf("insert matrix cache: %w", err)
	}
	return nil
}

// CachingProvider wraps a MatrixProvider with a persistent cache. Cache
// trouble is logged and the wrapped provider is consulted anyway.
type CachingProvider struct {
	inner ports.MatrixProvider
	cache *SQLMatrixCache
	log   zerolog.Logger
}

func NewCachingProvider(inner ports.MatrixProvider, cache *SQLMatrixCache, log zerolog.Logger) *CachingProvider {
	return &CachingProvider{inner: inner, cache: cache, log: log}
}

func (p *CachingProvider) Matrix(ctx context.Context, points []ports.Point) (domain.DistanceMatrix, error) {
	digest := pointsDigest(points)

	if p.cache != nil {
		m, hit, err := p.cache.Get(ctx, digest)
		if err != nil {
			p.log.Warn().Err(err).Msg("matrix cache lookup failed")
		} else if hit {
			return m, nil
		}
	}

	m, err := p.inner.Matrix(ctx, points)
	if err != nil {
		return nil, err
	}

	if p.cache != nil {
		if err := p.cache.Put(ctx, digest, m); err != nil {
			p.log.Warn().Err(err).Msg("matrix cache write failed")
		}
	}
	return m, nil
}

// Stable digest over the ordered point list.
func pointsDigest(points []ports.Point) string {
	h := sha256.New()
	for _, pt := range points {
		fmt.Fprintf(h, "%v,%v;", pt.X, pt.Y)
	}
	return hex.EncodeToString(h.Sum(nil))
}

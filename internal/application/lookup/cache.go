// Package lookup resuelve claves de catálogo (cat_estado) a identificadores
// con lectura a través de caché válida por la vida del proceso.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/cases"

	"github.com/megaventa/pos-api/internal/domain"
	"github.com/megaventa/pos-api/internal/domain/repository"
	"github.com/megaventa/pos-api/pkg/logger"
)

// Cache caché de lectura de cat_estado. Segura para uso concurrente; sin expiración.
// Las claves desconocidas nunca se guardan.
type Cache struct {
	repo  repository.LookupRepository
	log   *logger.Logger
	fold  cases.Caser
	mu    sync.Mutex // protege fold: cases.Caser no es seguro entre goroutines
	ids   sync.Map   // clave normalizada -> uuid.UUID
	group singleflight.Group
}

// NewCache construye la caché sobre el repositorio de catálogo.
func NewCache(repo repository.LookupRepository, log *logger.Logger) *Cache {
	if log == nil {
		log = logger.Nop()
	}
	return &Cache{repo: repo, log: log, fold: cases.Fold()}
}

// Normalize aplica la misma normalización usada como llave de caché.
func (c *Cache) Normalize(key string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fold.String(strings.TrimSpace(key))
}

// Resolve devuelve el id del estado para key. Fallos concurrentes sobre la misma
// clave se colapsan en una sola consulta.
func (c *Cache) Resolve(ctx context.Context, key string) (uuid.UUID, error) {
	norm := c.Normalize(key)
	if norm == "" {
		return uuid.Nil, fmt.Errorf("%w: clave vacía", domain.ErrUnknownLookupKey)
	}
	if v, ok := c.ids.Load(norm); ok {
		return v.(uuid.UUID), nil
	}

	v, err, _ := c.group.Do(norm, func() (interface{}, error) {
		if v, ok := c.ids.Load(norm); ok {
			return v, nil
		}
		id, err := c.repo.FindEstadoID(ctx, norm)
		if err != nil {
			return nil, err
		}
		c.ids.Store(norm, id)
		return id, nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrUnknownLookupKey) {
			c.log.Error().Str("lookup_key", norm).Msg("clave de cat_estado inexistente: revisar datos de referencia")
			return uuid.Nil, err
		}
		return uuid.Nil, fmt.Errorf("lookup %q: %w", norm, err)
	}
	return v.(uuid.UUID), nil
}

// Warm precarga claves al arranque; la primera clave que falle detiene la carga.
func (c *Cache) Warm(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		if _, err := c.Resolve(ctx, k); err != nil {
			return err
		}
	}
	return nil
}

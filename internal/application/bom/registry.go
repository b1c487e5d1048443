package bom

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/mfbgull/mini-erp-sub003/internal/domain"
	"github.com/mfbgull/mini-erp-sub003/internal/domain/entity"
	"github.com/mfbgull/mini-erp-sub003/internal/domain/inventory"
	"github.com/mfbgull/mini-erp-sub003/internal/domain/repository"
)

// LineInput insumo de una receta: Quantity por lote de OutputQuantity.
type LineInput struct {
	ItemID   string
	Quantity decimal.Decimal
}

// CodeLine línea leída de una planilla, identificada por código de ítem.
type CodeLine struct {
	Row      int
	ItemCode string
	Quantity decimal.Decimal
}

// LineParser lee líneas de receta desde un archivo (xlsx en producción).
type LineParser interface {
	ParseLines(r io.Reader) ([]CodeLine, error)
}

// Input datos de creación, edición o revisión de una receta.
type Input struct {
	Name           string
	OutputItemID   string
	OutputQuantity decimal.Decimal
	Lines          []LineInput
}

// Registry registro de recetas (BOM). Una receta referenciada por una corrida
// queda congelada; los cambios se hacen con ReviseBOM.
type Registry struct {
	txRunner repository.TxRunner
	repos    repository.Repos
	parser   LineParser
	log      zerolog.Logger
	now      func() time.Time
}

// NewRegistry construye el registro. parser puede ser nil si no se usa la importación.
func NewRegistry(txRunner repository.TxRunner, repos repository.Repos, parser LineParser, log zerolog.Logger) *Registry {
	return &Registry{txRunner: txRunner, repos: repos, parser: parser, log: log, now: time.Now}
}

// CreateBOM valida y registra una receta nueva (versión 1) con número BOM-xxxx.
func (r *Registry) CreateBOM(ctx context.Context, in Input) (*entity.BOM, error) {
	lines, err := validate(in)
	if err != nil {
		return nil, err
	}
	var out *entity.BOM
	err = r.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		b, err := r.create(ctx, repos, in, lines, 1, "")
		if err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, domain.CommitFailure(err)
	}
	r.log.Info().Str("bom_no", out.BOMNo).Str("output_item_id", out.OutputItemID).
		Int("lines", len(out.Lines)).Msg("receta creada")
	return out, nil
}

// ImportBOM crea una receta con las líneas leídas por el LineParser (item_code | quantity).
func (r *Registry) ImportBOM(ctx context.Context, name, outputItemID string, outputQty decimal.Decimal, src io.Reader) (*entity.BOM, error) {
	if r.parser == nil {
		return nil, fmt.Errorf("%w: importación no configurada", domain.ErrInvalidInput)
	}
	codeLines, err := r.parser.ParseLines(src)
	if err != nil {
		return nil, err
	}
	lines := make([]LineInput, 0, len(codeLines))
	for _, cl := range codeLines {
		item, err := r.repos.Items.GetByCode(ctx, cl.ItemCode)
		if err != nil {
			return nil, err
		}
		if item == nil {
			return nil, fmt.Errorf("%w: código %q (fila %d)", domain.ErrUnknownItem, cl.ItemCode, cl.Row)
		}
		lines = append(lines, LineInput{ItemID: item.ID, Quantity: cl.Quantity})
	}
	return r.CreateBOM(ctx, Input{Name: name, OutputItemID: outputItemID, OutputQuantity: outputQty, Lines: lines})
}

// Expand escala la receta a desired unidades de salida (ver inventory.ScaleBOM).
func (r *Registry) Expand(ctx context.Context, bomID string, desired decimal.Decimal) ([]entity.Requirement, error) {
	if !desired.IsPositive() {
		return nil, domain.ErrInvalidQuantity
	}
	b, err := load(ctx, r.repos, bomID)
	if err != nil {
		return nil, err
	}
	return inventory.ScaleBOM(b, desired), nil
}

// ListBOMs lista recetas, opcionalmente filtradas por ítem de salida.
func (r *Registry) ListBOMs(ctx context.Context, outputItemID string, limit, offset int) ([]*entity.BOM, error) {
	return r.repos.BOMs.List(ctx, outputItemID, limit, offset)
}

// InUse indica si alguna corrida referencia la receta.
func (r *Registry) InUse(ctx context.Context, bomID string) (bool, error) {
	return r.repos.Productions.ExistsByBOM(ctx, bomID)
}

// UpdateBOM modifica una receta mientras ninguna corrida la use; si no, ErrBOMInUse.
func (r *Registry) UpdateBOM(ctx context.Context, id string, in Input) (*entity.BOM, error) {
	lines, err := validate(in)
	if err != nil {
		return nil, err
	}
	var out *entity.BOM
	err = r.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		b, err := loadMutable(ctx, repos, id)
		if err != nil {
			return err
		}
		if err := resolveItems(ctx, repos, in); err != nil {
			return err
		}
		b.Name = strings.TrimSpace(in.Name)
		b.OutputItemID = in.OutputItemID
		b.OutputQuantity = inventory.RoundQuantity(in.OutputQuantity)
		b.Lines = lines
		b.UpdatedAt = r.now()
		if err := repos.BOMs.Update(ctx, b); err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, domain.CommitFailure(err)
	}
	r.log.Info().Str("bom_no", out.BOMNo).Msg("receta actualizada")
	return out, nil
}

// ReviseBOM crea una nueva versión de la receta id (Version+1, SupersedesID=id).
// La versión anterior queda intacta para reproducir las corridas históricas.
func (r *Registry) ReviseBOM(ctx context.Context, id string, in Input) (*entity.BOM, error) {
	lines, err := validate(in)
	if err != nil {
		return nil, err
	}
	var out *entity.BOM
	err = r.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		prev, err := load(ctx, repos, id)
		if err != nil {
			return err
		}
		b, err := r.create(ctx, repos, in, lines, prev.Version+1, prev.ID)
		if err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, domain.CommitFailure(err)
	}
	r.log.Info().Str("bom_no", out.BOMNo).Str("supersedes_id", out.SupersedesID).
		Int("version", out.Version).Msg("receta revisada")
	return out, nil
}

// DeleteBOM elimina una receta no usada; si alguna corrida la referencia, ErrBOMInUse.
func (r *Registry) DeleteBOM(ctx context.Context, id string) error {
	err := r.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		if _, err := loadMutable(ctx, repos, id); err != nil {
			return err
		}
		return repos.BOMs.Delete(ctx, id)
	})
	if err != nil {
		return domain.CommitFailure(err)
	}
	r.log.Info().Str("bom_id", id).Msg("receta eliminada")
	return nil
}

func (r *Registry) create(ctx context.Context, repos repository.Repos, in Input, lines []entity.BOMLine, version int, supersedes string) (*entity.BOM, error) {
	if err := resolveItems(ctx, repos, in); err != nil {
		return nil, err
	}
	n, err := repos.Sequences.Next(ctx, entity.SequenceBOM)
	if err != nil {
		return nil, err
	}
	now := r.now()
	b := &entity.BOM{
		ID:             uuid.New().String(),
		BOMNo:          entity.BOMNumber(n),
		Name:           strings.TrimSpace(in.Name),
		OutputItemID:   in.OutputItemID,
		OutputQuantity: inventory.RoundQuantity(in.OutputQuantity),
		Version:        version,
		SupersedesID:   supersedes,
		Lines:          lines,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := repos.BOMs.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// validate revisa la forma de la receta antes de tocar almacenamiento.
func validate(in Input) ([]entity.BOMLine, error) {
	if len(in.Lines) == 0 {
		return nil, domain.ErrEmptyRecipe
	}
	if !inventory.RoundQuantity(in.OutputQuantity).IsPositive() {
		return nil, domain.ErrZeroOutputQuantity
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: nombre de receta requerido", domain.ErrInvalidInput)
	}
	if in.OutputItemID == "" {
		return nil, domain.ErrUnknownItem
	}
	seen := make(map[string]bool, len(in.Lines))
	lines := make([]entity.BOMLine, 0, len(in.Lines))
	for i, l := range in.Lines {
		if seen[l.ItemID] {
			return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateInputLine, l.ItemID)
		}
		seen[l.ItemID] = true
		if l.ItemID == in.OutputItemID {
			return nil, fmt.Errorf("%w: el insumo no puede ser el ítem de salida", domain.ErrInvalidInput)
		}
		qty := inventory.RoundQuantity(l.Quantity)
		if !qty.IsPositive() {
			return nil, fmt.Errorf("%w: línea %d", domain.ErrInvalidQuantity, i+1)
		}
		lines = append(lines, entity.BOMLine{LineNo: i + 1, ItemID: l.ItemID, Quantity: qty})
	}
	return lines, nil
}

func resolveItems(ctx context.Context, repos repository.Repos, in Input) error {
	ids := make([]string, 0, len(in.Lines)+1)
	ids = append(ids, in.OutputItemID)
	for _, l := range in.Lines {
		ids = append(ids, l.ItemID)
	}
	for _, id := range ids {
		item, err := repos.Items.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if item == nil {
			return fmt.Errorf("%w: %s", domain.ErrUnknownItem, id)
		}
	}
	return nil
}

func load(ctx context.Context, repos repository.Repos, id string) (*entity.BOM, error) {
	if id == "" {
		return nil, domain.ErrBOMNotFound
	}
	b, err := repos.BOMs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, domain.ErrBOMNotFound
	}
	return b, nil
}

// LoadShared lee la receta con bloqueo compartido dentro de la tx de una corrida, de modo
// que nadie la modifique ni la elimine hasta el commit.
func LoadShared(ctx context.Context, repos repository.Repos, id string) (*entity.BOM, error) {
	if id == "" {
		return nil, domain.ErrBOMNotFound
	}
	b, err := repos.BOMs.GetForShare(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, domain.ErrBOMNotFound
	}
	return b, nil
}

// loadMutable bloquea la receta en exclusiva antes de consultar si alguna corrida la usa.
func loadMutable(ctx context.Context, repos repository.Repos, id string) (*entity.BOM, error) {
	if id == "" {
		return nil, domain.ErrBOMNotFound
	}
	b, err := repos.BOMs.GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, domain.ErrBOMNotFound
	}
	used, err := repos.Productions.ExistsByBOM(ctx, id)
	if err != nil {
		return nil, err
	}
	if used {
		return nil, domain.ErrBOMInUse
	}
	return b, nil
}

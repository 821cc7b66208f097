package assetstore

import (
	"fmt"

	"assetdesk/internal/repository"
	"assetdesk/pkg/apperrors"
	"assetdesk/pkg/models"

	"github.com/doug-martin/goqu/v9"
)

// Store is the asset collaborator consumed by the lifecycle workflows:
// lookups, status transitions and guarded stock counter math.
type Store interface {
	GetAsset(assetID int) (*models.Asset, error)
	UpdateStatus(tx *goqu.TxDatabase, assetID int, status string) error
	UpdateCondition(tx *goqu.TxDatabase, assetID int, condition string) error
	ReserveStock(tx *goqu.TxDatabase, assetID, quantity int) error
	RestoreStock(tx *goqu.TxDatabase, assetID, quantity int) error
}

type AssetRepository struct {
	repo *repository.Repository
}

func NewRepository(r *repository.Repository) *AssetRepository {
	return &AssetRepository{repo: r}
}

func (r *AssetRepository) InsertAsset(asset models.Asset) (int, error) {
	query := r.repo.GoquDBWrapper.Insert("assets").
		Rows(goqu.Record{
			"code":            asset.Code,
			"name":            asset.Name,
			"category":        asset.Category,
			"condition":       asset.Condition,
			"status":          asset.Status,
			"stock_total":     asset.StockTotal,
			"stock_available": asset.StockAvailable,
			"qr_payload":      asset.QRPayload,
		}).
		Returning("id")

	var assetID int
	if _, err := query.Executor().ScanVal(&assetID); err != nil {
		return 0, apperrors.WrapDBError(err)
	}

	return assetID, nil
}

func (r *AssetRepository) ListAssets(status, category string, limit, offset int) ([]models.Asset, error) {
	query := r.repo.GoquDBWrapper.
		From("assets").
		Order(goqu.I("id").Asc()).
		Limit(uint(limit)).
		Offset(uint(offset))

	if status != "" {
		query = query.Where(goqu.Ex{"status": status})
	}
	if category != "" {
		query = query.Where(goqu.Ex{"category": category})
	}

	assets := []models.Asset{}
	if err := query.ScanStructs(&assets); err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}

	return assets, nil
}

func (r *AssetRepository) GetAsset(assetID int) (*models.Asset, error) {
	var asset models.Asset

	found, err := r.repo.GoquDBWrapper.
		From("assets").
		Where(goqu.Ex{"id": assetID}).
		ScanStruct(&asset)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch asset %d: %w", assetID, err)
	}
	if !found {
		return nil, fmt.Errorf("asset %d: %w", assetID, apperrors.ErrNotFound)
	}

	return &asset, nil
}

func (r *AssetRepository) UpdateStatus(tx *goqu.TxDatabase, assetID int, status string) error {
	query := tx.Update("assets").
		Set(goqu.Record{"status": status}).
		Where(goqu.Ex{"id": assetID})

	result, err := query.Executor().Exec()
	if err != nil {
		return fmt.Errorf("failed to update asset %d status: %w", assetID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("asset %d: %w", assetID, apperrors.ErrNotFound)
	}

	return nil
}

func (r *AssetRepository) UpdateCondition(tx *goqu.TxDatabase, assetID int, condition string) error {
	if _, err := tx.Update("assets").
		Set(goqu.Record{"condition": condition}).
		Where(goqu.Ex{"id": assetID}).
		Executor().
		Exec(); err != nil {
		return fmt.Errorf("failed to update asset %d condition: %w", assetID, err)
	}

	return nil
}

// ReserveStock atomically decrements free stock. The quantity guard in the
// WHERE clause is what serializes concurrent borrows; zero rows affected
// means somebody else took the stock first.
func (r *AssetRepository) ReserveStock(tx *goqu.TxDatabase, assetID, quantity int) error {
	result, err := tx.Update("assets").
		Set(goqu.Record{"stock_available": goqu.L("stock_available - ?", quantity)}).
		Where(goqu.Ex{"id": assetID}).
		Where(goqu.C("stock_available").Gte(quantity)).
		Executor().
		Exec()
	if err != nil {
		return fmt.Errorf("failed to reserve stock for asset %d: %w", assetID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewConflict("insufficient stock for asset %d", assetID)
	}

	return nil
}

func (r *AssetRepository) RestoreStock(tx *goqu.TxDatabase, assetID, quantity int) error {
	if _, err := tx.Update("assets").
		Set(goqu.Record{"stock_available": goqu.L("stock_available + ?", quantity)}).
		Where(goqu.Ex{"id": assetID}).
		Executor().
		Exec(); err != nil {
		return fmt.Errorf("failed to restore stock for asset %d: %w", assetID, err)
	}

	return nil
}

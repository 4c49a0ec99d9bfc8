package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/estate-service/internal/domain"
)

// HouseFilter captures public search parameters.
type HouseFilter struct {
	MinPrice     *float64
	MaxPrice     *float64
	Rooms        *int
	Bathrooms    *int
	Floors       *int
	EstateType   *string
	BathroomType *string
	Limit        int
	Offset       int
}

// HouseRepository encapsulates listing persistence. Owner-scoped listing is
// enforced at the query boundary, not post-hoc. Update commits field changes
// and, when requested, the image-row replacement in a single transaction so a
// failed update leaves the prior listing state intact.
type HouseRepository interface {
	Create(ctx context.Context, house *domain.House) error
	Update(ctx context.Context, house *domain.House, replaceImages bool) error
	GetByID(ctx context.Context, id string) (*domain.House, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.House, error)
	Search(ctx context.Context, filter HouseFilter) ([]domain.House, int, error)
	Delete(ctx context.Context, id string) error
}

type houseRepository struct {
	pool *pgxpool.Pool
}

// NewHouseRepository instantiates repository.
func NewHouseRepository(pool *pgxpool.Pool) HouseRepository {
	return &houseRepository{pool: pool}
}

const houseColumns = `id, user_id, address, price, rooms, floors, bathrooms, bathroom_type,
               estate_type, area, about, features, created_at, updated_at`

func (r *houseRepository) Create(ctx context.Context, house *domain.House) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const query = `
        INSERT INTO houses (user_id, address, price, rooms, floors, bathrooms, bathroom_type, estate_type, area, about, features)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id, created_at, updated_at`

	if err := tx.QueryRow(ctx, query,
		house.OwnerID,
		house.Address,
		house.Price,
		house.Rooms,
		house.Floors,
		house.Bathrooms,
		house.BathroomType,
		house.EstateType,
		house.Area,
		house.About,
		house.Features,
	).Scan(&house.ID, &house.CreatedAt, &house.UpdatedAt); err != nil {
		return err
	}

	for i := range house.Images {
		img := &house.Images[i]
		img.HouseID = house.ID
		if err := insertImage(ctx, tx, img); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *houseRepository) Update(ctx context.Context, house *domain.House, replaceImages bool) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const query = `
        UPDATE houses SET address=$1, price=$2, rooms=$3, floors=$4, bathrooms=$5,
            bathroom_type=$6, estate_type=$7, area=$8, about=$9, features=$10, updated_at=NOW()
        WHERE id=$11`

	cmd, err := tx.Exec(ctx, query,
		house.Address,
		house.Price,
		house.Rooms,
		house.Floors,
		house.Bathrooms,
		house.BathroomType,
		house.EstateType,
		house.Area,
		house.About,
		house.Features,
		house.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	if replaceImages {
		if _, err := tx.Exec(ctx, `DELETE FROM house_images WHERE house_id=$1`, house.ID); err != nil {
			return err
		}
		for i := range house.Images {
			img := &house.Images[i]
			img.HouseID = house.ID
			if err := insertImage(ctx, tx, img); err != nil {
				return err
			}
		}
	}

	return tx.Commit(ctx)
}

func (r *houseRepository) GetByID(ctx context.Context, id string) (*domain.House, error) {
	const query = `SELECT ` + houseColumns + ` FROM houses WHERE id=$1`

	var house domain.House
	if err := r.pool.QueryRow(ctx, query, id).Scan(scanTargets(&house)...); err != nil {
		return nil, err
	}
	images, err := r.imagesFor(ctx, []string{house.ID})
	if err != nil {
		return nil, err
	}
	house.Images = images[house.ID]
	return &house, nil
}

func (r *houseRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.House, error) {
	const query = `SELECT ` + houseColumns + ` FROM houses WHERE user_id=$1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	houses, err := scanHouses(rows)
	if err != nil {
		return nil, err
	}
	return r.attachImages(ctx, houses)
}

func (r *houseRepository) Search(ctx context.Context, filter HouseFilter) ([]domain.House, int, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.MinPrice != nil {
		args = append(args, *filter.MinPrice)
		clauses = append(clauses, fmt.Sprintf("price >= $%d", len(args)))
	}
	if filter.MaxPrice != nil {
		args = append(args, *filter.MaxPrice)
		clauses = append(clauses, fmt.Sprintf("price <= $%d", len(args)))
	}
	if filter.Rooms != nil {
		args = append(args, *filter.Rooms)
		clauses = append(clauses, fmt.Sprintf("rooms = $%d", len(args)))
	}
	if filter.Bathrooms != nil {
		args = append(args, *filter.Bathrooms)
		clauses = append(clauses, fmt.Sprintf("bathrooms = $%d", len(args)))
	}
	if filter.Floors != nil {
		args = append(args, *filter.Floors)
		clauses = append(clauses, fmt.Sprintf("floors = $%d", len(args)))
	}
	if filter.EstateType != nil {
		args = append(args, *filter.EstateType)
		clauses = append(clauses, fmt.Sprintf("estate_type = $%d", len(args)))
	}
	if filter.BathroomType != nil {
		args = append(args, *filter.BathroomType)
		clauses = append(clauses, fmt.Sprintf("bathroom_type = $%d", len(args)))
	}

	where := strings.Join(clauses, " AND ")

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM houses WHERE %s`, where)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM houses WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		houseColumns, where, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	houses, err := scanHouses(rows)
	if err != nil {
		return nil, 0, err
	}
	houses, err = r.attachImages(ctx, houses)
	if err != nil {
		return nil, 0, err
	}
	return houses, total, nil
}

func (r *houseRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM houses WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func insertImage(ctx context.Context, tx pgx.Tx, img *domain.HouseImage) error {
	const query = `
        INSERT INTO house_images (house_id, url, storage_key)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return tx.QueryRow(ctx, query, img.HouseID, img.URL, img.StorageKey).
		Scan(&img.ID, &img.CreatedAt)
}

func (r *houseRepository) attachImages(ctx context.Context, houses []domain.House) ([]domain.House, error) {
	if len(houses) == 0 {
		return houses, nil
	}
	ids := make([]string, 0, len(houses))
	for i := range houses {
		ids = append(ids, houses[i].ID)
	}
	byHouse, err := r.imagesFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range houses {
		houses[i].Images = byHouse[houses[i].ID]
	}
	return houses, nil
}

func (r *houseRepository) imagesFor(ctx context.Context, houseIDs []string) (map[string][]domain.HouseImage, error) {
	const query = `
        SELECT id, house_id, url, storage_key, created_at
        FROM house_images WHERE house_id = ANY($1) ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, houseIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string][]domain.HouseImage)
	for rows.Next() {
		var img domain.HouseImage
		if err := rows.Scan(&img.ID, &img.HouseID, &img.URL, &img.StorageKey, &img.CreatedAt); err != nil {
			return nil, err
		}
		result[img.HouseID] = append(result[img.HouseID], img)
	}
	return result, rows.Err()
}

func scanTargets(h *domain.House) []any {
	return []any{
		&h.ID,
		&h.OwnerID,
		&h.Address,
		&h.Price,
		&h.Rooms,
		&h.Floors,
		&h.Bathrooms,
		&h.BathroomType,
		&h.EstateType,
		&h.Area,
		&h.About,
		&h.Features,
		&h.CreatedAt,
		&h.UpdatedAt,
	}
}

func scanHouses(rows pgx.Rows) ([]domain.House, error) {
	var result []domain.House
	for rows.Next() {
		var house domain.House
		if err := rows.Scan(scanTargets(&house)...); err != nil {
			return nil, err
		}
		result = append(result, house)
	}
	return result, rows.Err()
}

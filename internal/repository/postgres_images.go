package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/domain"
)

type PostgresImagesRepo struct {
	db *sql.DB
}

func NewPostgresImagesRepo(db *sql.DB) *PostgresImagesRepo {
	return &PostgresImagesRepo{db: db}
}

const imageColumns = `oid, tenant_id, group_id, camera_id, transaction_id, channel, latitude, longitude, measured_at, base64_image`

func (r *PostgresImagesRepo) SaveImage(ctx context.Context, image *domain.Image) error {
	q := `
		INSERT INTO images (` + imageColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.db.ExecContext(ctx, q,
		image.Oid,
		image.TenantID,
		image.GroupID,
		image.CameraID,
		image.TransactionID,
		string(image.Channel),
		image.Latitude,
		image.Longitude,
		image.MeasuredAt,
		image.Base64Image,
	)
	return err
}

func (r *PostgresImagesRepo) FindImageByOid(ctx context.Context, oid string) (*domain.Image, error) {
	q := `
		SELECT ` + imageColumns + `
		FROM images
		WHERE oid = $1`
	image, err := scanImage(r.db.QueryRowContext(ctx, q, oid))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return image, nil
}

func (r *PostgresImagesRepo) FindImagesByTransactionID(ctx context.Context, transactionID string) ([]domain.Image, error) {
	q := `
		SELECT ` + imageColumns + `
		FROM images
		WHERE transaction_id = $1
		ORDER BY measured_at`
	return r.queryImages(ctx, q, transactionID)
}

func (r *PostgresImagesRepo) FindImagesByTransactionChannelTenant(ctx context.Context, transactionID string, channel domain.ImageChannel, tenantID string) ([]domain.Image, error) {
	q := `
		SELECT ` + imageColumns + `
		FROM images
		WHERE transaction_id = $1 AND channel = $2 AND tenant_id = $3
		ORDER BY measured_at`
	return r.queryImages(ctx, q, transactionID, string(channel), tenantID)
}

func (r *PostgresImagesRepo) FindTransactionIDsWithinTimeFrame(ctx context.Context, tenantID string, from, to time.Time) ([]string, error) {
	q := `
		SELECT DISTINCT transaction_id
		FROM images
		WHERE tenant_id = $1 AND measured_at >= $2 AND measured_at <= $3
		ORDER BY transaction_id`
	rows, err := r.db.QueryContext(ctx, q, tenantID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactionIDs []string
	for rows.Next() {
		var transactionID string
		if err := rows.Scan(&transactionID); err != nil {
			return nil, err
		}
		transactionIDs = append(transactionIDs, transactionID)
	}
	return transactionIDs, rows.Err()
}

func (r *PostgresImagesRepo) FindFirstImageOfTransaction(ctx context.Context, transactionID string) (*domain.Image, error) {
	q := `
		SELECT ` + imageColumns + `
		FROM images
		WHERE transaction_id = $1
		ORDER BY measured_at ASC
		LIMIT 1`
	image, err := scanImage(r.db.QueryRowContext(ctx, q, transactionID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return image, nil
}

func (r *PostgresImagesRepo) queryImages(ctx context.Context, q string, args ...any) ([]domain.Image, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []domain.Image
	for rows.Next() {
		var image domain.Image
		var channel string
		err := rows.Scan(
			&image.Oid,
			&image.TenantID,
			&image.GroupID,
			&image.CameraID,
			&image.TransactionID,
			&channel,
			&image.Latitude,
			&image.Longitude,
			&image.MeasuredAt,
			&image.Base64Image,
		)
		if err != nil {
			return nil, err
		}
		image.Channel = domain.ImageChannel(channel)
		images = append(images, image)
	}
	return images, rows.Err()
}

func scanImage(row *sql.Row) (*domain.Image, error) {
	var image domain.Image
	var channel string
	err := row.Scan(
		&image.Oid,
		&image.TenantID,
		&image.GroupID,
		&image.CameraID,
		&image.TransactionID,
		&channel,
		&image.Latitude,
		&image.Longitude,
		&image.MeasuredAt,
		&image.Base64Image,
	)
	if err != nil {
		return nil, err
	}
	image.Channel = domain.ImageChannel(channel)
	return &image, nil
}

// PostgresStationaryImagesRepo stores stationary captures in their own
// table; they never participate in transactions.
type PostgresStationaryImagesRepo struct {
	db *sql.DB
}

func NewPostgresStationaryImagesRepo(db *sql.DB) *PostgresStationaryImagesRepo {
	return &PostgresStationaryImagesRepo{db: db}
}

func (r *PostgresStationaryImagesRepo) SaveStationaryImage(ctx context.Context, image *domain.StationaryImage) error {
	q := `
		INSERT INTO stationary_images (oid, tenant_id, group_id, camera_id, channel, latitude, longitude, measured_at, base64_image)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.ExecContext(ctx, q,
		image.Oid,
		image.TenantID,
		image.GroupID,
		image.CameraID,
		string(image.Channel),
		image.Latitude,
		image.Longitude,
		image.MeasuredAt,
		image.Base64Image,
	)
	return err
}

func (r *PostgresStationaryImagesRepo) FindStationaryImageByOid(ctx context.Context, oid string) (*domain.StationaryImage, error) {
	q := `
		SELECT oid, tenant_id, group_id, camera_id, channel, latitude, longitude, measured_at, base64_image
		FROM stationary_images
		WHERE oid = $1`
	var image domain.StationaryImage
	var channel string
	err := r.db.QueryRowContext(ctx, q, oid).Scan(
		&image.Oid,
		&image.TenantID,
		&image.GroupID,
		&image.CameraID,
		&channel,
		&image.Latitude,
		&image.Longitude,
		&image.MeasuredAt,
		&image.Base64Image,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	image.Channel = domain.ImageChannel(channel)
	return &image, nil
}

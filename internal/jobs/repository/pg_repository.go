package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/amankumarsingh77/cloud-video-converter/internal/identity"
	"github.com/amankumarsingh77/cloud-video-converter/internal/jobs"
	"github.com/amankumarsingh77/cloud-video-converter/internal/models"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

type jobRow struct {
	PartitionKey     string          `db:"partition_key"`
	RecordKey        string          `db:"record_key"`
	JobID            string          `db:"job_id"`
	OwnerKey         string          `db:"owner_key"`
	OwnerEmail       sql.NullString  `db:"owner_email"`
	OriginalFilename string          `db:"original_filename"`
	SourceLocation   string          `db:"source_location"`
	Status           string          `db:"status"`
	Progress         int             `db:"progress"`
	OutputFormat     string          `db:"output_format"`
	Width            sql.NullInt64   `db:"width"`
	Height           sql.NullInt64   `db:"height"`
	VideoCodec       sql.NullString  `db:"video_codec"`
	AudioCodec       sql.NullString  `db:"audio_codec"`
	FPS              sql.NullFloat64 `db:"fps"`
	Duration         sql.NullFloat64 `db:"duration"`
	Bitrate          sql.NullInt64   `db:"bitrate"`
	OriginalSize     sql.NullInt64   `db:"original_size"`
	UploadedAt       sql.NullTime    `db:"uploaded_at"`
	OutputSize       sql.NullInt64   `db:"output_size"`
	OutputLocation   sql.NullString  `db:"output_location"`
	CompletedAt      sql.NullTime    `db:"completed_at"`
	ErrorMessage     sql.NullString  `db:"error_message"`
	CreatedAt        time.Time       `db:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at"`
}

func (r *jobRow) toModel() *models.Job {
	job := &models.Job{
		PartitionKey:     r.PartitionKey,
		RecordKey:        r.RecordKey,
		JobID:            r.JobID,
		OwnerKey:         r.OwnerKey,
		OwnerEmail:       r.OwnerEmail.String,
		OriginalFilename: r.OriginalFilename,
		SourceLocation:   r.SourceLocation,
		Status:           models.JobStatus(r.Status),
		Progress:         r.Progress,
		OutputFormat:     models.Format(r.OutputFormat),
		OriginalSize:     int64Ptr(r.OriginalSize),
		UploadedAt:       timePtr(r.UploadedAt),
		OutputSize:       int64Ptr(r.OutputSize),
		OutputLocation:   r.OutputLocation.String,
		CompletedAt:      timePtr(r.CompletedAt),
		ErrorMessage:     r.ErrorMessage.String,
		CreatedAt:        r.CreatedAt.UTC(),
		UpdatedAt:        r.UpdatedAt.UTC(),
	}
	if r.Width.Valid {
		w := int(r.Width.Int64)
		job.Width = &w
	}
	if r.Height.Valid {
		h := int(r.Height.Int64)
		job.Height = &h
	}
	job.VideoCodec = stringPtr(r.VideoCodec)
	job.AudioCodec = stringPtr(r.AudioCodec)
	job.FPS = float64Ptr(r.FPS)
	job.Duration = float64Ptr(r.Duration)
	job.Bitrate = int64Ptr(r.Bitrate)
	return job
}

type pgRepository struct {
	db           *sqlx.DB
	partitionKey string
}

func NewPgRepository(db *sqlx.DB, partitionKey string) jobs.Repository {
	return &pgRepository{
		db:           db,
		partitionKey: partitionKey,
	}
}

func (r *pgRepository) Create(ctx context.Context, job *models.Job) error {
	recordKey := identity.RecordKey(job.OwnerKey, job.JobID)
	res, err := r.db.ExecContext(
		ctx,
		createJobQuery,
		r.partitionKey,
		recordKey,
		job.JobID,
		job.OwnerKey,
		job.OwnerEmail,
		job.OriginalFilename,
		job.SourceLocation,
		string(job.Status),
		job.Progress,
		string(job.OutputFormat),
		nullInt64(job.OriginalSize),
		nullTime(job.UploadedAt),
		job.CreatedAt,
		job.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "pgRepository.Create.ExecContext")
	}
	count, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "pgRepository.Create.RowsAffected")
	}
	if count == 0 {
		return errors.Wrapf(jobs.ErrDuplicateJob, "record %s", recordKey)
	}
	job.PartitionKey = r.partitionKey
	job.RecordKey = recordKey
	return nil
}

func (r *pgRepository) Patch(ctx context.Context, ownerKey, jobID string, patch *models.JobPatch) error {
	if patch.IsEmpty() {
		return nil
	}
	var media models.MediaInfo
	if patch.Media != nil {
		media = *patch.Media
	}
	var status sql.NullString
	if patch.Status != nil {
		status = sql.NullString{String: string(*patch.Status), Valid: true}
	}
	var progress sql.NullInt64
	if patch.Progress != nil {
		progress = sql.NullInt64{Int64: int64(*patch.Progress), Valid: true}
	}
	res, err := r.db.ExecContext(
		ctx,
		patchJobQuery,
		r.partitionKey,
		identity.RecordKey(ownerKey, jobID),
		status,
		progress,
		nullInt(media.Width),
		nullInt(media.Height),
		nullString(media.VideoCodec),
		nullString(media.AudioCodec),
		nullFloat64(media.FPS),
		nullFloat64(media.Duration),
		nullInt64(media.Bitrate),
		nullInt64(patch.OriginalSize),
		nullTime(patch.UploadedAt),
		nullInt64(patch.OutputSize),
		nullString(patch.OutputLocation),
		nullTime(patch.CompletedAt),
		nullString(patch.ErrorMessage),
		time.Now().UTC(),
	)
	if err != nil {
		return errors.Wrap(err, "pgRepository.Patch.ExecContext")
	}
	count, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "pgRepository.Patch.RowsAffected")
	}
	if count == 0 {
		return jobs.ErrNotFound
	}
	return nil
}

func (r *pgRepository) Get(ctx context.Context, ownerKey, jobID string) (*models.Job, error) {
	row := &jobRow{}
	if err := r.db.QueryRowxContext(
		ctx,
		getJobQuery,
		r.partitionKey,
		identity.RecordKey(ownerKey, jobID),
	).StructScan(row); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, jobs.ErrNotFound
		}
		return nil, errors.Wrap(err, "pgRepository.Get.StructScan")
	}
	return row.toModel(), nil
}

func (r *pgRepository) ListByOwner(ctx context.Context, ownerKey string) ([]*models.Job, error) {
	prefix := identity.OwnerPrefix(ownerKey)
	rows, err := r.db.QueryxContext(
		ctx,
		listJobsByOwnerQuery,
		r.partitionKey,
		prefix,
		identity.PrefixUpperBound(prefix),
	)
	if err != nil {
		return nil, errors.Wrap(err, "pgRepository.ListByOwner.QueryxContext")
	}
	defer rows.Close()

	list := make([]*models.Job, 0)
	for rows.Next() {
		row := &jobRow{}
		if err = rows.StructScan(row); err != nil {
			return nil, errors.Wrap(err, "pgRepository.ListByOwner.StructScan")
		}
		list = append(list, row.toModel())
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "pgRepository.ListByOwner.rows.Err")
	}
	return list, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}

func nullInt64(i *int64) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *i, Valid: true}
}

func nullFloat64(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

func int64Ptr(i sql.NullInt64) *int64 {
	if !i.Valid {
		return nil
	}
	return &i.Int64
}

func float64Ptr(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	return &f.Float64
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	utc := t.Time.UTC()
	return &utc
}

package repository

import (
	"context"
	"sync"
	"time"

	"github.com/amankumarsingh77/cloud-video-converter/internal/identity"
	"github.com/amankumarsingh77/cloud-video-converter/internal/jobs"
	"github.com/amankumarsingh77/cloud-video-converter/internal/models"
	"github.com/cockroachdb/pebble"
	"github.com/pkg/errors"
)

const pebbleKeySeparator = "|"

// pebbleRepository stores records in an embedded ordered key space under
// <partition>|<recordKey>. Writes are serialized by mu, which makes the
// read-modify-write in Patch safe within one process.
type pebbleRepository struct {
	db           *pebble.DB
	partitionKey string
	mu           sync.Mutex
}

func NewPebbleRepository(db *pebble.DB, partitionKey string) jobs.Repository {
	return &pebbleRepository{
		db:           db,
		partitionKey: partitionKey,
	}
}

func (r *pebbleRepository) key(recordKey string) []byte {
	return []byte(r.partitionKey + pebbleKeySeparator + recordKey)
}

func (r *pebbleRepository) read(key []byte) (*models.Job, error) {
	data, closer, err := r.db.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, jobs.ErrNotFound
		}
		return nil, err
	}
	defer closer.Close()
	return decodeJob(data)
}

func (r *pebbleRepository) Create(ctx context.Context, job *models.Job) error {
	recordKey := identity.RecordKey(job.OwnerKey, job.JobID)
	key := r.key(recordKey)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.read(key); err == nil {
		return errors.Wrapf(jobs.ErrDuplicateJob, "record %s", recordKey)
	} else if !errors.Is(err, jobs.ErrNotFound) {
		return errors.Wrap(err, "pebbleRepository.Create.read")
	}
	data, err := encodeJob(r.partitionKey, recordKey, job)
	if err != nil {
		return errors.Wrap(err, "pebbleRepository.Create.encodeJob")
	}
	if err = r.db.Set(key, data, pebble.Sync); err != nil {
		return errors.Wrap(err, "pebbleRepository.Create.Set")
	}
	job.PartitionKey = r.partitionKey
	job.RecordKey = recordKey
	return nil
}

func (r *pebbleRepository) Patch(ctx context.Context, ownerKey, jobID string, patch *models.JobPatch) error {
	if patch.IsEmpty() {
		return nil
	}
	recordKey := identity.RecordKey(ownerKey, jobID)
	key := r.key(recordKey)

	r.mu.Lock()
	defer r.mu.Unlock()

	job, err := r.read(key)
	if err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			return err
		}
		return errors.Wrap(err, "pebbleRepository.Patch.read")
	}
	patch.Apply(job, time.Now())
	data, err := encodeJob(r.partitionKey, recordKey, job)
	if err != nil {
		return errors.Wrap(err, "pebbleRepository.Patch.encodeJob")
	}
	if err = r.db.Set(key, data, pebble.Sync); err != nil {
		return errors.Wrap(err, "pebbleRepository.Patch.Set")
	}
	return nil
}

func (r *pebbleRepository) Get(ctx context.Context, ownerKey, jobID string) (*models.Job, error) {
	job, err := r.read(r.key(identity.RecordKey(ownerKey, jobID)))
	if err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			return nil, err
		}
		return nil, errors.Wrap(err, "pebbleRepository.Get")
	}
	return job, nil
}

func (r *pebbleRepository) ListByOwner(ctx context.Context, ownerKey string) ([]*models.Job, error) {
	prefix := r.key(identity.OwnerPrefix(ownerKey))
	opts := &pebble.IterOptions{LowerBound: prefix}
	if upper := identity.PrefixUpperBound(string(prefix)); upper != "" {
		opts.UpperBound = []byte(upper)
	}
	iter, err := r.db.NewIter(opts)
	if err != nil {
		return nil, errors.Wrap(err, "pebbleRepository.ListByOwner.NewIter")
	}
	defer iter.Close()

	list := make([]*models.Job, 0)
	for iter.First(); iter.Valid(); iter.Next() {
		job, err := decodeJob(iter.Value())
		if err != nil {
			return nil, errors.Wrapf(err, "pebbleRepository.ListByOwner.decodeJob %s", iter.Key())
		}
		list = append(list, job)
	}
	if err = iter.Error(); err != nil {
		return nil, errors.Wrap(err, "pebbleRepository.ListByOwner.iter")
	}
	sortMostRecentFirst(list)
	return list, nil
}

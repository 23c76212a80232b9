package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/amankumarsingh77/cloud-video-converter/internal/identity"
	"github.com/amankumarsingh77/cloud-video-converter/internal/jobs"
	"github.com/amankumarsingh77/cloud-video-converter/internal/models"
	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

const (
	recordKeyPrefix  = "jobrec"
	indexKeyPrefix   = "jobidx"
	maxPatchAttempts = 5
)

// createJobScript stores the record and its index entry in one step, so a
// record never exists without being listable. The index entry goes first
// since a script that fails part way is not rolled back, and an index member
// without a record is skipped on list.
var createJobScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
	return 0
end
redis.call("ZADD", KEYS[2], 0, ARGV[2])
redis.call("SET", KEYS[1], ARGV[1])
return 1
`)

// redisRepository keeps each record as a JSON string and indexes record keys
// in a sorted set with equal scores, so ZRANGEBYLEX gives the prefix range.
type redisRepository struct {
	redisClient  *redis.Client
	partitionKey string
}

func NewRedisRepository(redisClient *redis.Client, partitionKey string) jobs.Repository {
	return &redisRepository{
		redisClient:  redisClient,
		partitionKey: partitionKey,
	}
}

func (r *redisRepository) recordKey(recordKey string) string {
	return fmt.Sprintf("%s:%s:%s", recordKeyPrefix, r.partitionKey, recordKey)
}

func (r *redisRepository) indexKey() string {
	return fmt.Sprintf("%s:%s", indexKeyPrefix, r.partitionKey)
}

func (r *redisRepository) Create(ctx context.Context, job *models.Job) error {
	recordKey := identity.RecordKey(job.OwnerKey, job.JobID)
	data, err := encodeJob(r.partitionKey, recordKey, job)
	if err != nil {
		return errors.Wrap(err, "redisRepository.Create.encodeJob")
	}
	created, err := createJobScript.Run(ctx, r.redisClient,
		[]string{r.recordKey(recordKey), r.indexKey()}, data, recordKey).Int()
	if err != nil {
		return errors.Wrap(err, "redisRepository.Create.createJobScript")
	}
	if created == 0 {
		return errors.Wrapf(jobs.ErrDuplicateJob, "record %s", recordKey)
	}
	job.PartitionKey = r.partitionKey
	job.RecordKey = recordKey
	return nil
}

func (r *redisRepository) Patch(ctx context.Context, ownerKey, jobID string, patch *models.JobPatch) error {
	if patch.IsEmpty() {
		return nil
	}
	recordKey := identity.RecordKey(ownerKey, jobID)
	key := r.recordKey(recordKey)

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return jobs.ErrNotFound
			}
			return err
		}
		job, err := decodeJob(data)
		if err != nil {
			return err
		}
		patch.Apply(job, time.Now())
		updated, err := encodeJob(r.partitionKey, recordKey, job)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, 0)
			return nil
		})
		return err
	}

	for i := 0; i < maxPatchAttempts; i++ {
		err := r.redisClient.Watch(ctx, txf, key)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if errors.Is(err, jobs.ErrNotFound) {
			return err
		}
		return errors.Wrap(err, "redisRepository.Patch.Watch")
	}
	return errors.Errorf("redisRepository.Patch: record %s changed concurrently %d times", recordKey, maxPatchAttempts)
}

func (r *redisRepository) Get(ctx context.Context, ownerKey, jobID string) (*models.Job, error) {
	data, err := r.redisClient.Get(ctx, r.recordKey(identity.RecordKey(ownerKey, jobID))).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, jobs.ErrNotFound
		}
		return nil, errors.Wrap(err, "redisRepository.Get")
	}
	job, err := decodeJob(data)
	if err != nil {
		return nil, errors.Wrap(err, "redisRepository.Get.decodeJob")
	}
	return job, nil
}

func (r *redisRepository) ListByOwner(ctx context.Context, ownerKey string) ([]*models.Job, error) {
	prefix := identity.OwnerPrefix(ownerKey)
	maxBound := "+"
	if upper := identity.PrefixUpperBound(prefix); upper != "" {
		maxBound = "(" + upper
	}
	members, err := r.redisClient.ZRangeByLex(ctx, r.indexKey(), &redis.ZRangeBy{
		Min: "[" + prefix,
		Max: maxBound,
	}).Result()
	if err != nil {
		return nil, errors.Wrap(err, "redisRepository.ListByOwner.ZRangeByLex")
	}
	list := make([]*models.Job, 0, len(members))
	if len(members) == 0 {
		return list, nil
	}

	keys := make([]string, len(members))
	for i, member := range members {
		keys[i] = r.recordKey(member)
	}
	values, err := r.redisClient.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, errors.Wrap(err, "redisRepository.ListByOwner.MGet")
	}
	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			continue
		}
		job, err := decodeJob([]byte(raw))
		if err != nil {
			return nil, errors.Wrapf(err, "redisRepository.ListByOwner.decodeJob %s", members[i])
		}
		list = append(list, job)
	}
	sortMostRecentFirst(list)
	return list, nil
}

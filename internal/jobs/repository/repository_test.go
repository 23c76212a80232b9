package repository

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/amankumarsingh77/cloud-video-converter/internal/jobs"
	"github.com/amankumarsingh77/cloud-video-converter/internal/models"
	pebbledb "github.com/amankumarsingh77/cloud-video-converter/pkg/db/pebble"
	"github.com/go-redis/redis/v8"
	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/jmoiron/sqlx"
)

const testPartition = "video-converter"

func newJob(owner, jobID string, createdAt time.Time) *models.Job {
	return &models.Job{
		JobID:            jobID,
		OwnerKey:         owner,
		OriginalFilename: "in.mov",
		SourceLocation:   "s3://bucket/in.mov",
		Status:           models.JobStatusQueued,
		Progress:         models.ProgressQueued,
		OutputFormat:     models.FormatWebM,
		CreatedAt:        createdAt.UTC(),
		UpdatedAt:        createdAt.UTC(),
	}
}

// runRepositoryContract exercises the behavior every metadata store must share.
func runRepositoryContract(t *testing.T, repo jobs.Repository) {
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("create and get", func(t *testing.T) {
		job := newJob("alice", "j-1", base)
		if err := repo.Create(ctx, job); err != nil {
			t.Fatalf("Create: %v", err)
		}
		if job.RecordKey != "alice#j-1" || job.PartitionKey != testPartition {
			t.Fatalf("keys not set: %q %q", job.PartitionKey, job.RecordKey)
		}
		got, err := repo.Get(ctx, "alice", "j-1")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.Status != models.JobStatusQueued || got.OutputFormat != models.FormatWebM {
			t.Fatalf("unexpected record: %+v", got)
		}
		if got.Width != nil {
			t.Fatalf("media must be nil before probe")
		}
	})

	t.Run("duplicate create", func(t *testing.T) {
		err := repo.Create(ctx, newJob("alice", "j-1", base))
		if !errors.Is(err, jobs.ErrDuplicateJob) {
			t.Fatalf("Create duplicate error = %v, want ErrDuplicateJob", err)
		}
	})

	t.Run("patch merges and keeps progress monotonic", func(t *testing.T) {
		if err := repo.Patch(ctx, "alice", "j-1", models.NewPatch().SetStage(models.JobStatusProcessing, models.ProgressProcessing)); err != nil {
			t.Fatalf("Patch processing: %v", err)
		}
		if err := repo.Patch(ctx, "alice", "j-1", models.NewPatch().SetProgress(models.ProgressDownloading)); err != nil {
			t.Fatalf("Patch lower progress: %v", err)
		}
		width, codec := 1280, "vp9"
		if err := repo.Patch(ctx, "alice", "j-1", models.NewPatch().SetMedia(models.MediaInfo{Width: &width, VideoCodec: &codec})); err != nil {
			t.Fatalf("Patch media: %v", err)
		}
		got, err := repo.Get(ctx, "alice", "j-1")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.Status != models.JobStatusProcessing || got.Progress != models.ProgressProcessing {
			t.Fatalf("got %s/%d, want processing/%d", got.Status, got.Progress, models.ProgressProcessing)
		}
		if got.Width == nil || *got.Width != 1280 || got.VideoCodec == nil || *got.VideoCodec != "vp9" {
			t.Fatalf("media not merged: %+v", got.MediaInfo)
		}
		if got.Height != nil {
			t.Fatalf("height should stay nil")
		}
		if got.JobID != "j-1" || got.OwnerKey != "alice" {
			t.Fatalf("key fields changed: %+v", got)
		}
	})

	t.Run("patch missing record", func(t *testing.T) {
		err := repo.Patch(ctx, "alice", "missing", models.NewPatch().SetStatus(models.JobStatusDone))
		if !errors.Is(err, jobs.ErrNotFound) {
			t.Fatalf("Patch missing error = %v, want ErrNotFound", err)
		}
		if err = repo.Patch(ctx, "alice", "missing", models.NewPatch()); err != nil {
			t.Fatalf("empty patch should be a no-op, got %v", err)
		}
	})

	t.Run("prefix isolation with colliding ids", func(t *testing.T) {
		for _, job := range []*models.Job{
			newJob("alice", "j-2", base.Add(time.Minute)),
			newJob("alice2", "j-1", base.Add(2*time.Minute)),
			newJob("al", "j-1", base.Add(3*time.Minute)),
		} {
			if err := repo.Create(ctx, job); err != nil {
				t.Fatalf("Create %s: %v", job.OwnerKey, err)
			}
		}

		list, err := repo.ListByOwner(ctx, "alice")
		if err != nil {
			t.Fatalf("ListByOwner: %v", err)
		}
		if len(list) != 2 {
			t.Fatalf("len(list) = %d, want 2", len(list))
		}
		for _, job := range list {
			if job.OwnerKey != "alice" {
				t.Fatalf("leaked record of %q", job.OwnerKey)
			}
		}
		if list[0].JobID != "j-2" || list[1].JobID != "j-1" {
			t.Fatalf("order = %s, %s; want most recent first", list[0].JobID, list[1].JobID)
		}

		if _, err = repo.Get(ctx, "al", "j-2"); !errors.Is(err, jobs.ErrNotFound) {
			t.Fatalf("cross-owner Get error = %v, want ErrNotFound", err)
		}
	})

	t.Run("empty list", func(t *testing.T) {
		list, err := repo.ListByOwner(ctx, "nobody")
		if err != nil {
			t.Fatalf("ListByOwner: %v", err)
		}
		if list == nil || len(list) != 0 {
			t.Fatalf("list = %v, want empty non-nil", list)
		}
	})
}

func TestPebbleRepository(t *testing.T) {
	db, err := pebbledb.NewInMemoryDB()
	if err != nil {
		t.Fatalf("NewInMemoryDB: %v", err)
	}
	defer db.Close()

	runRepositoryContract(t, NewPebbleRepository(db, testPartition))
}

func TestPebbleRepositoryPartitionsDoNotMix(t *testing.T) {
	db, err := pebbledb.NewInMemoryDB()
	if err != nil {
		t.Fatalf("NewInMemoryDB: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	a := NewPebbleRepository(db, "tenant-a")
	b := NewPebbleRepository(db, "tenant-b")
	if err = a.Create(ctx, newJob("alice", "j-1", time.Now())); err != nil {
		t.Fatalf("Create: %v", err)
	}
	list, err := b.ListByOwner(ctx, "alice")
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("partition leak: %d records", len(list))
	}
}

func TestRedisRepository(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { client.Close() })

	partition := testPartition + "-" + time.Now().Format("150405.000000")
	t.Cleanup(func() {
		ctx := context.Background()
		keys, _ := client.Keys(ctx, "*"+partition+"*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
	})
	runRepositoryContractWithPartition(t, NewRedisRepository(client, partition), partition)
}

func TestRedisCreateLeavesNoUnindexedRecord(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { client.Close() })

	ctx := context.Background()
	partition := testPartition + "-idx-" + time.Now().Format("150405.000000")
	t.Cleanup(func() {
		keys, _ := client.Keys(ctx, "*"+partition+"*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
	})
	repo := NewRedisRepository(client, partition)

	// An index key of the wrong type makes the index write fail.
	indexKey := indexKeyPrefix + ":" + partition
	if err := client.Set(ctx, indexKey, "not-a-zset", 0).Err(); err != nil {
		t.Fatalf("seed index: %v", err)
	}
	if err := repo.Create(ctx, newJob("alice", "j1", time.Now())); err == nil {
		t.Fatal("Create must fail when the index cannot be written")
	}
	if _, err := repo.Get(ctx, "alice", "j1"); !errors.Is(err, jobs.ErrNotFound) {
		t.Fatalf("record stranded outside the index: Get err = %v", err)
	}

	client.Del(ctx, indexKey)
	if err := repo.Create(ctx, newJob("alice", "j1", time.Now())); err != nil {
		t.Fatalf("retry Create: %v", err)
	}
	list, err := repo.ListByOwner(ctx, "alice")
	if err != nil || len(list) != 1 {
		t.Fatalf("ListByOwner = %d records, %v", len(list), err)
	}
}

func TestPgRepository(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	partition := testPartition + "-" + time.Now().Format("150405.000000")
	t.Cleanup(func() {
		db.Exec(`DELETE FROM job_records WHERE partition_key = $1`, partition)
	})
	runRepositoryContractWithPartition(t, NewPgRepository(db, partition), partition)
}

// runRepositoryContractWithPartition runs the contract against a store shared
// with other test runs, where the partition value is unique per run.
func runRepositoryContractWithPartition(t *testing.T, repo jobs.Repository, partition string) {
	t.Helper()
	runRepositoryContract(t, partitionOverride{Repository: repo, partition: partition})
}

// partitionOverride rewrites the partition key reported on created jobs back
// to testPartition so the shared assertions hold.
type partitionOverride struct {
	jobs.Repository
	partition string
}

func (p partitionOverride) Create(ctx context.Context, job *models.Job) error {
	if err := p.Repository.Create(ctx, job); err != nil {
		return err
	}
	if job.PartitionKey == p.partition {
		job.PartitionKey = testPartition
	}
	return nil
}

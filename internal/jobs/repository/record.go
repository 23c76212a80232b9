package repository

import (
	"encoding/json"
	"sort"

	"github.com/amankumarsingh77/cloud-video-converter/internal/models"
)

// storedJob is the document form used by the key/value stores. The key fields
// are persisted alongside the job so a raw dump stays self-describing.
type storedJob struct {
	PartitionKey string `json:"partition_key"`
	RecordKey    string `json:"record_key"`
	*models.Job
}

func encodeJob(partitionKey, recordKey string, job *models.Job) ([]byte, error) {
	return json.Marshal(storedJob{
		PartitionKey: partitionKey,
		RecordKey:    recordKey,
		Job:          job,
	})
}

func decodeJob(data []byte) (*models.Job, error) {
	doc := storedJob{Job: &models.Job{}}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	doc.Job.PartitionKey = doc.PartitionKey
	doc.Job.RecordKey = doc.RecordKey
	return doc.Job, nil
}

// sortMostRecentFirst orders by created_at desc, ties by job id desc.
func sortMostRecentFirst(list []*models.Job) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].JobID > list[j].JobID
	})
}

package repository

const (
	jobColumns = `partition_key, record_key, job_id, owner_key, owner_email, original_filename, source_location,
					status, progress, output_format, width, height, video_codec, audio_codec, fps, duration, bitrate,
					original_size, uploaded_at, output_size, output_location, completed_at, error_message,
					created_at, updated_at`

	createJobQuery = `INSERT INTO job_records (partition_key, record_key, job_id, owner_key, owner_email, original_filename,
					source_location, status, progress, output_format, original_size, uploaded_at, created_at, updated_at)
					VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9, $10, $11, $12, $13, $14)
					ON CONFLICT (partition_key, record_key) DO NOTHING`

	getJobQuery = `SELECT ` + jobColumns + ` FROM job_records
					WHERE partition_key = $1 AND record_key = $2`

	listJobsByOwnerQuery = `SELECT ` + jobColumns + ` FROM job_records
					WHERE partition_key = $1 AND record_key COLLATE "C" >= $2 AND record_key COLLATE "C" < $3
					ORDER BY created_at DESC, job_id DESC`

	patchJobQuery = `UPDATE job_records
					SET status = COALESCE($3, status),
					    progress = GREATEST(progress, COALESCE($4, progress)),
					    width = COALESCE($5, width),
					    height = COALESCE($6, height),
					    video_codec = COALESCE($7, video_codec),
					    audio_codec = COALESCE($8, audio_codec),
					    fps = COALESCE($9, fps),
					    duration = COALESCE($10, duration),
					    bitrate = COALESCE($11, bitrate),
					    original_size = COALESCE($12, original_size),
					    uploaded_at = COALESCE($13, uploaded_at),
					    output_size = COALESCE($14, output_size),
					    output_location = COALESCE($15, output_location),
					    completed_at = COALESCE($16, completed_at),
					    error_message = COALESCE($17, error_message),
					    updated_at = $18
					WHERE partition_key = $1 AND record_key = $2`
)

package consts

// Database table names
const (
	DBJobs = "jobs"
)

// Jobs table columns
const (
	QJobID         = "id"
	QJobUserID     = "user_id"
	QJobSourceURL  = "source_url"
	QJobSource     = "source"
	QJobKind       = "kind"
	QJobStatus     = "status"
	QJobProgress   = "progress"
	QJobMessage    = "message"
	QJobMetaTitle  = "meta_title"
	QJobMetaArtist = "meta_artist"
	QJobMetaAlbum  = "meta_album"
	QJobMetaTracks = "meta_track_count"
	QJobFiles      = "files"
	QJobResultURL  = "result_url"
	QJobExpiresAt  = "expires_at"
	QJobError      = "error"
	QJobCreatedAt  = "created_at"
	QJobUpdatedAt  = "updated_at"
)

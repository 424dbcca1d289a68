package models

import "time"

// DataFile represents a downloadable file record from the portal API.
type DataFile struct {
	ID                string    `json:"id"`
	ObjectURL         string    `json:"object_url"`
	TrialID           string    `json:"trial_id"`
	FileName          string    `json:"file_name"`
	FileSizeBytes     int64     `json:"file_size_bytes"`
	DataFormat        string    `json:"data_format"`
	DataCategory      string    `json:"data_category"`
	UploadedTimestamp time.Time `json:"uploaded_timestamp"`
}

// FileListResponse is the paginated envelope for the downloadable_files endpoint.
type FileListResponse struct {
	Count   int        `json:"count"`
	Results []DataFile `json:"results"`
}

// ManifestRequest is the body for manifest generation.
type ManifestRequest struct {
	FileIDs []string `json:"file_ids"`
}

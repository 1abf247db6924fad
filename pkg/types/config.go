package types

import "time"

// ExtractConfig holds settings for the extraction stage.
type ExtractConfig struct {
	// InputDir is the directory scanned for .enex files.
	InputDir string `json:"input_dir" yaml:"input_dir"`

	// OutputDir is the root under which one directory per notebook is
	// created.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// LogFile is the path of the aggregate extraction log JSON document.
	LogFile string `json:"log_file" yaml:"log_file"`

	// PreserveNames suppresses the random identifier prefix on artifact
	// names. Colliding titles then rely on the path resolver's suffixing.
	PreserveNames bool `json:"preserve_names" yaml:"preserve_names"`
}

// UploadConfig holds settings for the Google Drive upload stage.
type UploadConfig struct {
	// CredentialsFile is the OAuth client secrets JSON obtained from the
	// Google API console.
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file"`

	// TokenFile caches the OAuth token between runs.
	TokenFile string `json:"token_file" yaml:"token_file"`

	// Timeout bounds each upload request.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// IndexConfig holds settings for the audit index stage.
type IndexConfig struct {
	// LogFile is the extraction log to ingest.
	LogFile string `json:"log_file" yaml:"log_file"`

	// DBFile is the SQLite database path.
	DBFile string `json:"db_file" yaml:"db_file"`

	// MaxResults caps query results (default 50).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Extract ExtractConfig `json:"extract" yaml:"extract"`
	Upload  UploadConfig  `json:"upload" yaml:"upload"`
	Index   IndexConfig   `json:"index" yaml:"index"`
}

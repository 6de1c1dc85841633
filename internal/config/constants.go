package config

const (
	// DefaultDatabasePath is where export history and the task queue live.
	DefaultDatabasePath = "./csvexport.db"

	// DefaultExportDir receives files written by background and snapshot exports.
	DefaultExportDir = "./exports"

	// DefaultLoadingClass is reported while an export is building.
	DefaultLoadingClass = "csv-loading"
)

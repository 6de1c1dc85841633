// Package database opens the SQLite export history store.
//
//	database/
//	├── database.go      # Connection setup and migrations
//	└── audit/           # Export event history
//
// Sub-packages expose a Repository built on the shared *gorm.DB:
//
//	db, err := database.NewDatabase("./csvexport.db")
//	history := audit.NewRepository(db.DB)
package database

package db

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrations holds the embedded schema scripts, one per schema version.
var Migrations fs.FS

func init() {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		panic(err)
	}
	Migrations = sub
}

// Migrate runs the *.sql scripts of fsys that are newer than the database's
// user_version, in lexical order, inside one transaction. The number of
// scripts is the schema version.
func Migrate(db *sql.DB, fsys fs.FS) (err error) {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var oldVer int
	if err := tx.QueryRow("PRAGMA user_version").Scan(&oldVer); err != nil {
		return fmt.Errorf("get version: %w", err)
	}

	scripts, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return fmt.Errorf("list scripts: %w", err)
	}
	currVer := len(scripts)
	if oldVer >= currVer {
		return tx.Commit()
	}

	sort.Strings(scripts)
	for _, script := range scripts[oldVer:] {
		buf, err := fs.ReadFile(fsys, script)
		if err != nil {
			return fmt.Errorf("read %s: %w", script, err)
		}
		if _, err := tx.Exec(string(buf)); err != nil {
			return fmt.Errorf("execute %s: %w", script, err)
		}
	}

	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", currVer)); err != nil {
		return fmt.Errorf("set version: %w", err)
	}
	return tx.Commit()
}

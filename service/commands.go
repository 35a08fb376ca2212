package service

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"postboard/app/config"
	"postboard/app/repositories"
)

// HandleDBCommand handles db subcommands and returns an exit code.
func HandleDBCommand(args []string) int {
	if len(args) < 1 {
		printDBHelp()
		osExit(1)
		return 1
	}

	cmd := args[0]
	if cmd == "help" {
		printDBHelp()
		return 0
	}

	fs, cfgPath := newFlagSet("db " + cmd)
	if err := fs.Parse(args[1:]); err != nil {
		osExit(2)
		return 2
	}
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		osExit(1)
		return 1
	}
	dbPath := cfg.Database.Path

	switch cmd {
	case "clean":
		clean(dbPath)
		return 0
	case "init":
		initDb(dbPath)
		return 0
	case "backup":
		backup(dbPath, backupDir(dbPath))
		return 0
	case "restore":
		if fs.NArg() < 1 {
			fmt.Println("Error: backup file path required for restore")
			osExit(1)
			return 1
		}
		return restore(dbPath, fs.Arg(0))
	default:
		fmt.Printf("Unknown db command: %s\n\n", cmd)
		printDBHelp()
		osExit(1)
		return 1
	}
}

// printDBHelp prints help for db subcommands.
func printDBHelp() {
	helpText := `Usage: postboard db <command> [--config <file>]

Commands:
  init                            Initialize a new empty database
  clean                           Remove the post database
  backup                          Create a backup of the database
  restore <file>                  Restore database from backup
  help                            Display this help message
`
	fmt.Println(helpText)
}

// backupDir places backups next to the database directory.
func backupDir(dbPath string) string {
	return filepath.Join(filepath.Dir(filepath.Clean(dbPath)), "backups")
}

// clean removes the database.
func clean(dbPath string) {
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Println("Database is already clean (does not exist)")
		return
	}

	fmt.Print("Are you sure you want to clean the database? This cannot be undone. [y/N] ")
	var response string
	fmt.Scanln(&response)
	if response != "y" && response != "Y" {
		fmt.Println("Operation cancelled")
		return
	}

	if err := os.RemoveAll(dbPath); err != nil {
		fmt.Printf("Failed to clean database: %v\n", err)
		return
	}
	fmt.Println("Database cleaned successfully")
}

// initDb initializes a new empty database.
func initDb(dbPath string) {
	if _, err := os.Stat(dbPath); err == nil {
		fmt.Println("Database already exists. Use 'clean' first if you want to reinitialize.")
		return
	}

	if err := os.MkdirAll(dbPath, 0755); err != nil {
		fmt.Printf("Failed to create database directory: %v\n", err)
		return
	}

	db, err := repositories.OpenDB(dbPath)
	if err != nil {
		fmt.Printf("Failed to initialize database: %v\n", err)
		return
	}
	defer db.Close()

	fmt.Println("Database initialized successfully")
}

// backup writes a full backup of the database into dir and returns its
// path, or "" on failure.
func backup(dbPath, dir string) string {
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Println("No database exists to backup")
		return ""
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		fmt.Printf("Failed to create backup directory: %v\n", err)
		return ""
	}

	db, err := repositories.OpenDB(dbPath)
	if err != nil {
		fmt.Printf("Failed to open database: %v\n", err)
		return ""
	}
	defer db.Close()

	backupFile := filepath.Join(dir, fmt.Sprintf("backup_%d.db", time.Now().UnixNano()))
	f, err := os.Create(backupFile)
	if err != nil {
		fmt.Printf("Failed to create backup file: %v\n", err)
		return ""
	}
	defer f.Close()

	if _, err := db.Backup(f, 0); err != nil {
		fmt.Printf("Failed to backup database: %v\n", err)
		return ""
	}

	fmt.Printf("Database backed up successfully to %s\n", backupFile)
	return backupFile
}

// restore restores the database from a backup.
func restore(dbPath, backupFile string) int {
	if _, err := os.Stat(backupFile); os.IsNotExist(err) {
		fmt.Printf("Backup file does not exist: %s\n", backupFile)
		return 1
	}

	if _, err := os.Stat(dbPath); err == nil {
		fmt.Print("Existing database found. Do you want to replace it? [y/N] ")
		var response string
		fmt.Scanln(&response)
		if response != "y" && response != "Y" {
			fmt.Println("Operation cancelled")
			return 1
		}
		if err := os.RemoveAll(dbPath); err != nil {
			fmt.Printf("Failed to remove existing database: %v\n", err)
			return 1
		}
	}

	f, err := os.Open(backupFile)
	if err != nil {
		fmt.Printf("Failed to open backup file: %v\n", err)
		return 1
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		fmt.Printf("Failed to stat backup file: %v\n", err)
		return 1
	}
	if fi.Size() == 0 {
		fmt.Printf("Backup file is empty: %s\n", backupFile)
		return 1
	}

	if err := os.MkdirAll(dbPath, 0755); err != nil {
		fmt.Printf("Failed to create database directory: %v\n", err)
		return 1
	}

	db, err := repositories.OpenDB(dbPath)
	if err != nil {
		fmt.Printf("Failed to open database: %v\n", err)
		return 1
	}
	defer db.Close()

	err = func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic occurred during restore: %v", r)
			}
		}()
		return db.Load(f, 4)
	}()
	if err != nil {
		fmt.Printf("Failed to restore database: %v\n", err)
		return 1
	}

	fmt.Println("Database restored successfully")
	return 0
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	// MaxBackups is the maximum number of config backups to keep
	MaxBackups = 3

	// BackupSuffix is the file extension for backup files
	BackupSuffix = ".bak"
)

// BackupUserConfig creates a timestamped backup of the user config file.
// Returns the backup file path on success.
// If no user config exists, returns empty string and nil error.
func BackupUserConfig() (string, error) {
	configPath := GetUserConfigPath()

	if !UserConfigExists() {
		return "", nil // No config to backup
	}

	timestamp := time.Now().Format("20060102-150405")
	backupPath := fmt.Sprintf("%s%s.%s", configPath, BackupSuffix, timestamp)

	data, err := os.ReadFile(configPath)
	if err != nil {
		return "", fmt.Errorf("failed to read config for backup: %w", err)
	}

	if err := os.WriteFile(backupPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}

	// Cleanup is best-effort; the backup itself succeeded.
	_ = cleanupOldBackups()

	return backupPath, nil
}

// ListUserConfigBackups returns all backup files for the user config,
// sorted by modification time (newest first).
func ListUserConfigBackups() ([]string, error) {
	configPath := GetUserConfigPath()
	configDir := filepath.Dir(configPath)
	configBase := filepath.Base(configPath)

	entries, err := os.ReadDir(configDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // No config dir = no backups
		}
		return nil, fmt.Errorf("failed to list config directory: %w", err)
	}

	var backups []string
	prefix := configBase + BackupSuffix + "."
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasPrefix(entry.Name(), prefix) {
			backups = append(backups, filepath.Join(configDir, entry.Name()))
		}
	}

	sort.Slice(backups, func(i, j int) bool {
		infoI, _ := os.Stat(backups[i])
		infoJ, _ := os.Stat(backups[j])
		if infoI == nil || infoJ == nil {
			return false
		}
		return infoI.ModTime().After(infoJ.ModTime())
	})

	return backups, nil
}

// cleanupOldBackups removes backups beyond MaxBackups, keeping the newest.
func cleanupOldBackups() error {
	backups, err := ListUserConfigBackups()
	if err != nil {
		return err
	}

	if len(backups) <= MaxBackups {
		return nil
	}

	for _, backup := range backups[MaxBackups:] {
		if err := os.Remove(backup); err != nil {
			continue
		}
	}

	return nil
}

// RestoreUserConfig restores the user config from a backup file.
// An empty backupPath restores the most recent backup. The current
// config (if any) is backed up before the restore.
func RestoreUserConfig(backupPath string) error {
	if backupPath == "" {
		backups, err := ListUserConfigBackups()
		if err != nil {
			return err
		}
		if len(backups) == 0 {
			return fmt.Errorf("no config backups found")
		}
		backupPath = backups[0]
	}

	// Read the backup before touching anything else; a same-second
	// pre-restore backup would otherwise reuse its timestamped name.
	data, err := os.ReadFile(backupPath)
	if err != nil {
		return fmt.Errorf("failed to read backup %s: %w", backupPath, err)
	}

	if UserConfigExists() {
		if _, err := BackupUserConfig(); err != nil {
			return fmt.Errorf("failed to backup current config before restore: %w", err)
		}
	}

	configDir := GetUserConfigDir()
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(GetUserConfigPath(), data, 0644); err != nil {
		return fmt.Errorf("failed to write restored config: %w", err)
	}

	return nil
}
